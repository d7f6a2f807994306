package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
}

var cacheWarmCmd = &cobra.Command{
	Use:   "cache-warm",
	Short: "Keep the shared redis dropdown cache populated",
	Long:  `Reload the dropdown lists into redis on a schedule so API instances start with a warm cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCacheWarm()
	},
}

var cacheWarmSchedule string

func init() {
	cacheWarmCmd.Flags().StringVar(&cacheWarmSchedule, "schedule", "@every 10m", "cron spec for the warm-up job")
	workerCmd.AddCommand(cacheWarmCmd)
}

func runCacheWarm() error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	lg := setupLogger(cfg)
	if cfg.Cache.Driver != "redis" {
		return errors.New("cache-warm needs cache.driver=redis; the memory cache lives inside each server process")
	}

	ctx := context.Background()
	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	gdb, err := openGorm(db, false)
	if err != nil {
		return err
	}
	store, _, closeStore, err := newDropdownStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	cache := newDropdownCache(gdb, store, cfg.Cache, lg)
	warm := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		start := time.Now()
		if err := cache.Warm(ctx); err != nil {
			lg.Error("dropdown warm-up failed", "error", err)
			return
		}
		lg.Info("dropdown cache warmed", "duration_ms", time.Since(start).Milliseconds())
	}

	c := cron.New()
	if _, err := c.AddFunc(cacheWarmSchedule, warm); err != nil {
		return fmt.Errorf("invalid --schedule %q: %w", cacheWarmSchedule, err)
	}

	warm()
	c.Start()
	lg.Info("cache-warm worker running", "schedule", cacheWarmSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("received signal, stopping cache-warm worker", "signal", sig)

	select {
	case <-c.Stop().Done():
	case <-time.After(30 * time.Second):
		lg.Warn("shutdown timeout reached, forcing exit")
	}
	return nil
}
