package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/audit"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	authPostgres "github.com/frahmantamala/discharge-registry/internal/auth/postgres"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	correctionPostgres "github.com/frahmantamala/discharge-registry/internal/correction/postgres"
	"github.com/frahmantamala/discharge-registry/internal/department"
	departmentPostgres "github.com/frahmantamala/discharge-registry/internal/department/postgres"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
	"github.com/frahmantamala/discharge-registry/internal/export"
	"github.com/frahmantamala/discharge-registry/internal/record"
	recordPostgres "github.com/frahmantamala/discharge-registry/internal/record/postgres"
	"github.com/frahmantamala/discharge-registry/internal/statistics"
	statisticsPostgres "github.com/frahmantamala/discharge-registry/internal/statistics/postgres"
	"github.com/frahmantamala/discharge-registry/internal/transport"
	"github.com/frahmantamala/discharge-registry/internal/transport/rest"
	"github.com/frahmantamala/discharge-registry/internal/transport/swagger"
	"github.com/frahmantamala/discharge-registry/internal/user"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config  *internal.Config
	DB      *sqlx.DB
	Router  *chi.Mux
	Logger  *slog.Logger
	Sweeper *cron.Cron
	closers []func() error
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("server stopped")
}

func (d *Dependencies) close() {
	if d.Sweeper != nil {
		<-d.Sweeper.Stop().Done()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("close error", "error", err)
		}
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)
	ctx := context.Background()

	loc, err := config.App.Location()
	if err != nil {
		return nil, err
	}

	if _, err := swagger.Load(ctx); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps := &Dependencies{
		Config:  config,
		DB:      db,
		Logger:  lg,
		closers: []func() error{db.Close},
	}

	gdb, err := openGorm(db, !config.App.IsProduction())
	if err != nil {
		deps.close()
		return nil, err
	}

	store, mem, closeStore, err := newDropdownStore(ctx, config.Cache)
	if err != nil {
		deps.close()
		return nil, err
	}
	deps.closers = append(deps.closers, closeStore)

	bus, auditRepo := newEventBus(gdb, lg)
	cache := newDropdownCache(gdb, store, config.Cache, lg)
	cache.Subscribe(bus)

	if mem != nil {
		deps.Sweeper, err = startSweeper(mem, config.Cache.SweepInterval, lg)
		if err != nil {
			deps.close()
			return nil, err
		}
	}

	tokens := auth.NewJWTTokenGenerator(
		config.Security.JWTSecret,
		config.Security.JWTRefreshSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, config.Security.BCryptCost, bus, lg)
	userService := newUserService(gdb, bus, config, lg)
	departmentService := department.NewService(departmentPostgres.NewDepartmentRepository(gdb), bus, lg)
	recordService := record.NewService(recordPostgres.NewRecordRepository(gdb), departmentService, cache, bus, lg)
	correctionService := correction.NewService(correctionPostgres.NewCorrectionRepository(gdb), bus, lg)
	exportService := export.NewService(recordService, correctionService, userService, bus, loc, lg)
	statisticsService := statistics.NewService(statisticsPostgres.NewStatisticsRepository(gdb), lg)

	var probes []rest.Probe
	if rs, ok := store.(*dropdown.RedisStore); ok {
		probes = append(probes, rest.Probe{Name: "redis", Ping: rs.Ping})
	}

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db, rest.Handlers{
		Auth:        auth.NewHandler(base, authService),
		User:        user.NewHandler(base, userService),
		Record:      record.NewHandler(base, recordService, loc),
		Correction:  correction.NewHandler(base, correctionService, loc),
		Department:  department.NewHandler(base, departmentService),
		Export:      export.NewHandler(base, exportService),
		Audit:       audit.NewHandler(base, audit.NewService(auditRepo, lg)),
		Statistics:  statistics.NewHandler(base, statisticsService, loc),
		RBAC:        auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		CORSOrigins: config.Server.CORSOrigins,
		Probes:      probes,
	}, lg)
	deps.Router = router

	return deps, nil
}

// startSweeper drops expired in-process dropdown entries on a fixed interval.
func startSweeper(store *dropdown.MemoryStore, interval time.Duration, lg *slog.Logger) (*cron.Cron, error) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if n := store.Sweep(); n > 0 {
			lg.Debug("swept expired dropdown entries", "count", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule dropdown sweeper: %w", err)
	}
	c.Start()
	return c, nil
}
