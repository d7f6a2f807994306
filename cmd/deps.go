package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/audit"
	auditPostgres "github.com/frahmantamala/discharge-registry/internal/audit/postgres"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
	dropdownPostgres "github.com/frahmantamala/discharge-registry/internal/dropdown/postgres"
	"github.com/frahmantamala/discharge-registry/internal/user"
	userPostgres "github.com/frahmantamala/discharge-registry/internal/user/postgres"
)

// initDB opens the pgx pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm wraps the existing pool; it never dials on its own.
func openGorm(db *sqlx.DB, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

// newDropdownStore picks the cache backend named by cfg.Driver. The returned
// memory store is nil for the redis driver.
func newDropdownStore(ctx context.Context, cfg internal.CacheConfig) (dropdown.Store, *dropdown.MemoryStore, func() error, error) {
	if cfg.Driver != "redis" {
		mem := dropdown.NewMemoryStore()
		return mem, mem, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}
	return dropdown.NewRedisStore(client, cfg.Redis.KeyPrefix), nil, client.Close, nil
}

// newEventBus returns a bus with the audit recorder subscribed first, so
// every later subscriber runs after the audit row is written.
func newEventBus(db *gorm.DB, logger *slog.Logger) (*events.EventBus, audit.RepositoryAPI) {
	bus := events.NewEventBus(logger)
	auditRepo := auditPostgres.NewAuditRepository(db)
	audit.NewRecorder(auditRepo, logger).Subscribe(bus)
	return bus, auditRepo
}

func newDropdownCache(db *gorm.DB, store dropdown.Store, cfg internal.CacheConfig, logger *slog.Logger) *dropdown.Cache {
	return dropdown.New(store, dropdownPostgres.NewLoader(db), cfg.EffectiveTTL(), logger)
}

func newUserService(db *gorm.DB, bus *events.EventBus, cfg *internal.Config, logger *slog.Logger) *user.Service {
	return user.NewService(userPostgres.NewUserRepository(db), bus, cfg.Security.BCryptCost, logger)
}
