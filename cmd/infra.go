package cmd

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	"github.com/frahmantamala/attendance-management/internal/notifier"
)

// initDB opens the gorm handle used by repositories and an sqlx handle over
// the same pool for the read-side queries.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	const driver = "pgx"

	gdb, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gdb, sqlx.NewDb(sqlDB, driver), nil
}

// initRedis returns nil when the cache is disabled.
func initRedis(ctx context.Context, cfg internal.CacheConfig) (*goredis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func newNotifier(cfg internal.NotifierConfig, lg *slog.Logger) *notifier.Notifier {
	return notifier.New(notifier.Config{
		WebhookURL:   cfg.WebhookURL,
		Timeout:      cfg.Timeout,
		MaxWorkers:   cfg.Workers,
		JobQueueSize: cfg.QueueSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, lg)
}

func leaveDefaults(cfg internal.LeaveConfig) ledger.Balances {
	return ledger.Balances{
		ledger.CategorySick:   cfg.DefaultSick,
		ledger.CategoryCasual: cfg.DefaultCasual,
		ledger.CategoryEarned: cfg.DefaultEarned,
	}
}
