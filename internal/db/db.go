package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	MaxOpenConns     int
	MinIdleConns     int
	StatementTimeout time.Duration
	Debug            bool
}

// Connect opens the shared pool against PostgreSQL and verifies it with a ping.
func Connect(ctx context.Context, rawURL string, opts Options) (*gorm.DB, error) {
	dsn, err := NormalizeDSN(rawURL, opts.StatementTimeout)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	// simple protocol lets /api/db/query run multi-statement scripts
	dialector := postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MinIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MinIdleConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return gdb, nil
}

func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NormalizeDSN accepts the loose forms seen in .env files ("@host/db",
// "user:pass@host/db", full URLs) and returns a postgresql:// URL carrying
// connect and statement timeouts unless the caller already set them.
func NormalizeDSN(raw string, statementTimeout time.Duration) (string, error) {
	dsn := strings.TrimSpace(raw)
	dsn = strings.TrimPrefix(dsn, "@")
	if dsn == "" {
		return "", fmt.Errorf("database url is empty")
	}
	if !strings.HasPrefix(dsn, "postgresql://") && !strings.HasPrefix(dsn, "postgres://") {
		dsn = "postgresql://" + dsn
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("database url has no host")
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/postgres"
	}

	q := u.Query()
	if q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", "60")
	}
	if q.Get("application_name") == "" {
		q.Set("application_name", "mcp-gateway")
	}
	if q.Get("options") == "" && statementTimeout > 0 {
		ms := statementTimeout.Milliseconds()
		q.Set("options", fmt.Sprintf("-c statement_timeout=%d -c idle_in_transaction_session_timeout=%d", ms, ms))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
