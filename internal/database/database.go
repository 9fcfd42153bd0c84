// Package database centralises sqlx connection helpers for the persistent
// tenant directory.  The driver is go-sql-driver/mysql, which also works
// with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                    – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)   – fine-grained control.
//
// Both helpers Ping the database before returning so boot fails fast.
// Callers Close() the returned *sqlx.DB on shutdown.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the pool and the boot-time ping.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	PingRetries int
	PingBackoff time.Duration
}

// DefaultOptions: 15 open, 5 idle, 30-minute lifetime, 3 ping attempts.
var DefaultOptions = Options{
	MaxOpen:     15,
	MaxIdle:     5,
	MaxLifetime: 30 * time.Minute,
	PingRetries: 3,
	PingBackoff: time.Second,
}

// Open returns a pinged *sqlx.DB using DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions)
}

// OpenWithOptions opens a mysql pool and pings it, retrying with a fixed
// backoff so a database still starting next to the app does not abort boot.
func OpenWithOptions(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	attempts := max(o.PingRetries, 1)
	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if i >= attempts {
			break
		}
		zap.S().Warnw("database ping failed, retrying", "attempt", i, "err", err)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(o.PingBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database ping: %w", err)
}
