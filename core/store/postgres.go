package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "ventbot/core/config"
	"ventbot/core/logger"
	"log/slog"
)

type postgresKV struct {
	db *sqlx.DB
}

func openPostgres(cfg coreconfig.PostgresConfig) (KV, error) {
	if err := RunMigrations(cfg); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	took := time.Since(start)
	if err != nil {
		logger.KV.Error("db connect failed",
			slog.String("event", "kv.connect"),
			slog.String("backend", "postgres"),
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.KV.Info("db connected",
		slog.String("event", "kv.connect"),
		slog.String("backend", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)

	return &postgresKV{db: db}, nil
}

func (p *postgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *postgresKV) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Incr relies on a single upsert statement so concurrent increments
// stay atomic at the database level.
func (p *postgresKV) Incr(ctx context.Context, key string) (int64, error) {
	var value int64
	err := p.db.GetContext(ctx, &value,
		`INSERT INTO kv_entries (key, value) VALUES ($1, '1')
		 ON CONFLICT (key) DO UPDATE
		 SET value = (COALESCE(NULLIF(kv_entries.value, ''), '0')::bigint + 1)::text,
		     updated_at = now()
		 RETURNING value::bigint`,
		key,
	)
	if err != nil {
		return 0, fmt.Errorf("kv incr %s: %w", key, err)
	}
	return value, nil
}

func (p *postgresKV) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *postgresKV) Close() error {
	return p.db.Close()
}

// WaitForPostgres tries to connect to the DB until it is ready or timeout is reached.
func WaitForPostgres(dsn string, timeout time.Duration) error {
	start := time.Now()
	var lastErr error
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			if err = db.Ping(); err == nil {
				_ = db.Close()
				return nil
			}
			_ = db.Close()
		}
		lastErr = err
		if time.Since(start) > timeout {
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		}
		time.Sleep(2 * time.Second)
	}
}
