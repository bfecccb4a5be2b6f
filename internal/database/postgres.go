// Package database provides database connection utilities.
package database

import (
	"context"
	"embed"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// VettingChannel is the pg_notify channel carrying vetting job ids.
const VettingChannel = "vetting_jobs"

// Postgres wraps a PostgreSQL connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL connection pool.
func NewPostgres(cfg config.DatabaseConfig) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping verifies the database connection is alive.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// RunMigrations applies all pending database migrations.
func (p *Postgres) RunMigrations(cfg config.DatabaseConfig) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// NotifyVettingJob emits a change notification carrying jobID on the
// vetting channel.
func (p *Postgres) NotifyVettingJob(ctx context.Context, jobID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", VettingChannel, jobID.String())
	if err != nil {
		return fmt.Errorf("failed to notify %s: %w", VettingChannel, err)
	}
	return nil
}

// AdvisoryLockKey derives the 64-bit advisory lock key for a job: the
// first 8 bytes of the UUID as a big-endian signed integer.
func AdvisoryLockKey(jobID uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(jobID[:8]))
}

// JobLock is a held advisory lock for one vetting job. Advisory locks
// are session scoped, so the lock pins a pooled connection until
// released.
type JobLock struct {
	conn *pgxpool.Conn
	key  int64
}

// Release unlocks the job and returns the connection to the pool.
func (l *JobLock) Release(ctx context.Context) {
	if l.conn == nil {
		return
	}
	_, _ = l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key)
	l.conn.Release()
	l.conn = nil
}

// TryLockJob attempts to claim jobID without blocking. A nil JobLock
// with nil error means another worker holds the claim.
func (p *Postgres) TryLockJob(ctx context.Context, jobID uuid.UUID) (*JobLock, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	key := AdvisoryLockKey(jobID)
	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, nil
	}
	return &JobLock{conn: conn, key: key}, nil
}

// Listen acquires a dedicated connection subscribed to the vetting
// channel. The caller owns the connection and must Release it.
func (p *Postgres) Listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+VettingChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", VettingChannel, err)
	}
	return conn, nil
}
