// Package storage is SpecMem's PostgreSQL backing: connection pooling
// with per-project schema isolation, embedded migrations, and the
// concrete Store implementations consumed by pkg/project, pkg/dimension,
// pkg/embedqueue, and pkg/cameraroll.
package storage

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	stdlib "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds connection pool settings.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`

	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// dsn builds the base connection string (schema-agnostic; search_path is
// set per-connection by AfterConnect).
func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Pool wraps a pgxpool.Pool bound to one project's schema: every
// connection the pool hands out already has its search_path set, so
// callers never pass a schema name explicitly.
type Pool struct {
	*pgxpool.Pool
	schema string
}

// NewPool opens a pool for schema (created first, if absent, by
// EnsureSchema), with every physical connection running
// `SET search_path = schema, public` before first use.
func NewPool(ctx context.Context, cfg Config, schema string) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path = %s, public", pgx.Identifier{schema}.Sanitize()))
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{Pool: pool, schema: schema}, nil
}

// Schema returns the schema this pool's connections are bound to.
func (p *Pool) Schema() string {
	return p.schema
}

// EnsureSchema creates schema if it does not already exist, then applies
// every embedded migration against it via golang-migrate.
func EnsureSchema(ctx context.Context, cfg Config, schema string) error {
	connCfg, err := pgx.ParseConfig(cfg.dsn())
	if err != nil {
		return fmt.Errorf("parsing connection config: %w", err)
	}
	db := stdlib.OpenDB(*connCfg)
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize())); err != nil {
		return fmt.Errorf("creating schema %s: %w", schema, err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{SchemaName: schema, MigrationsTable: "schema_migrations"})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	defer source.Close()

	m, err := migrate.NewWithInstance("iofs", source, cfg.Database, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations to schema %s: %w", schema, err)
	}

	return nil
}
