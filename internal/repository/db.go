package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB bundles the ent SQL driver with the pgx pool backing it (Postgres only).
type DB struct {
	Driver  *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
}

// Dialect returns the ent dialect name (sqlite3 or postgres).
func (db *DB) Dialect() string { return db.dialect }

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the record store. A postgres:// DSN gets a pgx pool wrapped
// for ent; anything else is treated as a SQLite database path.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if isPostgresDSN(cfg.DSN) {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "assignment-verifier"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	sqlDB := stdlib.OpenDBFromPool(pool)
	db := &DB{Driver: entsql.OpenDB(dialect.Postgres, sqlDB), pool: pool, dialect: dialect.Postgres}
	if err := Migrate(ctx, db); err != nil {
		Close(db, logger)
		return nil, err
	}
	logger.Info("successfully connected to database")
	return db, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("opening database", "driver", "sqlite", "path", cfg.DSN)
	sqlDB, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	// a single writer keeps SQLite free of SQLITE_BUSY and makes :memory: usable
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	db := &DB{Driver: entsql.OpenDB(dialect.SQLite, sqlDB), dialect: dialect.SQLite}
	if err := Migrate(ctx, db); err != nil {
		Close(db, logger)
		return nil, err
	}
	logger.Info("database ready")
	return db, nil
}

var schemaDDL = map[string]string{
	dialect.SQLite: `CREATE TABLE IF NOT EXISTS submissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	student_name TEXT,
	institution TEXT,
	question_summary TEXT,
	score REAL,
	evaluation_result TEXT
)`,
	dialect.Postgres: `CREATE TABLE IF NOT EXISTS submissions (
	id BIGSERIAL PRIMARY KEY,
	timestamp TEXT,
	student_name TEXT,
	institution TEXT,
	question_summary TEXT,
	score DOUBLE PRECISION,
	evaluation_result TEXT
)`,
}

// Migrate creates the submissions table when missing.
func Migrate(ctx context.Context, db *DB) error {
	ddl, ok := schemaDDL[db.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.dialect)
	}
	if err := db.Driver.Exec(ctx, ddl, []any{}, nil); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}
	return nil
}

// Close closes the database connections gracefully
func Close(db *DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if db.Driver != nil {
		if err := db.Driver.Close(); err != nil {
			logger.Error("failed to close database driver", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.Debug("pinging database")
	if err := db.Driver.DB().PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
