// Package database opens the mapping store and keeps its schema current.
// SQLite (github.com/mattn/go-sqlite3) is the default store; a postgres:// location
// selects PostgreSQL through the pgx database/sql driver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/tinylink/tinylink/internal/config"
)

// SQLite connection parameters understood by go-sqlite3.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Dialect identifies the SQL flavour behind a DB.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// String returns the dialect name, which is also its migrations directory.
func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites '?' placeholders into the dialect's form.
// Queries must not contain a literal '?'.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// DB is a database/sql handle tagged with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the store described by cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.StoreConfig) (*DB, error) {
	if cfg.Location == "" {
		return nil, errors.New("store location is empty")
	}

	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.Driver() {
	case config.DriverPostgres:
		dialect = DialectPostgres
		db, err = sql.Open(config.DriverPostgres, cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 || maxOpen > 1000 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen / 2)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	default:
		dialect = DialectSQLite
		db, err = sql.Open(config.DriverSQLite, SQLiteDSN(cfg.Location))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// One connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", dialect, err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// SQLiteDSN appends the connection parameters to a SQLite path or file: URI.
func SQLiteDSN(location string) string {
	if strings.Contains(location, "?") {
		return location + "&" + sqliteParams
	}
	if strings.HasPrefix(location, "file:") {
		return location + "?" + sqliteParams
	}
	return "file:" + location + "?" + sqliteParams
}

// HealthCheck pings the store.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint
// failure from either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}
