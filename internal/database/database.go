// Package database opens the PostgreSQL connection that backs the
// pdf_documents store. The pool lives for the whole process; handlers and the
// startup sweep share it through database/sql.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"pdfqa/internal/config"
)

// startupPingTimeout bounds the connectivity check in NewPostgres. A database
// that cannot answer within this window fails fast instead of letting the
// process come up half-wired.
const startupPingTimeout = 5 * time.Second

// sqlOpen is swapped out by tests to inject a mock connection.
var sqlOpen = sql.Open

// BuildPostgresDSN assembles a postgres:// URL from the configured parts,
// e.g. postgres://pdfqa:secret@db:5432/pdfqa?sslmode=disable. The password and
// sslmode are optional; everything else is required.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("database config incomplete: host, port, user, and name are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}

	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres opens a pooled connection through the pgx stdlib driver, wrapped
// with otelsql so every query carries a span, and verifies connectivity before
// returning. Pool limits come from DB_MAX_OPEN_CONNS and friends; extracted
// text rows can be large, so unset knobs fall back to database/sql defaults
// rather than guesses made here.
func NewPostgres(c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql driver: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	tunePool(db, c)

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// tunePool applies the configured pool limits, leaving driver defaults in
// place for any knob that is zero or negative.
func tunePool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
}
