package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps an sqlx handle over either Postgres (pgx) or an ephemeral
// in-memory SQLite database. All queries in the repository are written with
// `?` placeholders and rebound per driver via sqlx.
type DB struct {
	Client *sqlx.DB
}

var memSeq atomic.Int64

// Open connects to Postgres when connString is set, or to a transient
// in-memory SQLite database when it is empty. The schema is migrated before
// the handle is returned.
func Open(connString string) (*DB, error) {
	var db *sqlx.DB
	var err error
	if connString == "" {
		// Unique name per open so independent handles (and tests) do not
		// share state through SQLite's shared cache.
		dsn := fmt.Sprintf("file:portal%d?mode=memory&cache=shared&_foreign_keys=on", memSeq.Add(1))
		db, err = sqlx.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
	} else {
		db, err = sqlx.Open("pgx", connString)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{Client: db}
	if err := d.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Persistent reports whether the handle is backed by Postgres rather than the
// ephemeral fallback store.
func (d *DB) Persistent() bool {
	return d != nil && d.Client != nil && d.Client.DriverName() == "pgx"
}

// Healthy verifies database connectivity.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
	id            BIGSERIAL PRIMARY KEY,
	student_id    TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	face_encoding BYTEA
);

CREATE TABLE IF NOT EXISTS results (
	id         BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	semester   TEXT NOT NULL,
	course     TEXT NOT NULL,
	grade      TEXT NOT NULL,
	credits    INTEGER NOT NULL,
	teacher    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id         BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	date       DATE NOT NULL,
	status     TEXT NOT NULL DEFAULT 'Present'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance(student_id, date);

CREATE TABLE IF NOT EXISTS assignments (
	id         BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	course     TEXT NOT NULL,
	title      TEXT NOT NULL,
	due_date   DATE NOT NULL,
	status     TEXT NOT NULL DEFAULT 'Due'
);
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS students (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id    TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	face_encoding BLOB
);

CREATE TABLE IF NOT EXISTS results (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER NOT NULL REFERENCES students(id),
	semester   TEXT NOT NULL,
	course     TEXT NOT NULL,
	grade      TEXT NOT NULL,
	credits    INTEGER NOT NULL,
	teacher    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER NOT NULL REFERENCES students(id),
	date       DATE NOT NULL,
	status     TEXT NOT NULL DEFAULT 'Present'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance(student_id, date);

CREATE TABLE IF NOT EXISTS assignments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER NOT NULL REFERENCES students(id),
	course     TEXT NOT NULL,
	title      TEXT NOT NULL,
	due_date   DATE NOT NULL,
	status     TEXT NOT NULL DEFAULT 'Due'
);
`

// Migrate creates the portal schema. Safe to invoke on every start: all
// statements are create-if-absent.
func (d *DB) Migrate(ctx context.Context) error {
	schema := schemaSQLite
	if d.Persistent() {
		schema = schemaPostgres
	}
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
