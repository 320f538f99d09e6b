package providers

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/confsync/confsync/pkg/values"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by SQLite.Load when no document exists under the
// requested logical path.
var ErrNotFound = errors.New("providers: document not found")

// SQLite stores trees as JSON documents in a local database, keyed by
// logical path. Several configs can share one database file instead of a
// directory of text files.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite creates a provider backed by the database file at dbPath. Use
// ":memory:" for tests.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("providers: database path is required")
	}
	return &SQLite{path: dbPath}, nil
}

// Init opens the database, enables WAL mode, and runs migrations.
func (s *SQLite) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("providers: open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("providers: ping database: %w", err)
	}

	s.db = db
	return s.migrate()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("providers: create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("providers: create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("providers: create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("providers: run migrations: %w", err)
	}
	return nil
}

// Load fetches and decodes the document stored under path.
func (s *SQLite) Load(path string) (values.Value, error) {
	var body string
	err := s.db.QueryRow("SELECT body FROM documents WHERE path = ?", path).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return values.Null(), fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return values.Null(), fmt.Errorf("providers: query document %s: %w", path, err)
	}
	return DecodeJSON([]byte(body))
}

// Store upserts the document under path.
func (s *SQLite) Store(tree values.Value, path string) error {
	body, err := EncodeJSON(tree)
	if err != nil {
		return fmt.Errorf("providers: marshal document %s: %w", path, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO documents (path, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		path, string(body))
	if err != nil {
		return fmt.Errorf("providers: upsert document %s: %w", path, err)
	}
	return nil
}
