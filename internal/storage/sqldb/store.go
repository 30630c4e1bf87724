// Package sqldb provides a TripStore backed by database/sql. SQLite and
// PostgreSQL are supported through the dialect package.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/storage"
	"github.com/tjfontaine/wayfarer/internal/storage/dialect"
)

// Store is a SQL implementation of TripStore that supports multiple
// database dialects.
type Store struct {
	db           *sqlx.DB
	dialect      dialect.Dialect
	historyLimit int

	mu           sync.Mutex
	lastPosition int64
}

var _ storage.TripStore = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver       string // Driver name: sqlite, postgres
	DSN          string // Data source name / connection string
	HistoryLimit int
}

// New creates a new SQL store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if n := d.MaxOpenConns(); n > 0 {
		db.SetMaxOpenConns(n)
	}

	// Run dialect-specific initialization (e.g., PRAGMA for SQLite)
	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}
	store := &Store{db: db, dialect: d, historyLimit: limit}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a new SQLite store
func NewSQLite(dbPath string, historyLimit int) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath, HistoryLimit: historyLimit})
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS trips (
collection TEXT NOT NULL,
id TEXT NOT NULL,
document TEXT NOT NULL,
position BIGINT NOT NULL,
created_at %s NOT NULL,
PRIMARY KEY (collection, id)
)`, s.dialect.TimestampType()),
		`CREATE INDEX IF NOT EXISTS idx_trips_position ON trips(collection, position)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(s.dialect.Rebind(stmt)); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	var last sql.NullInt64
	if err := s.db.Get(&last, `SELECT MAX(position) FROM trips`); err != nil {
		return fmt.Errorf("failed to read last position: %w", err)
	}
	s.lastPosition = last.Int64
	return nil
}

// nextPosition returns a strictly increasing ordering key. Wall-clock time
// keeps it meaningful across restarts.
func (s *Store) nextPosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := time.Now().UnixNano()
	if p <= s.lastPosition {
		p = s.lastPosition + 1
	}
	s.lastPosition = p
	return p
}

func (s *Store) Put(ctx context.Context, c storage.Collection, it *domain.Itinerary) error {
	if _, err := storage.ParseCollection(string(c)); err != nil {
		return err
	}
	if it == nil || it.ID == "" {
		return fmt.Errorf("itinerary id is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insert(ctx, tx, c, it); err != nil {
		return err
	}

	if c == storage.CollectionHistory {
		query := s.dialect.Rebind(`DELETE FROM trips WHERE collection = ? AND id NOT IN (
SELECT id FROM trips WHERE collection = ? ORDER BY position DESC LIMIT ?)`)
		if _, err := tx.ExecContext(ctx, query, string(c), string(c), s.historyLimit); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) insert(ctx context.Context, tx *sqlx.Tx, c storage.Collection, it *domain.Itinerary) error {
	doc, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to marshal itinerary: %w", err)
	}

	query := s.dialect.Rebind(`INSERT INTO trips (collection, id, document, position, created_at)
VALUES (?, ?, ?, ?, ?) ` + s.dialect.UpsertClause([]string{"collection", "id"}, []string{"document", "position"}))

	if _, err := tx.ExecContext(ctx, query, string(c), it.ID, string(doc), s.nextPosition(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store itinerary: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, c storage.Collection) ([]*domain.Itinerary, error) {
	if _, err := storage.ParseCollection(string(c)); err != nil {
		return nil, err
	}

	var docs []string
	query := s.dialect.Rebind(`SELECT document FROM trips WHERE collection = ? ORDER BY position DESC`)
	if err := s.db.SelectContext(ctx, &docs, query, string(c)); err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}

	out := make([]*domain.Itinerary, 0, len(docs))
	for _, doc := range docs {
		it, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, c storage.Collection, id string) (*domain.Itinerary, error) {
	if _, err := storage.ParseCollection(string(c)); err != nil {
		return nil, err
	}

	var doc string
	query := s.dialect.Rebind(`SELECT document FROM trips WHERE collection = ? AND id = ?`)
	err := s.db.GetContext(ctx, &doc, query, string(c), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}
	return decode(doc)
}

func (s *Store) Delete(ctx context.Context, c storage.Collection, id string) error {
	if _, err := storage.ParseCollection(string(c)); err != nil {
		return err
	}

	query := s.dialect.Rebind(`DELETE FROM trips WHERE collection = ? AND id = ?`)
	res, err := s.db.ExecContext(ctx, query, string(c), id)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, c storage.Collection) error {
	if _, err := storage.ParseCollection(string(c)); err != nil {
		return err
	}

	query := s.dialect.Rebind(`DELETE FROM trips WHERE collection = ?`)
	if _, err := s.db.ExecContext(ctx, query, string(c)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c, err)
	}
	return nil
}

func (s *Store) ToggleSaved(ctx context.Context, it *domain.Itinerary) (bool, error) {
	if it == nil || it.ID == "" {
		return false, fmt.Errorf("itinerary id is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.dialect.Rebind(`DELETE FROM trips WHERE collection = ? AND id = ?`)
	res, err := tx.ExecContext(ctx, query, string(storage.CollectionSaved), it.ID)
	if err != nil {
		return false, fmt.Errorf("failed to unsave itinerary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to unsave itinerary: %w", err)
	}

	saved := n == 0
	if saved {
		if err := s.insert(ctx, tx, storage.CollectionSaved, it); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return saved, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func decode(doc string) (*domain.Itinerary, error) {
	var it domain.Itinerary
	if err := json.Unmarshal([]byte(doc), &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal itinerary: %w", err)
	}
	return &it, nil
}
