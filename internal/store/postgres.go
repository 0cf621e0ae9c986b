package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/observability"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Each entity kind gets its own table, entity_<kind>, holding the JSON
// blob under a TEXT primary key. Tables are created on first use so that
// event-log kinds registered at runtime need no migration.
type PostgresStore struct {
	db  *sql.DB
	log zerolog.Logger

	mu     sync.Mutex
	tables map[entity.Kind]bool
}

// OpenPostgres connects to Postgres with the DSN and verifies the
// connection before returning.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore creates a Postgres-backed store on an open connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		log:    observability.NewLogger("postgres_store"),
		tables: make(map[entity.Kind]bool),
	}
}

// EnsureTables creates the tables for the given kinds up front. Load and
// Save also create tables lazily; calling this at startup just front-loads
// the DDL so the hot path never pays for it.
func (s *PostgresStore) EnsureTables(ctx context.Context, kinds ...entity.Kind) error {
	for _, k := range kinds {
		if err := s.ensureTable(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, kind entity.Kind, key string) ([]byte, error) {
	if err := s.ensureTable(ctx, kind); err != nil {
		return nil, err
	}

	var data []byte
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, tableName(kind))
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, key, err)
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, kind entity.Kind, key string, data []byte) error {
	if err := s.ensureTable(ctx, kind); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, tableName(kind))
	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("save %s %s: %w", kind, key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, kind entity.Kind, key string) error {
	if err := s.ensureTable(ctx, kind); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tableName(kind))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("remove %s %s: %w", kind, key, err)
	}
	return nil
}

func (s *PostgresStore) ensureTable(ctx context.Context, kind entity.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[kind] {
		return nil
	}
	if err := validKind(kind); err != nil {
		return err
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, tableName(kind))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table for %s: %w", kind, err)
	}

	s.log.Debug().Str("kind", string(kind)).Msg("entity table ready")
	s.tables[kind] = true
	return nil
}

func tableName(kind entity.Kind) string {
	return "entity_" + string(kind)
}

// validKind rejects kinds that could not be embedded in an identifier.
// Kind values are compile-time constants, so a failure here is a bug.
func validKind(kind entity.Kind) error {
	if kind == "" {
		return fmt.Errorf("empty entity kind")
	}
	for _, c := range kind {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid entity kind %q", kind)
	}
	return nil
}
