package categorization

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CorrectionStore persists learned description->category pairs per user.
// No transactional guarantees are required; the learner treats the store as
// a durable mirror of its in-memory state.
type CorrectionStore interface {
	Save(ctx context.Context, userID uuid.UUID, key, category string) error
	List(ctx context.Context, userID uuid.UUID) (map[string]string, error)
	// PurgeOlderThan implements the pluggable retention policy. Stores that
	// never evict return 0.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MemoryStore is an in-process CorrectionStore for tests and single-node
// deployments without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]map[string]memoryEntry
}

type memoryEntry struct {
	category string
	savedAt  time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, userID uuid.UUID, key, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.entries[userID]
	if !ok {
		user = make(map[string]memoryEntry)
		s.entries[userID] = user
	}
	user[key] = memoryEntry{category: category, savedAt: time.Now()}
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID uuid.UUID) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.entries[userID]))
	for key, entry := range s.entries[userID] {
		out[key] = entry.category
	}
	return out, nil
}

func (s *MemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for _, user := range s.entries {
		for key, entry := range user {
			if entry.savedAt.Before(cutoff) {
				delete(user, key)
				purged++
			}
		}
	}
	return purged, nil
}

// DB is the pgx surface the Postgres store needs. pgxpool.Pool satisfies
// it, as does pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists corrections in user_category_corrections.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store over the given connection pool.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, userID uuid.UUID, key, category string) error {
	query := `
		INSERT INTO user_category_corrections (user_id, description, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, description) DO UPDATE SET
			category = EXCLUDED.category,
			updated_at = now()
	`
	_, err := s.db.Exec(ctx, query, userID, key, category)
	return err
}

func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	query := `
		SELECT description, category
		FROM user_category_corrections
		WHERE user_id = $1
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, category string
		if err := rows.Scan(&key, &category); err != nil {
			return nil, err
		}
		entries[key] = category
	}
	return entries, rows.Err()
}

func (s *PostgresStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM user_category_corrections WHERE updated_at < $1`
	tag, err := s.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
