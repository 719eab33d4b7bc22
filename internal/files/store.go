package files

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/repository"
)

// Store persists file metadata.
type Store interface {
	Create(ctx context.Context, f *File) (*File, error)
	Find(ctx context.Context, id uuid.UUID) (*File, error)
}

const columns = `id, user_id, name, filename, content_type, size_bytes, slide_count, storage_key, content_hash, created_at, updated_at`

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by the files table.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Create(ctx context.Context, f *File) (*File, error) {
	q := `INSERT INTO files(id, user_id, name, filename, content_type, size_bytes, slide_count, storage_key, content_hash)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + columns

	created, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (File, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			f.ID, f.UserID, f.Name, f.Filename, f.ContentType, f.SizeBytes, f.SlideCount, f.StorageKey, f.ContentHash,
		}, scanFile)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &created, nil
}

func (s *postgresStore) Find(ctx context.Context, id uuid.UUID) (*File, error) {
	q := `SELECT ` + columns + ` FROM files WHERE id = $1`

	f, err := repository.QueryOne(ctx, s.db, q, []any{id}, scanFile)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &f, nil
}

func scanFile(s repository.Scanner) (File, error) {
	var f File
	err := s.Scan(
		&f.ID,
		&f.UserID,
		&f.Name,
		&f.Filename,
		&f.ContentType,
		&f.SizeBytes,
		&f.SlideCount,
		&f.StorageKey,
		&f.ContentHash,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}

type memoryStore struct {
	mu    sync.RWMutex
	files map[uuid.UUID]File
}

// NewMemoryStore creates a Store that keeps metadata in memory.
func NewMemoryStore() Store {
	return &memoryStore{files: make(map[uuid.UUID]File)}
}

func (s *memoryStore) Create(ctx context.Context, f *File) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[f.ID]; ok {
		return nil, ErrDuplicate
	}

	created := *f
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.files[f.ID] = created
	return &created, nil
}

func (s *memoryStore) Find(ctx context.Context, id uuid.UUID) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}
