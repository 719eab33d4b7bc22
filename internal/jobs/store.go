package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/internal/deck"
)

var (
	ErrNotFound  = errors.New("job not found")
	ErrDuplicate = errors.New("job already exists")
	// ErrStatusConflict is returned when a compare-and-set transition finds
	// the job in a status other than the expected one.
	ErrStatusConflict = errors.New("job status changed concurrently")
)

// Store persists jobs, their activity, and extracted units keyed by source
// content hash.
type Store interface {
	Create(ctx context.Context, j *Job) (*Job, error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	// Transition moves a job from one status to another only when it is
	// currently in from, applying patch in the same write.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, patch Patch) (*Job, error)
	// Progress raises units_processed monotonically while translating.
	Progress(ctx context.Context, id uuid.UUID, processed, total int) error
	List(ctx context.Context, filter Filter) (*Page, error)
	// Running lists jobs left in extracting or translating.
	Running(ctx context.Context) ([]Job, error)

	AddActivity(ctx context.Context, a Activity) error
	Activity(ctx context.Context, id uuid.UUID) ([]Activity, error)

	CachedUnits(ctx context.Context, contentHash string) ([]deck.TextUnit, bool, error)
	CacheUnits(ctx context.Context, contentHash string, units []deck.TextUnit) error
}
