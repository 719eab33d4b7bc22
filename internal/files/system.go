package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/storage"
)

// System defines the file operations used by handlers and the job orchestrator.
type System interface {
	Upload(ctx context.Context, cmd UploadCommand) (*File, error)
	Find(ctx context.Context, id uuid.UUID) (*File, error)
	Data(ctx context.Context, f *File) ([]byte, error)
	MaxUploadSize() int64
}

type system struct {
	store         Store
	blobs         storage.System
	maxUploadSize int64
	logger        *slog.Logger
}

// New creates the file system over a metadata store and blob storage.
func New(store Store, blobs storage.System, maxUploadSize int64, logger *slog.Logger) System {
	return &system{
		store:         store,
		blobs:         blobs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("system", "files"),
	}
}

func (s *system) MaxUploadSize() int64 {
	return s.maxUploadSize
}

func (s *system) Upload(ctx context.Context, cmd UploadCommand) (*File, error) {
	f, err := Inspect(cmd, s.maxUploadSize)
	if err != nil {
		return nil, err
	}

	f.ID = uuid.New()
	f.StorageKey = buildStorageKey(f.ID, f.Filename)

	if err := s.blobs.Store(ctx, f.StorageKey, cmd.Data); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "store upload").
			WithDetail("storageKey", f.StorageKey)
	}

	created, err := s.store.Create(ctx, f)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, f.StorageKey); delErr != nil {
			s.logger.Error("cleanup failed after store error", "storage_key", f.StorageKey, "error", delErr)
		}
		return nil, mapError(err, f.ID)
	}

	s.logger.Info("file uploaded",
		"id", created.ID,
		"user_id", created.UserID,
		"slides", created.SlideCount,
		"size", created.SizeBytes,
		"storage_key", created.StorageKey,
	)
	return created, nil
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (*File, error) {
	f, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, mapError(err, id)
	}
	return f, nil
}

func (s *system) Data(ctx context.Context, f *File) ([]byte, error) {
	data, err := s.blobs.Retrieve(ctx, f.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.Wrap(apperror.CodeFileNotFound, err, "file blob missing").
				WithDetail("fileId", f.ID.String())
		}
		return nil, apperror.Wrap(apperror.CodeInternal, err, fmt.Sprintf("retrieve %s", f.StorageKey))
	}
	return data, nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("files/%s/%s", id.String(), SanitizeFilename(filename))
}

// SanitizeFilename reduces name to a single path element safe for storage keys.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	replacer := strings.NewReplacer(
		" ", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "upload.pptx"
	}
	return name
}
