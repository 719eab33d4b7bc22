// Package storage provides blob storage for uploaded decks and generated
// outputs. Keys are slash-separated relative paths such as
// "files/{id}/deck.pptx".
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

// Storage errors returned by System implementations.
var (
	ErrNotFound = errors.New("storage: key not found")
	// ErrInvalidKey covers empty keys and path traversal attempts.
	ErrInvalidKey       = errors.New("storage: invalid key")
	ErrPermissionDenied = errors.New("storage: permission denied")
)

// System stores and retrieves blobs by key.
type System interface {
	// Store saves data at key, overwriting any existing blob.
	Store(ctx context.Context, key string, data []byte) error
	// Retrieve returns the blob at key or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)
	// Delete removes the blob at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Validate reports whether key exists.
	Validate(ctx context.Context, key string) (bool, error)
	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// New creates the storage system selected by cfg.Driver.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.BasePath, logger)
	case DriverMinio:
		return NewMinio(&cfg.Minio, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
