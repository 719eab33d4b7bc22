// Package files stores uploaded source decks. Metadata is persisted through a
// Store and the bytes through pkg/storage; jobs read sources back by ID.
package files

import (
	"time"

	"github.com/google/uuid"
)

// ContentType is the media type recorded for every accepted upload.
const ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// File is an uploaded source deck.
type File struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SlideCount  int       `json:"slide_count"`
	StorageKey  string    `json:"storage_key"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UploadCommand contains an uploaded deck and its metadata.
// Name defaults to Filename when empty.
type UploadCommand struct {
	UserID      string
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}
