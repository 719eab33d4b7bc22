package files

import (
	"errors"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

var (
	ErrNotFound  = errors.New("file not found")
	ErrDuplicate = errors.New("file already exists")
)

// mapError converts store errors into the error taxonomy.
func mapError(err error, id uuid.UUID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperror.Wrap(apperror.CodeFileNotFound, err, "file not found").
			WithDetail("fileId", id.String())
	case errors.Is(err, ErrDuplicate):
		return apperror.Wrap(apperror.CodeConflict, err, "file already exists").
			WithDetail("fileId", id.String())
	}

	classified := apperror.Classify(err)
	if classified.Code == apperror.CodeUnknown {
		return apperror.Wrap(apperror.CodeDatabase, err, "file store failed")
	}
	return classified
}
