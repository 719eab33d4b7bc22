package files

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/JaimeStill/deck-translate/internal/deck/pptx"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

var zipSignature = []byte("PK\x03\x04")

// Inspect validates an upload and derives its metadata. The returned File
// has no ID or storage key yet.
func Inspect(cmd UploadCommand, maxSize int64) (*File, error) {
	size := int64(len(cmd.Data))
	if size == 0 {
		return nil, apperror.New(apperror.CodeValidation, "empty upload").
			WithUserMessage("The uploaded file is empty.")
	}
	if maxSize > 0 && size > maxSize {
		return nil, apperror.Newf(apperror.CodeFileTooLarge, "upload of %s exceeds %s",
			units.HumanSize(float64(size)), units.HumanSize(float64(maxSize))).
			WithDetail("sizeBytes", size).
			WithDetail("maxBytes", maxSize)
	}

	ext := strings.ToLower(filepath.Ext(cmd.Filename))
	if !bytes.HasPrefix(cmd.Data, zipSignature) || (ext != ".pptx" && cmd.ContentType != ContentType) {
		return nil, apperror.New(apperror.CodeUnsupportedFileType, "not a pptx upload").
			WithDetail("filename", cmd.Filename).
			WithDetail("contentType", cmd.ContentType)
	}

	d, err := pptx.Open(cmd.Data)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnsupportedFileType, err, "archive is not a presentation").
			WithDetail("filename", cmd.Filename)
	}

	sum := sha256.Sum256(cmd.Data)

	name := cmd.Name
	if name == "" {
		name = cmd.Filename
	}

	return &File{
		UserID:      cmd.UserID,
		Name:        name,
		Filename:    cmd.Filename,
		ContentType: ContentType,
		SizeBytes:   size,
		SlideCount:  d.SlideCount(),
		ContentHash: hex.EncodeToString(sum[:]),
	}, nil
}
