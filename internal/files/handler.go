package files

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/handlers"
	"github.com/JaimeStill/deck-translate/pkg/routes"
)

// multipartOverhead allows for form boundaries and the name field on top of the file limit.
const multipartOverhead = 1 << 20

// Handler provides HTTP endpoints for file uploads.
type Handler struct {
	sys    System
	logger *slog.Logger
	env    apperror.Environment
}

// NewHandler creates a file handler.
func NewHandler(sys System, logger *slog.Logger, env apperror.Environment) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "files"),
		env:    env,
	}
}

// Routes returns the file endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/files",
		Tags:        []string{"Files"},
		Description: "Source deck upload",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload, OpenAPI: Spec.Upload},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
		},
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.sys.MaxUploadSize()
	if r.ContentLength > limit+multipartOverhead {
		h.fail(w, apperror.Newf(apperror.CodeFileTooLarge, "request body of %d bytes exceeds upload limit", r.ContentLength).
			WithDetail("maxBytes", limit))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, apperror.Wrap(apperror.CodeFileTooLarge, err, "request body exceeds upload limit").
				WithDetail("maxBytes", limit))
			return
		}
		h.fail(w, apperror.Wrap(apperror.CodeValidation, err, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, apperror.Wrap(apperror.CodeValidation, err, "missing file field").
			WithUserMessage("A file is required."))
		return
	}
	defer file.Close()

	if header.Size > limit {
		h.fail(w, apperror.Newf(apperror.CodeFileTooLarge, "upload of %d bytes exceeds limit", header.Size).
			WithDetail("maxBytes", limit))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, apperror.Wrap(apperror.CodeValidation, err, "read upload"))
		return
	}

	f, err := h.sys.Upload(r.Context(), UploadCommand{
		UserID:      handlers.UserID(r),
		Name:        r.FormValue("name"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, f)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, apperror.Wrap(apperror.CodeInvalidInput, err, "invalid file id"))
		return
	}

	f, err := h.sys.Find(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, f)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, h.env, err)
}
