package jobs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/handlers"
	"github.com/JaimeStill/deck-translate/pkg/pagination"
	"github.com/JaimeStill/deck-translate/pkg/routes"
)

// StartRequest is the body of POST /jobs.
type StartRequest struct {
	FileID         uuid.UUID `json:"file_id"`
	TargetLanguage string    `json:"target_language"`
}

// StartResponse is returned when a job is accepted.
type StartResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

// Handler provides HTTP endpoints for translation jobs.
type Handler struct {
	sys        System
	logger     *slog.Logger
	env        apperror.Environment
	pagination pagination.Config
}

// NewHandler creates a job handler.
func NewHandler(sys System, logger *slog.Logger, env apperror.Environment, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "jobs"),
		env:        env,
		pagination: pagination,
	}
}

// Routes returns the job endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/jobs",
		Tags:        []string{"Jobs"},
		Description: "Deck translation jobs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Start, OpenAPI: Spec.Start},
			{Method: "GET", Pattern: "/{id}", Handler: h.Status, OpenAPI: Spec.Status},
			{Method: "GET", Pattern: "/{id}/output", Handler: h.Output, OpenAPI: Spec.Output},
			{Method: "POST", Pattern: "/{id}/cancel", Handler: h.Cancel, OpenAPI: Spec.Cancel},
			{Method: "GET", Pattern: "/{id}/activity", Handler: h.Activity, OpenAPI: Spec.Activity},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := FilterFromQuery(r.URL.Query(), h.pagination)
	user := handlers.UserID(r)
	filter.UserID = &user

	page, err := h.sys.List(r.Context(), filter)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, page)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, apperror.Wrap(apperror.CodeValidation, err, "invalid request body"))
		return
	}
	if req.FileID == uuid.Nil {
		h.fail(w, apperror.New(apperror.CodeValidation, "file_id required").
			WithUserMessage("A file is required."))
		return
	}

	id, err := h.sys.StartTranslation(r.Context(), req.FileID, handlers.UserID(r), req.TargetLanguage)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", r.URL.Path, id))
	handlers.RespondJSON(w, http.StatusAccepted, StartResponse{JobID: id})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	status, err := h.sys.GetJobStatus(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}

func (h *Handler) Output(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	data, filename, err := h.sys.GetOutput(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Cancel(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, StartResponse{JobID: id})
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	acts, err := h.sys.Activity(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, acts)
}

func (h *Handler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, apperror.Wrap(apperror.CodeInvalidInput, err, "invalid job id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, h.env, err)
}
