// Package jobs orchestrates translation jobs through extraction, batched
// translation, and reassembly. The orchestrator is the only writer of job
// state; workers return results and errors and never touch the store.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is a single translation of one file into one target language.
type Job struct {
	ID                uuid.UUID  `json:"id"`
	FileID            uuid.UUID  `json:"file_id"`
	UserID            string     `json:"user_id"`
	TargetLanguage    string     `json:"target_language"`
	Status            Status     `json:"status"`
	SlideCount        int        `json:"slide_count"`
	UnitsProcessed    int        `json:"units_processed"`
	UnitsTotal        int        `json:"units_total"`
	Translated        int        `json:"translated"`
	Fallback          int        `json:"fallback"`
	Cancelled         bool       `json:"cancelled"`
	ErrorCode         string     `json:"error_code,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	RetryAfterSeconds *int       `json:"retry_after_seconds,omitempty"`
	OutputKey         string     `json:"output_key,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// JobError is the user-facing failure attached to a job status.
type JobError struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds *int   `json:"retry_after_seconds,omitempty"`
}

// JobStatus is the polling view of a job.
type JobStatus struct {
	ID             uuid.UUID `json:"id"`
	Status         Status    `json:"status"`
	TargetLanguage string    `json:"target_language"`
	UnitsProcessed int       `json:"units_processed"`
	UnitsTotal     int       `json:"units_total"`
	Translated     int       `json:"translated"`
	Fallback       int       `json:"fallback"`
	Cancelled      bool      `json:"cancelled"`
	Error          *JobError `json:"error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// View projects j into its polling view.
func (j *Job) View() *JobStatus {
	s := &JobStatus{
		ID:             j.ID,
		Status:         j.Status,
		TargetLanguage: j.TargetLanguage,
		UnitsProcessed: j.UnitsProcessed,
		UnitsTotal:     j.UnitsTotal,
		Translated:     j.Translated,
		Fallback:       j.Fallback,
		Cancelled:      j.Cancelled,
		UpdatedAt:      j.UpdatedAt,
	}
	if j.ErrorCode != "" {
		s.Error = &JobError{
			Code:              j.ErrorCode,
			Message:           j.ErrorMessage,
			RetryAfterSeconds: j.RetryAfterSeconds,
		}
	}
	return s
}

// Activity levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Activity is one audit record for a job.
type Activity struct {
	ID        int64           `json:"id"`
	JobID     uuid.UUID       `json:"job_id"`
	Level     string          `json:"level"`
	Event     string          `json:"event"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Patch carries the fields written alongside a status transition.
// Nil fields are left unchanged.
type Patch struct {
	UnitsTotal        *int
	UnitsProcessed    *int
	Translated        *int
	Fallback          *int
	Cancelled         *bool
	ErrorCode         *string
	ErrorMessage      *string
	RetryAfterSeconds *int
	OutputKey         *string
}

func (p Patch) apply(j *Job) {
	if p.UnitsTotal != nil {
		j.UnitsTotal = *p.UnitsTotal
	}
	if p.UnitsProcessed != nil {
		j.UnitsProcessed = *p.UnitsProcessed
	}
	if p.Translated != nil {
		j.Translated = *p.Translated
	}
	if p.Fallback != nil {
		j.Fallback = *p.Fallback
	}
	if p.Cancelled != nil {
		j.Cancelled = *p.Cancelled
	}
	if p.ErrorCode != nil {
		j.ErrorCode = *p.ErrorCode
	}
	if p.ErrorMessage != nil {
		j.ErrorMessage = *p.ErrorMessage
	}
	if p.RetryAfterSeconds != nil {
		n := *p.RetryAfterSeconds
		j.RetryAfterSeconds = &n
	}
	if p.OutputKey != nil {
		j.OutputKey = *p.OutputKey
	}
}

func ptr[T any](v T) *T {
	return &v
}
