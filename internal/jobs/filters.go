package jobs

import (
	"net/url"
	"strings"

	"github.com/JaimeStill/deck-translate/pkg/pagination"
	"github.com/JaimeStill/deck-translate/pkg/query"
)

var projection = query.NewProjectionMap("public", "jobs", "j").
	Project("id", "ID").
	Project("file_id", "FileID").
	Project("user_id", "UserID").
	Project("target_language", "TargetLanguage").
	Project("status", "Status").
	Project("slide_count", "SlideCount").
	Project("units_processed", "UnitsProcessed").
	Project("units_total", "UnitsTotal").
	Project("translated", "Translated").
	Project("fallback", "Fallback").
	Project("cancelled", "Cancelled").
	Project("error_code", "ErrorCode").
	Project("error_message", "ErrorMessage").
	Project("retry_after_seconds", "RetryAfterSeconds").
	Project("output_key", "OutputKey").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Page is one page of jobs.
type Page = pagination.PageResult[Job]

// Filter narrows a job listing. Nil fields are not applied.
type Filter struct {
	UserID         *string
	Status         *Status
	TargetLanguage *string
	Page           pagination.PageRequest
}

// FilterFromQuery reads status, language, and paging parameters.
func FilterFromQuery(values url.Values, cfg pagination.Config) Filter {
	f := Filter{Page: pagination.PageRequestFromQuery(values, cfg)}

	if s := values.Get("status"); s != "" {
		st := Status(strings.ToLower(s))
		f.Status = &st
	}
	if l := values.Get("language"); l != "" {
		lang := strings.ToLower(l)
		f.TargetLanguage = &lang
	}
	return f
}

// Apply adds filter conditions to the query builder.
func (f Filter) Apply(b *query.Builder) *query.Builder {
	if f.UserID != nil {
		b.WhereEquals("UserID", *f.UserID)
	}
	if f.Status != nil {
		b.WhereEquals("Status", string(*f.Status))
	}
	if f.TargetLanguage != nil {
		b.WhereEquals("TargetLanguage", *f.TargetLanguage)
	}
	return b
}

func (f Filter) matches(j *Job) bool {
	if f.UserID != nil && j.UserID != *f.UserID {
		return false
	}
	if f.Status != nil && j.Status != *f.Status {
		return false
	}
	if f.TargetLanguage != nil && j.TargetLanguage != *f.TargetLanguage {
		return false
	}
	return true
}
