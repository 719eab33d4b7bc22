package jobs

import "github.com/JaimeStill/deck-translate/pkg/openapi"

type spec struct {
	List     *openapi.Operation
	Start    *openapi.Operation
	Status   *openapi.Operation
	Output   *openapi.Operation
	Cancel   *openapi.Operation
	Activity *openapi.Operation
	Schemas  map[string]*openapi.Schema
}

var (
	idParam   = openapi.PathParam("id", "Job ID")
	userParam = openapi.HeaderParam("X-User-ID", "Caller identity")
)

// Spec documents the job endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List jobs",
		Description: "List the caller's jobs, newest first",
		Parameters: []*openapi.Parameter{
			userParam,
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Items per page", false),
			openapi.QueryParam("sort", "string", "Comma-separated fields, '-' prefix for descending", false),
			openapi.QueryParam("status", "string", "Filter by status", false),
			openapi.QueryParam("language", "string", "Filter by target language", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Jobs page", "JobPage"),
		},
	},
	Start: &openapi.Operation{
		Summary:     "Start translation",
		Description: "Create a job translating an uploaded deck. The job runs asynchronously; poll its status.",
		Parameters:  []*openapi.Parameter{userParam},
		RequestBody: openapi.RequestBodyJSON("StartRequest", true),
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Job accepted", "StartResponse"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			429: openapi.ResponseRef("TooManyRequests"),
		},
	},
	Status: &openapi.Operation{
		Summary:     "Job status",
		Description: "Current status, progress counters, and failure of a job",
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Job status", "JobStatus"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Output: &openapi.Operation{
		Summary:     "Download output",
		Description: "Download the translated deck of a completed job",
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("Translated deck", "application/vnd.openxmlformats-officedocument.presentationml.presentation"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Cancel: &openapi.Operation{
		Summary:     "Cancel job",
		Description: "Stop dispatching translation batches. Units already translated are kept and the partial deck is produced.",
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Cancellation requested", "StartResponse"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Activity: &openapi.Operation{
		Summary:     "Job activity",
		Description: "Audit trail of transitions and failures for a job",
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Activity records", "ActivityList"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"StartRequest": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"file_id":         {Type: "string", Format: "uuid"},
				"target_language": {Type: "string", Example: "es"},
			},
			Required: []string{"file_id", "target_language"},
		},
		"StartResponse": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"job_id": {Type: "string", Format: "uuid"},
			},
		},
		"JobStatus": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"id":              {Type: "string", Format: "uuid"},
				"status":          {Type: "string", Enum: statusNames(), Example: "translating"},
				"target_language": {Type: "string"},
				"units_processed": {Type: "integer"},
				"units_total":     {Type: "integer"},
				"translated":      {Type: "integer"},
				"fallback":        {Type: "integer"},
				"cancelled":       {Type: "boolean"},
				"error":           openapi.PropertyRef("JobError", "Present when the job failed"),
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"JobError": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"code":                {Type: "string", Example: "RATE_LIMIT_EXCEEDED"},
				"message":             {Type: "string"},
				"retry_after_seconds": {Type: "integer", Nullable: true},
			},
			Required: []string{"code", "message"},
		},
		"Job": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"id":              {Type: "string", Format: "uuid"},
				"file_id":         {Type: "string", Format: "uuid"},
				"user_id":         {Type: "string"},
				"target_language": {Type: "string"},
				"status":          {Type: "string", Enum: statusNames()},
				"slide_count":     {Type: "integer"},
				"units_processed": {Type: "integer"},
				"units_total":     {Type: "integer"},
				"translated":      {Type: "integer"},
				"fallback":        {Type: "integer"},
				"cancelled":       {Type: "boolean"},
				"error_code":      {Type: "string"},
				"error_message":   {Type: "string"},
				"created_at":      {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
				"started_at":      {Type: "string", Format: "date-time", Nullable: true},
				"completed_at":    {Type: "string", Format: "date-time", Nullable: true},
			},
		},
		"JobPage": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"data":        openapi.ArrayOf("Job", "Jobs"),
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
				"has_next":    {Type: "boolean"},
			},
		},
		"Activity": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"id":         {Type: "integer"},
				"job_id":     {Type: "string", Format: "uuid"},
				"level":      {Type: "string", Enum: []string{LevelInfo, LevelWarn, LevelError}},
				"event":      {Type: "string"},
				"code":       {Type: "string"},
				"message":    {Type: "string"},
				"details":    {Type: "object"},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"ActivityList": {
			Type:  "array",
			Items: openapi.SchemaRef("Activity"),
		},
	},
}

func statusNames() []string {
	return []string{
		string(StatusUploaded), string(StatusExtracting), string(StatusExtracted),
		string(StatusTranslating), string(StatusCompleted), string(StatusFailed),
	}
}
