package files

import "github.com/JaimeStill/deck-translate/pkg/openapi"

type spec struct {
	Upload  *openapi.Operation
	Find    *openapi.Operation
	Schemas map[string]*openapi.Schema
}

// Spec documents the file endpoints.
var Spec = spec{
	Upload: &openapi.Operation{
		Summary:     "Upload deck",
		Description: "Upload a .pptx deck with an optional display name. Slides are counted on upload.",
		Parameters: []*openapi.Parameter{
			openapi.HeaderParam("X-User-ID", "Caller identity"),
		},
		RequestBody: openapi.RequestBodyMultipart(map[string]*openapi.Property{
			"file": {Type: "string", Format: "binary", Description: "Deck to upload"},
			"name": {Type: "string", Description: "Optional display name (defaults to filename)"},
		}, "file"),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Deck uploaded", "File"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseJSON("File too large", "ErrorResponse"),
			415: openapi.ResponseJSON("Unsupported file type", "ErrorResponse"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find file",
		Description: "Find an uploaded deck by ID",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "File ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("File details", "File"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"File": {
			Type: "object",
			Properties: map[string]*openapi.Property{
				"id":           {Type: "string", Format: "uuid"},
				"user_id":      {Type: "string"},
				"name":         {Type: "string"},
				"filename":     {Type: "string"},
				"content_type": {Type: "string"},
				"size_bytes":   {Type: "integer", Format: "int64"},
				"slide_count":  {Type: "integer"},
				"storage_key":  {Type: "string"},
				"content_hash": {Type: "string", Description: "SHA-256 of the upload"},
				"created_at":   {Type: "string", Format: "date-time"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
	},
}
