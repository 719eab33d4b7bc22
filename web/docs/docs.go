// Package docs serves the interactive API reference for the generated
// OpenAPI document.
package docs

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/deck-translate/pkg/routes"
)

//go:embed index.html
var indexHTML string

var index = template.Must(template.New("docs").Parse(indexHTML))

// Handler serves the API reference page.
type Handler struct {
	page []byte
}

// NewHandler renders the reference page for the OpenAPI document served at specURL.
func NewHandler(title, specURL string) (*Handler, error) {
	var buf bytes.Buffer
	err := index.Execute(&buf, struct {
		Title   string
		SpecURL string
	}{title, specURL})
	if err != nil {
		return nil, err
	}
	return &Handler{page: buf.Bytes()}, nil
}

// Routes returns the route group for documentation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/docs",
		Tags:        []string{"Documentation"},
		Description: "Interactive API reference",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.serveIndex},
		},
	}
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.page)
}
