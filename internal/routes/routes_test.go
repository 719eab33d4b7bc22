package routes_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/deck-translate/internal/routes"
	"github.com/JaimeStill/deck-translate/pkg/openapi"
	pkgroutes "github.com/JaimeStill/deck-translate/pkg/routes"
)

func echo(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body+":"+r.PathValue("id"))
	}
}

func TestBuild(t *testing.T) {
	spec := openapi.NewSpec("test", "v0")
	sys := routes.New(spec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sys.RegisterRoute(pkgroutes.Route{Method: "GET", Pattern: "/healthz", Handler: echo("health")})
	sys.RegisterGroup(pkgroutes.Group{
		Prefix: "/jobs",
		Tags:   []string{"Jobs"},
		Routes: []pkgroutes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: echo("job"), OpenAPI: &openapi.Operation{Summary: "find"}},
		},
		Children: []pkgroutes.Group{{
			Prefix: "/{id}/output",
			Routes: []pkgroutes.Route{{Method: "GET", Pattern: "", Handler: echo("output")}},
		}},
	})

	h := sys.Build()

	tests := []struct {
		path string
		want string
		code int
	}{
		{"/healthz", "health:", http.StatusOK},
		{"/jobs/abc", "job:abc", http.StatusOK},
		{"/jobs/abc/output", "output:abc", http.StatusOK},
		{"/missing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d", rec.Code, tt.code)
			}
			if tt.want != "" && rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}

	item, ok := spec.Paths["/jobs/{id}"]
	if !ok || item.Get == nil {
		t.Fatal("operation not documented")
	}
	if len(item.Get.Tags) != 1 || item.Get.Tags[0] != "Jobs" {
		t.Errorf("tags = %v", item.Get.Tags)
	}
	if _, ok := spec.Paths["/healthz"]; ok {
		t.Error("route without OpenAPI documented")
	}
}
