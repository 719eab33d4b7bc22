package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/deck-translate/pkg/middleware"
)

func TestSystem_Order(t *testing.T) {
	mw := middleware.New()

	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	mw.Use(tag("first"))
	mw.Use(tag("second"))

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "first,second,handler" {
		t.Errorf("order = %s", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/jobs?x=1", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"request", "POST", "/api/jobs?x=1", "status=202", "duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestTrimSlash(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		code     int
		redirect string
	}{
		{http.MethodGet, "/api/jobs/", http.StatusMovedPermanently, "/api/jobs"},
		{http.MethodGet, "/api/jobs/?a=b", http.StatusMovedPermanently, "/api/jobs?a=b"},
		{http.MethodHead, "/api/jobs//", http.StatusMovedPermanently, "/api/jobs"},
		{http.MethodPost, "/api/files/", http.StatusPermanentRedirect, "/api/files"},
		{http.MethodGet, "/", http.StatusOK, ""},
		{http.MethodGet, "/api/jobs", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			handler := middleware.TrimSlash()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if loc := w.Header().Get("Location"); loc != tt.redirect {
				t.Errorf("Location = %q, want %q", loc, tt.redirect)
			}
		})
	}
}
