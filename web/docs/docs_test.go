package docs_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/deck-translate/web/docs"
)

func TestHandler(t *testing.T) {
	h, err := docs.NewHandler("Deck Translate API", "/api/openapi.json")
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	group := h.Routes()
	if group.Prefix != "/docs" || len(group.Routes) != 1 {
		t.Fatalf("group = %+v", group)
	}

	rec := httptest.NewRecorder()
	group.Routes[0].Handler(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(body, `data-url="/api/openapi.json"`) {
		t.Errorf("spec url missing: %s", body)
	}
	if !strings.Contains(body, "<title>Deck Translate API</title>") {
		t.Errorf("title missing: %s", body)
	}
}
