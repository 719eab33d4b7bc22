package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeReady bool

func (f fakeReady) Ready() bool { return bool(f) }

func TestHandleReadinessCheck(t *testing.T) {
	tests := []struct {
		ready bool
		code  int
		body  string
	}{
		{true, http.StatusOK, "READY"},
		{false, http.StatusServiceUnavailable, "NOT READY"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleReadinessCheck(rec, fakeReady(tt.ready))
		if rec.Code != tt.code || rec.Body.String() != tt.body {
			t.Errorf("ready=%v: got %d %q", tt.ready, rec.Code, rec.Body.String())
		}
	}
}

func TestHandleHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
