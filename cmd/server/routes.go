package main

import (
	"net/http"

	"github.com/JaimeStill/deck-translate/internal/api"
	"github.com/JaimeStill/deck-translate/internal/infrastructure"
)

// readiness reports whether startup hooks have completed.
type readiness interface {
	Ready() bool
}

func buildRouter(infra *infrastructure.Infrastructure, apiModule *api.Module) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealthCheck)
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		handleReadinessCheck(w, infra.Lifecycle)
	})
	mux.Handle("/", apiModule.Handler)

	return mux
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, ready readiness) {
	if !ready.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
