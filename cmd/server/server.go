package main

import (
	"time"

	"github.com/JaimeStill/deck-translate/internal/api"
	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/infrastructure"
	"github.com/JaimeStill/deck-translate/internal/server"
)

// Server wires infrastructure, the API module, and the HTTP listener under
// one lifecycle.
type Server struct {
	infra *infrastructure.Infrastructure
	api   *api.Module
	http  server.System
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	module, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info("server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"environment", cfg.Environment,
		"storage", cfg.Storage.Driver,
	)

	return &Server{
		infra: infra,
		api:   module,
		http:  server.New(&cfg.Server, buildRouter(infra, module), infra.Logger),
	}, nil
}

// Start brings up infrastructure, then the orchestrator, then the listener.
// It returns as soon as the listener is bound; readiness follows once every
// startup hook has finished.
func (s *Server) Start() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"infrastructure", s.infra.Start},
		{"api", s.api.Start},
		{"http", func() error { return s.http.Start(s.infra.Lifecycle) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			s.infra.Logger.Error("start failed", "step", step.name, "error", err)
			return err
		}
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		return err
	}
	s.infra.Logger.Info("service stopped")
	return nil
}
