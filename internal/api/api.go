// Package api assembles the HTTP API: domain systems, their routes, the
// generated OpenAPI document, and the API middleware stack.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/infrastructure"
	"github.com/JaimeStill/deck-translate/internal/routes"
	"github.com/JaimeStill/deck-translate/pkg/middleware"
	"github.com/JaimeStill/deck-translate/pkg/openapi"
	"github.com/JaimeStill/deck-translate/web/docs"
)

// Module is the mounted API.
type Module struct {
	Runtime *Runtime
	Domain  *Domain
	Handler http.Handler
}

// NewModule builds the API module. The OpenAPI document is generated from
// the registered routes and served at {base_path}/openapi.json, with an
// interactive reference at /docs.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	cfg.API.OpenAPI.Apply(spec)

	docsHandler, err := docs.NewHandler(cfg.API.OpenAPI.Title, cfg.API.BasePath+"/openapi.json")
	if err != nil {
		return nil, fmt.Errorf("docs: %w", err)
	}

	routeSys := routes.New(spec, runtime.Logger)
	registerRoutes(routeSys, spec, runtime, domain, cfg.API.BasePath)
	routeSys.RegisterGroup(docsHandler.Routes())
	mux := routeSys.Build()

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi: %w", err)
	}

	root := http.NewServeMux()
	root.Handle("/", mux)
	root.HandleFunc("GET "+cfg.API.BasePath+"/openapi.json", openapi.ServeSpec(specBytes))

	mw := middleware.New()
	mw.Use(middleware.TrimSlash())
	mw.Use(middleware.Logger(runtime.Logger))

	return &Module{
		Runtime: runtime,
		Domain:  domain,
		Handler: mw.Apply(root),
	}, nil
}

// Start starts the domain systems.
func (m *Module) Start() error {
	return m.Domain.Start(m.Runtime)
}
