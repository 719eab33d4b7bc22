package api

import (
	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/infrastructure"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	Environment apperror.Environment
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Environment:    cfg.ErrorEnvironment(),
	}
}
