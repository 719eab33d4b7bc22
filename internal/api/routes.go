package api

import (
	"github.com/JaimeStill/deck-translate/internal/files"
	"github.com/JaimeStill/deck-translate/internal/jobs"
	"github.com/JaimeStill/deck-translate/pkg/openapi"
	"github.com/JaimeStill/deck-translate/pkg/routes"
)

func registerRoutes(r routes.System, spec *openapi.Spec, runtime *Runtime, domain *Domain, basePath string) {
	filesHandler := files.NewHandler(domain.Files, runtime.Logger, runtime.Environment)
	jobsHandler := jobs.NewHandler(domain.Jobs, runtime.Logger, runtime.Environment, runtime.Pagination)

	r.RegisterGroup(routes.Group{
		Prefix: basePath,
		Children: []routes.Group{
			filesHandler.Routes(),
			jobsHandler.Routes(),
		},
	})

	spec.Components.AddSchemas(files.Spec.Schemas)
	spec.Components.AddSchemas(jobs.Spec.Schemas)
}
