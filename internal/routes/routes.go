// Package routes builds the API multiplexer from registered route groups
// and documents each operation in the OpenAPI spec as it is mounted.
package routes

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/deck-translate/pkg/openapi"
	pkgroutes "github.com/JaimeStill/deck-translate/pkg/routes"
)

type routes struct {
	routes []pkgroutes.Route
	groups []pkgroutes.Group
	spec   *openapi.Spec
	logger *slog.Logger
}

// New creates a route system. When spec is non-nil, routes carrying an
// OpenAPI operation are documented in it.
func New(spec *openapi.Spec, logger *slog.Logger) pkgroutes.System {
	return &routes{
		spec:   spec,
		logger: logger.With("system", "routes"),
		groups: []pkgroutes.Group{},
		routes: []pkgroutes.Route{},
	}
}

func (r *routes) Groups() []pkgroutes.Group {
	return r.groups
}

func (r *routes) Routes() []pkgroutes.Route {
	return r.routes
}

// RegisterRoute adds an ungrouped route.
func (r *routes) RegisterRoute(route pkgroutes.Route) {
	r.routes = append(r.routes, route)
}

// RegisterGroup adds a route group.
func (r *routes) RegisterGroup(group pkgroutes.Group) {
	r.groups = append(r.groups, group)
}

// Build constructs a ServeMux from all registered routes and groups.
func (r *routes) Build() http.Handler {
	mux := http.NewServeMux()

	for _, route := range r.routes {
		r.handle(mux, route.Pattern, nil, route)
	}

	for _, group := range r.groups {
		group.Walk("", func(pattern string, tags []string, route pkgroutes.Route) {
			r.handle(mux, pattern, tags, route)
		})
	}

	return mux
}

func (r *routes) handle(mux *http.ServeMux, pattern string, tags []string, route pkgroutes.Route) {
	mux.HandleFunc(route.Method+" "+pattern, route.Handler)
	r.logger.Debug("route registered", "method", route.Method, "pattern", pattern)

	if r.spec == nil || route.OpenAPI == nil {
		return
	}
	op := *route.OpenAPI
	if len(op.Tags) == 0 {
		op.Tags = tags
	}
	r.spec.AddOperation(pattern, route.Method, &op)
}
