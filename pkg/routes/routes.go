// Package routes declares HTTP route groups. Domain handlers describe their
// endpoints as a Group; a System turns the registered groups into a handler.
package routes

import (
	"net/http"

	"github.com/JaimeStill/deck-translate/pkg/openapi"
)

// Route is a single endpoint. Pattern is relative to the enclosing group
// and uses net/http wildcard syntax, e.g. "/{id}/output".
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group is a set of routes under a shared prefix. Children are mounted
// below the group's prefix and inherit its tags when they declare none.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
}

// Walk calls fn for every route in g and its children with the full
// pattern and the effective tags.
func (g Group) Walk(prefix string, fn func(pattern string, tags []string, route Route)) {
	g.walk(prefix, nil, fn)
}

func (g Group) walk(prefix string, inherited []string, fn func(string, []string, Route)) {
	full := prefix + g.Prefix
	tags := g.Tags
	if len(tags) == 0 {
		tags = inherited
	}

	for _, r := range g.Routes {
		fn(full+r.Pattern, tags, r)
	}
	for _, child := range g.Children {
		child.walk(full, tags, fn)
	}
}

// System collects groups and builds the request multiplexer.
type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)
	Build() http.Handler
	Groups() []Group
	Routes() []Route
}
