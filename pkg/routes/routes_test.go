package routes_test

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/deck-translate/pkg/routes"
)

func TestGroup_Walk(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	g := routes.Group{
		Prefix: "/api",
		Children: []routes.Group{
			{
				Prefix: "/jobs",
				Tags:   []string{"Jobs"},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{id}", Handler: noop},
					{Method: "POST", Pattern: "/{id}/cancel", Handler: noop},
				},
				Children: []routes.Group{
					{Prefix: "/{id}/activity", Routes: []routes.Route{{Method: "GET", Handler: noop}}},
				},
			},
		},
	}

	var got []string
	g.Walk("", func(pattern string, tags []string, r routes.Route) {
		got = append(got, r.Method+" "+pattern+" "+strings.Join(tags, ","))
	})

	want := []string{
		"GET /api/jobs/{id} Jobs",
		"POST /api/jobs/{id}/cancel Jobs",
		"GET /api/jobs/{id}/activity Jobs",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Walk visited %v, want %v", got, want)
	}
}
