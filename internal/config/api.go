package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/deck-translate/pkg/openapi"
	"github.com/JaimeStill/deck-translate/pkg/pagination"
)

const basePathEnv = "API_BASE_PATH"

var (
	paginationEnv = &pagination.Env{
		DefaultPageSize: "API_PAGINATION_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "API_PAGINATION_MAX_PAGE_SIZE",
	}
	openAPIEnv = &openapi.ConfigEnv{
		Title:       "API_OPENAPI_TITLE",
		Description: "API_OPENAPI_DESCRIPTION",
		Servers:     "API_OPENAPI_SERVERS",
	}
)

// APIConfig covers the route tree mounted under BasePath.
type APIConfig struct {
	BasePath   string            `toml:"base_path"`
	OpenAPI    openapi.Config    `toml:"openapi"`
	Pagination pagination.Config `toml:"pagination"`
}

func (c *APIConfig) Finalize() error {
	if v := os.Getenv(basePathEnv); v != "" {
		c.BasePath = v
	}
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if c.BasePath == "/" {
		return fmt.Errorf("base_path must not be the root path")
	}

	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.OpenAPI.Merge(&overlay.OpenAPI)
	c.Pagination.Merge(&overlay.Pagination)
}
