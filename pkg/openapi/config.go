package openapi

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	defaultTitle       = "Deck Translate API"
	defaultDescription = "Upload slide decks, translate their text, and download the translated deck."
)

// Config is the document metadata rendered into the info and servers blocks.
type Config struct {
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Servers     []string `toml:"servers"`
}

// ConfigEnv names the variables that override Config. Servers is read as a
// comma-separated list.
type ConfigEnv struct {
	Title       string
	Description string
	Servers     string
}

func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = defaultTitle
	}
	if c.Description == "" {
		c.Description = defaultDescription
	}

	if env != nil {
		setFromEnv(&c.Title, env.Title)
		setFromEnv(&c.Description, env.Description)

		var servers string
		setFromEnv(&servers, env.Servers)
		if servers != "" {
			c.Servers = splitList(servers)
		}
	}

	for _, s := range c.Servers {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme == "" && !strings.HasPrefix(u.Path, "/")) {
			return fmt.Errorf("invalid server url %q", s)
		}
	}
	return nil
}

// Merge applies the non-empty fields of overlay. A non-empty server list
// replaces the current one.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if len(overlay.Servers) > 0 {
		c.Servers = append([]string(nil), overlay.Servers...)
	}
}

// Apply writes the metadata onto spec.
func (c *Config) Apply(spec *Spec) {
	spec.Info.Title = c.Title
	spec.SetDescription(c.Description)
	for _, s := range c.Servers {
		spec.AddServer(s)
	}
}

func setFromEnv(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
