package schema

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ServiceConfig defines defaults and limits for the core service.
type ServiceConfig struct {
	// StateDir holds the persisted organization hierarchy.
	StateDir string
	// HomeURL is the destination of a fresh default tab.
	HomeURL string
	// SearchTemplate builds search URLs from non-URL input. It must contain
	// the {query} placeholder.
	SearchTemplate string
	// PersistInterval debounces organization-store writes.
	PersistInterval time.Duration
	// RestoreOnStart rebinds persisted placements to fresh tabs at startup.
	RestoreOnStart bool
}

// DefaultSearchTemplate is used when no search engine is configured.
const DefaultSearchTemplate = "https://duckduckgo.com/?q={query}"

// DefaultPersistInterval debounces organization-store writes.
const DefaultPersistInterval = 500 * time.Millisecond

// SearchQueryPlaceholder is substituted with the percent-encoded query.
const SearchQueryPlaceholder = "{query}"

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".graphite", "state")
	}
	if cfg.HomeURL == "" {
		cfg.HomeURL = NewTabURL
	}
	if strings.TrimSpace(cfg.SearchTemplate) == "" {
		cfg.SearchTemplate = DefaultSearchTemplate
	}
	if !strings.Contains(cfg.SearchTemplate, SearchQueryPlaceholder) {
		return ServiceConfig{}, ErrInvalidSearchTemplate
	}
	if cfg.PersistInterval <= 0 {
		cfg.PersistInterval = DefaultPersistInterval
	}
	return cfg, nil
}
