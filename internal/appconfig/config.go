package appconfig

import (
	"os"
	"path/filepath"

	"github.com/graphitebrowser/graphite/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string       `mapstructure:"state_dir" yaml:"state_dir"`
	HomeURL       string       `mapstructure:"home_url" yaml:"home_url"`
	Search        SearchConfig `mapstructure:"search" yaml:"search"`
	Engine        EngineConfig `mapstructure:"engine" yaml:"engine"`
	Filter        FilterConfig `mapstructure:"filter" yaml:"filter"`
	HTTP          HTTPConfig   `mapstructure:"http" yaml:"http"`
	Tabs          TabsConfig   `mapstructure:"tabs" yaml:"tabs"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// SearchConfig controls how non-URL input becomes a search.
type SearchConfig struct {
	// Template must contain the {query} placeholder.
	Template string `mapstructure:"template" yaml:"template"`
}

// EngineConfig configures the rendering engine process.
type EngineConfig struct {
	ExecPath    string `mapstructure:"exec_path" yaml:"exec_path"`
	Headless    bool   `mapstructure:"headless" yaml:"headless"`
	UserDataDir string `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	NoSandbox   bool   `mapstructure:"no_sandbox" yaml:"no_sandbox"`
}

// FilterConfig configures the content-filter gateway.
type FilterConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	HTTPSUpgrade bool     `mapstructure:"https_upgrade" yaml:"https_upgrade"`
	// Lists are hosts-format blocklist sources: local paths or http(s) URLs.
	Lists []string `mapstructure:"lists" yaml:"lists"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// TabsConfig controls tab lifecycle behavior.
type TabsConfig struct {
	// PersistIntervalMS debounces organization-state writes.
	PersistIntervalMS int  `mapstructure:"persist_interval_ms" yaml:"persist_interval_ms"`
	RestoreOnStart    bool `mapstructure:"restore_on_start" yaml:"restore_on_start"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".graphite", "state"),
		HomeURL:       schema.NewTabURL,
		Search: SearchConfig{
			Template: schema.DefaultSearchTemplate,
		},
		Engine: EngineConfig{
			Headless:    false,
			UserDataDir: filepath.Join(home, ".graphite", "profile"),
		},
		Filter: FilterConfig{
			Enabled:      true,
			HTTPSUpgrade: true,
			Lists:        []string{},
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:27490",
		},
		Tabs: TabsConfig{
			PersistIntervalMS: int(schema.DefaultPersistInterval.Milliseconds()),
			RestoreOnStart:    true,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".graphite", "config.yaml"), nil
}
