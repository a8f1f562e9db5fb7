package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/graphitebrowser/graphite/schema"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("home_url", cfg.HomeURL)
	v.SetDefault("search.template", cfg.Search.Template)
	v.SetDefault("engine.exec_path", cfg.Engine.ExecPath)
	v.SetDefault("engine.headless", cfg.Engine.Headless)
	v.SetDefault("engine.user_data_dir", cfg.Engine.UserDataDir)
	v.SetDefault("engine.no_sandbox", cfg.Engine.NoSandbox)
	v.SetDefault("filter.enabled", cfg.Filter.Enabled)
	v.SetDefault("filter.https_upgrade", cfg.Filter.HTTPSUpgrade)
	v.SetDefault("filter.lists", cfg.Filter.Lists)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("tabs.persist_interval_ms", cfg.Tabs.PersistIntervalMS)
	v.SetDefault("tabs.restore_on_start", cfg.Tabs.RestoreOnStart)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if !strings.Contains(cfg.Search.Template, schema.SearchQueryPlaceholder) {
		return fmt.Errorf("search.template must contain the %s placeholder", schema.SearchQueryPlaceholder)
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	if cfg.Tabs.PersistIntervalMS < 0 {
		return fmt.Errorf("tabs.persist_interval_ms must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Engine.ExecPath = expandEnv(cfg.Engine.ExecPath)
	cfg.Engine.UserDataDir = expandEnv(cfg.Engine.UserDataDir)
	for i := range cfg.Filter.Lists {
		cfg.Filter.Lists[i] = expandEnv(cfg.Filter.Lists[i])
	}
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
