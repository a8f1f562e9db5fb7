package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphitebrowser/graphite/schema"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.Template != schema.DefaultSearchTemplate {
		t.Fatalf("unexpected default template: %q", cfg.Search.Template)
	}
	if cfg.HTTP.Addr == "" {
		t.Fatalf("http addr default missing")
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 99
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsTemplateWithoutPlaceholder(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
search:
  template: https://example.com/?q=search
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "search.template") {
		t.Fatalf("expected template error, got %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
state_dir: /tmp/graphite-test
engine:
  headless: true
  no_sandbox: true
filter:
  enabled: false
  lists:
    - /etc/blocklist.txt
http:
  addr: 127.0.0.1:9999
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "/tmp/graphite-test" {
		t.Fatalf("state_dir not applied: %q", cfg.StateDir)
	}
	if !cfg.Engine.Headless || !cfg.Engine.NoSandbox {
		t.Fatalf("engine flags not applied: %+v", cfg.Engine)
	}
	if cfg.Filter.Enabled {
		t.Fatalf("filter.enabled not applied")
	}
	if len(cfg.Filter.Lists) != 1 || cfg.Filter.Lists[0] != "/etc/blocklist.txt" {
		t.Fatalf("filter.lists not applied: %v", cfg.Filter.Lists)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9999" {
		t.Fatalf("http.addr not applied: %q", cfg.HTTP.Addr)
	}
	if cfg.Search.Template != schema.DefaultSearchTemplate {
		t.Fatalf("unset keys must keep defaults: %q", cfg.Search.Template)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
