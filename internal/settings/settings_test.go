package settings

import (
	"testing"
)

func TestSetGetRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set("filter.enabled", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("search.template", "https://example.com/?q={query}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !store.GetBool("filter.enabled", false) {
		t.Fatalf("bool round trip failed")
	}
	if got := store.GetString("search.template", ""); got != "https://example.com/?q={query}" {
		t.Fatalf("string round trip failed: %q", got)
	}
}

func TestDefaultsForUnsetKeys(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !store.GetBool("missing", true) {
		t.Fatalf("bool default not honored")
	}
	if store.GetString("missing", "fallback") != "fallback" {
		t.Fatalf("string default not honored")
	}
}

func TestPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set("filter.https_upgrade", true); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.GetBool("filter.https_upgrade", false) {
		t.Fatalf("value lost across reopen")
	}
}

func TestSubscribeNotifiedOnSet(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var keys []string
	store.Subscribe(func(key string) { keys = append(keys, key) })
	if err := store.Set("a", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("b", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected notifications: %v", keys)
	}
}
