// Package settings is a small JSON-file key/value store for user-facing
// preferences (search engine, filter toggles). Values are schemaless JSON so
// callers own their own types.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"pkt.systems/pslog"
)

const settingsFile = "settings.json"

// Store holds preferences in memory and mirrors them to disk on every Set.
type Store struct {
	mu     sync.Mutex
	dir    string
	values map[string]json.RawMessage
	subs   []func(key string)
	log    pslog.Logger
}

// Open loads the settings file under dir, creating the directory if needed.
// A corrupt file starts fresh rather than failing.
func Open(dir string, logger pslog.Logger) (*Store, error) {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	s := &Store{dir: dir, values: make(map[string]json.RawMessage), log: logger}
	data, err := os.ReadFile(filepath.Join(dir, settingsFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		logger.Warn("settings unreadable, starting fresh", "err", err)
		s.values = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Get unmarshals the value for key into out. False when the key is unset.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// GetBool reads a boolean setting with a default.
func (s *Store) GetBool(key string, fallback bool) bool {
	var value bool
	if ok, err := s.Get(key, &value); err != nil || !ok {
		return fallback
	}
	return value
}

// GetString reads a string setting with a default.
func (s *Store) GetString(key, fallback string) string {
	var value string
	if ok, err := s.Get(key, &value); err != nil || !ok {
		return fallback
	}
	return value
}

// Set stores the value for key, writes the file, and notifies subscribers.
func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = raw
	err = s.saveLocked()
	subs := append([]func(string){}, s.subs...)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, fn := range subs {
		fn(key)
	}
	return nil
}

// Subscribe registers a callback invoked after every successful Set.
// Callbacks run on the setter's goroutine and must not call back into Set.
func (s *Store) Subscribe(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, settingsFile)
	tmp, err := os.CreateTemp(s.dir, "settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
