package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// OrgSnapshot captures the organization hierarchy for persistence.
type OrgSnapshot struct {
	ActiveRealm schema.RealmID     `json:"active_realm"`
	Realms      []schema.Realm     `json:"realms"`
	Docks       []schema.Dock      `json:"docks"`
	Placements  []schema.Placement `json:"placements"`
}

const stateFile = "organization.json"

// Store persists the organization snapshot to disk with atomic replaces.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads the organization snapshot from disk.
func (s *Store) Load() (OrgSnapshot, bool, error) {
	path := filepath.Join(s.dir, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss")
			}
			return OrgSnapshot{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "err", err)
		}
		return OrgSnapshot{}, false, err
	}
	var snapshot OrgSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "err", err)
		}
		return OrgSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "realms", len(snapshot.Realms), "docks", len(snapshot.Docks), "placements", len(snapshot.Placements))
	}
	return snapshot, true, nil
}

// Save writes the organization snapshot to disk.
func (s *Store) Save(snapshot OrgSnapshot) error {
	path := filepath.Join(s.dir, stateFile)
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.warnSave(err)
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "state-*.json")
	if err != nil {
		s.warnSave(err)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warnSave(err)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warnSave(err)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		s.warnSave(err)
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		s.warnSave(err)
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		s.warnSave(err)
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "realms", len(snapshot.Realms), "placements", len(snapshot.Placements))
	}
	return nil
}

func (s *Store) warnSave(err error) {
	if s.log != nil {
		s.log.Warn("state save failed", "err", err)
	}
}
