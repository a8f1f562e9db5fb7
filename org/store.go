// Package org owns the persisted organization hierarchy: realms, docks, and
// tab placements. It is pure state with invariant-preserving mutators; it
// knows nothing about live sessions and emits no notifications. Expected
// races (unknown ids from a stale UI) surface as false/zero returns, never
// as panics.
package org

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graphitebrowser/graphite/internal/persist"
	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// Config configures the organization store.
type Config struct {
	StateDir        string
	PersistInterval time.Duration
	Logger          pslog.Logger
}

// Store holds the organization hierarchy. All mutators take the store lock;
// persistence is write-behind through a debouncer, so in-memory state is
// authoritative until the next process start.
type Store struct {
	mu         sync.Mutex
	realms     map[schema.RealmID]*schema.Realm
	docks      map[schema.DockID]*schema.Dock
	placements map[schema.TabID]*schema.Placement
	active     schema.RealmID

	disk  *persist.Store
	saver *persist.Debouncer
	log   pslog.Logger
}

// DefaultRealmName names the realm provisioned on first start.
const DefaultRealmName = "Personal"

// NewStore constructs the store, loading persisted state when present. A
// store always holds at least one realm and a valid active pointer.
func NewStore(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &Store{
		realms:     make(map[schema.RealmID]*schema.Realm),
		docks:      make(map[schema.DockID]*schema.Dock),
		placements: make(map[schema.TabID]*schema.Placement),
		log:        logger,
	}
	if cfg.StateDir != "" {
		disk, err := persist.NewStoreWithLogger(cfg.StateDir, logger)
		if err != nil {
			return nil, err
		}
		s.disk = disk
		snapshot, ok, err := disk.Load()
		if err != nil {
			// Corrupted state falls back to defaults rather than failing
			// to start.
			logger.Warn("org state unreadable, starting fresh", "err", err)
		} else if ok {
			s.applySnapshot(snapshot)
		}
	}
	s.ensureBaselineLocked()
	if s.disk != nil {
		s.saver = persist.NewDebouncer(cfg.PersistInterval, s.save)
	}
	return s, nil
}

func (s *Store) applySnapshot(snapshot persist.OrgSnapshot) {
	for i := range snapshot.Realms {
		realm := snapshot.Realms[i]
		s.realms[realm.ID] = &realm
	}
	for i := range snapshot.Docks {
		dock := snapshot.Docks[i]
		if _, ok := s.realms[dock.RealmID]; !ok {
			continue
		}
		s.docks[dock.ID] = &dock
	}
	for i := range snapshot.Placements {
		placement := snapshot.Placements[i]
		if placement.DockID != "" {
			if _, ok := s.docks[placement.DockID]; !ok {
				placement.DockID = ""
			}
		}
		if _, ok := s.realms[placement.RealmID]; !ok && placement.DockID == "" {
			continue
		}
		s.placements[placement.TabID] = &placement
	}
	s.active = snapshot.ActiveRealm
}

// ensureBaselineLocked restores the structural invariants after load: at
// least one realm exists and the active pointer references a live realm.
func (s *Store) ensureBaselineLocked() {
	if len(s.realms) == 0 {
		realm := &schema.Realm{ID: newRealmID(), Name: DefaultRealmName, Order: 0}
		s.realms[realm.ID] = realm
		s.active = realm.ID
		s.log.Info("org default realm created", "realm", realm.ID)
		return
	}
	if _, ok := s.realms[s.active]; !ok {
		realms := s.realmsLocked()
		s.active = realms[0].ID
		s.log.Warn("org active realm repointed", "realm", s.active)
	}
}

func (s *Store) save() {
	if s.disk == nil {
		return
	}
	if err := s.disk.Save(s.Snapshot()); err != nil {
		s.log.Warn("org state save failed", "err", err)
	}
}

func (s *Store) dirtyLocked() {
	if s.saver != nil {
		s.saver.Trigger()
	}
}

// Snapshot returns a persistence-shaped copy of the hierarchy.
func (s *Store) Snapshot() persist.OrgSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := persist.OrgSnapshot{ActiveRealm: s.active}
	for _, realm := range s.realmsLocked() {
		snapshot.Realms = append(snapshot.Realms, realm)
	}
	for _, dock := range s.docksLocked("") {
		snapshot.Docks = append(snapshot.Docks, dock)
	}
	for _, placement := range s.placementsLocked() {
		snapshot.Placements = append(snapshot.Placements, placement)
	}
	return snapshot
}

// Flush forces any pending persistence write.
func (s *Store) Flush() {
	if s.saver != nil {
		s.saver.Flush()
	}
}

// Close flushes pending writes and stops the persistence scheduler.
func (s *Store) Close() {
	if s.saver != nil {
		s.saver.Close()
	}
}

func newRealmID() schema.RealmID {
	return schema.RealmID("realm-" + uuid.NewString())
}

func newDockID() schema.DockID {
	return schema.DockID("dock-" + uuid.NewString())
}

// realmsLocked returns realms sorted by order.
func (s *Store) realmsLocked() []schema.Realm {
	realms := make([]schema.Realm, 0, len(s.realms))
	for _, realm := range s.realms {
		realms = append(realms, *realm)
	}
	sort.Slice(realms, func(i, j int) bool {
		if realms[i].Order != realms[j].Order {
			return realms[i].Order < realms[j].Order
		}
		return realms[i].ID < realms[j].ID
	})
	return realms
}

// docksLocked returns docks sorted by order, filtered by realm when given.
func (s *Store) docksLocked(realmID schema.RealmID) []schema.Dock {
	docks := make([]schema.Dock, 0, len(s.docks))
	for _, dock := range s.docks {
		if realmID != "" && dock.RealmID != realmID {
			continue
		}
		docks = append(docks, *dock)
	}
	sort.Slice(docks, func(i, j int) bool {
		if docks[i].Order != docks[j].Order {
			return docks[i].Order < docks[j].Order
		}
		return docks[i].ID < docks[j].ID
	})
	return docks
}

func (s *Store) placementsLocked() []schema.Placement {
	placements := make([]schema.Placement, 0, len(s.placements))
	for _, placement := range s.placements {
		placements = append(placements, *placement)
	}
	sort.Slice(placements, func(i, j int) bool {
		if placements[i].Order != placements[j].Order {
			return placements[i].Order < placements[j].Order
		}
		return placements[i].TabID < placements[j].TabID
	})
	return placements
}
