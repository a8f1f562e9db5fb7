package org

import (
	"strings"

	"github.com/graphitebrowser/graphite/schema"
)

// Docks returns docks in display order, filtered by realm when realmID is
// non-empty.
func (s *Store) Docks(realmID schema.RealmID) []schema.Dock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docksLocked(realmID)
}

// Dock fetches one dock by id.
func (s *Store) Dock(id schema.DockID) (schema.Dock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dock, ok := s.docks[id]
	if !ok {
		return schema.Dock{}, false
	}
	return *dock, true
}

// CreateDock appends a dock at the end of the realm's dock order. False when
// the realm is unknown or the name is empty.
func (s *Store) CreateDock(realmID schema.RealmID, name, icon, color string) (schema.Dock, bool) {
	if strings.TrimSpace(name) == "" {
		return schema.Dock{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.realms[realmID]; !ok {
		return schema.Dock{}, false
	}
	dock := &schema.Dock{
		ID:      newDockID(),
		Name:    strings.TrimSpace(name),
		Icon:    icon,
		Color:   color,
		RealmID: realmID,
		Order:   s.nextDockOrderLocked(realmID),
	}
	s.docks[dock.ID] = dock
	s.dirtyLocked()
	s.log.Info("org dock created", "dock", dock.ID, "realm", realmID, "name", dock.Name)
	return *dock, true
}

// UpdateDock merges non-nil fields into the dock.
func (s *Store) UpdateDock(id schema.DockID, name, icon, color *string) (schema.Dock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dock, ok := s.docks[id]
	if !ok {
		return schema.Dock{}, false
	}
	if name != nil && strings.TrimSpace(*name) != "" {
		dock.Name = strings.TrimSpace(*name)
	}
	if icon != nil {
		dock.Icon = *icon
	}
	if color != nil {
		dock.Color = *color
	}
	s.dirtyLocked()
	return *dock, true
}

// ToggleCollapse flips the dock's collapsed state.
func (s *Store) ToggleCollapse(id schema.DockID) (schema.Dock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dock, ok := s.docks[id]
	if !ok {
		return schema.Dock{}, false
	}
	dock.Collapsed = !dock.Collapsed
	s.dirtyLocked()
	return *dock, true
}

// DeleteDock removes a dock. Its placements become loose within the same
// realm, appended after the existing loose tabs, keeping pin state.
func (s *Store) DeleteDock(id schema.DockID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dock, ok := s.docks[id]
	if !ok {
		return false
	}
	realmID := dock.RealmID
	delete(s.docks, id)
	for _, placement := range s.placementsLocked() {
		if placement.DockID != id {
			continue
		}
		p := s.placements[placement.TabID]
		p.DockID = ""
		p.RealmID = realmID
		p.Order = s.nextLooseOrderLocked(realmID)
	}
	s.dirtyLocked()
	s.log.Info("org dock deleted", "dock", id, "realm", realmID)
	return true
}

// ReorderDocks rewrites dock order within a realm from the id sequence.
// Ids outside the realm are ignored.
func (s *Store) ReorderDocks(realmID schema.RealmID, ordered []schema.DockID) []schema.Dock {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 0
	seen := make(map[schema.DockID]bool, len(ordered))
	for _, id := range ordered {
		dock, ok := s.docks[id]
		if !ok || dock.RealmID != realmID || seen[id] {
			continue
		}
		seen[id] = true
		dock.Order = next
		next++
	}
	for _, dock := range s.docksLocked(realmID) {
		if seen[dock.ID] {
			continue
		}
		s.docks[dock.ID].Order = next
		next++
	}
	s.dirtyLocked()
	return s.docksLocked(realmID)
}

// MoveDockToRealm reassigns the dock to another realm, at the end of that
// realm's dock order. The dock's tabs follow implicitly: a docked
// placement's effective realm is derived from the dock, so their own
// RealmID fields are deliberately left untouched.
func (s *Store) MoveDockToRealm(id schema.DockID, realmID schema.RealmID) (schema.Dock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dock, ok := s.docks[id]
	if !ok {
		return schema.Dock{}, false
	}
	if _, ok := s.realms[realmID]; !ok {
		return schema.Dock{}, false
	}
	order := s.nextDockOrderLocked(realmID)
	dock.RealmID = realmID
	dock.Order = order
	s.dirtyLocked()
	s.log.Info("org dock moved", "dock", id, "realm", realmID)
	return *dock, true
}

func (s *Store) nextDockOrderLocked(realmID schema.RealmID) int {
	next := 0
	for _, dock := range s.docks {
		if dock.RealmID == realmID && dock.Order >= next {
			next = dock.Order + 1
		}
	}
	return next
}
