package org

import (
	"github.com/graphitebrowser/graphite/schema"
)

// Placement fetches a tab's placement.
func (s *Store) Placement(tabID schema.TabID) (schema.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	placement, ok := s.placements[tabID]
	if !ok {
		return schema.Placement{}, false
	}
	return *placement, true
}

// Placements returns all placements ordered by position.
func (s *Store) Placements() []schema.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placementsLocked()
}

// EffectiveRealm resolves the realm a placement actually lives in: the
// dock's realm when docked, the placement's own realm otherwise. This is
// always derived, never stored, so the two can not drift.
func (s *Store) EffectiveRealm(placement schema.Placement) schema.RealmID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveRealmLocked(placement)
}

func (s *Store) effectiveRealmLocked(placement schema.Placement) schema.RealmID {
	if placement.DockID != "" {
		if dock, ok := s.docks[placement.DockID]; ok {
			return dock.RealmID
		}
	}
	return placement.RealmID
}

// EnsurePlacement records a placement for a freshly organized tab. With no
// hint the tab lands loose at the end of the active realm, unpinned. An
// unknown hint realm or dock falls back to the default.
func (s *Store) EnsurePlacement(tabID schema.TabID, hint *schema.PlacementHint) schema.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.placements[tabID]; ok {
		return *existing
	}
	placement := &schema.Placement{TabID: tabID, RealmID: s.active}
	if hint != nil {
		if _, ok := s.realms[hint.RealmID]; ok {
			placement.RealmID = hint.RealmID
		}
		if dock, ok := s.docks[hint.DockID]; ok && hint.DockID != "" {
			placement.DockID = dock.ID
			placement.RealmID = dock.RealmID
		}
		placement.Pinned = hint.Pinned
	}
	if placement.DockID != "" {
		placement.Order = s.nextDockTabOrderLocked(placement.DockID)
	} else {
		placement.Order = s.nextLooseOrderLocked(placement.RealmID)
	}
	s.placements[tabID] = placement
	s.dirtyLocked()
	return *placement
}

// RemovePlacement deletes a tab's placement (tab closed).
func (s *Store) RemovePlacement(tabID schema.TabID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.placements[tabID]; !ok {
		return false
	}
	delete(s.placements, tabID)
	s.dirtyLocked()
	return true
}

// SetLastURL records the tab's last navigated URL on its placement, when one
// exists, for startup restore.
func (s *Store) SetLastURL(tabID schema.TabID, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	placement, ok := s.placements[tabID]
	if !ok {
		return
	}
	if placement.LastURL == url {
		return
	}
	placement.LastURL = url
	s.dirtyLocked()
}

// MoveTabToDock places the tab at the end of the dock. Pin state persists
// across moves. False when the dock is unknown.
func (s *Store) MoveTabToDock(tabID schema.TabID, dockID schema.DockID) (schema.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dock, ok := s.docks[dockID]
	if !ok {
		return schema.Placement{}, false
	}
	placement := s.getOrCreatePlacementLocked(tabID)
	placement.DockID = dockID
	placement.RealmID = dock.RealmID
	placement.Order = s.nextDockTabOrderLocked(dockID)
	s.dirtyLocked()
	return *placement, true
}

// MoveTabToLoose places the tab loose at the end of the realm. An empty
// realm id targets the tab's current effective realm. False when the realm
// is unknown.
func (s *Store) MoveTabToLoose(tabID schema.TabID, realmID schema.RealmID) (schema.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	placement := s.getOrCreatePlacementLocked(tabID)
	if realmID == "" {
		realmID = s.effectiveRealmLocked(*placement)
	}
	if _, ok := s.realms[realmID]; !ok {
		return schema.Placement{}, false
	}
	placement.DockID = ""
	placement.RealmID = realmID
	placement.Order = s.nextLooseOrderLocked(realmID)
	s.dirtyLocked()
	return *placement, true
}

// MoveTabToRealm places the tab loose at the end of another realm.
func (s *Store) MoveTabToRealm(tabID schema.TabID, realmID schema.RealmID) (schema.Placement, bool) {
	if realmID == "" {
		return schema.Placement{}, false
	}
	return s.MoveTabToLoose(tabID, realmID)
}

// PinTab sets the pin flag only; dock membership is untouched. Pinned tabs
// sort ahead of docked and loose tabs in the sidebar regardless of dock.
func (s *Store) PinTab(tabID schema.TabID, pinned bool) (schema.Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	placement := s.getOrCreatePlacementLocked(tabID)
	placement.Pinned = pinned
	s.dirtyLocked()
	return *placement, true
}

// ReorderDockTabs rewrites tab order inside the dock as the list index of
// each id. Ids not currently in the dock are ignored so a stale UI list can
// not corrupt the container; members missing from the list keep their
// relative order after the listed ones.
func (s *Store) ReorderDockTabs(dockID schema.DockID, ordered []schema.TabID) []schema.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docks[dockID]; !ok {
		return nil
	}
	inDock := func(p *schema.Placement) bool { return p.DockID == dockID }
	s.reorderContainerLocked(ordered, inDock)
	return s.containerPlacementsLocked(inDock)
}

// ReorderLooseTabs rewrites loose-tab order inside the realm, with the same
// stale-id tolerance as ReorderDockTabs.
func (s *Store) ReorderLooseTabs(realmID schema.RealmID, ordered []schema.TabID) []schema.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.realms[realmID]; !ok {
		return nil
	}
	loose := func(p *schema.Placement) bool { return p.DockID == "" && p.RealmID == realmID }
	s.reorderContainerLocked(ordered, loose)
	return s.containerPlacementsLocked(loose)
}

func (s *Store) reorderContainerLocked(ordered []schema.TabID, member func(*schema.Placement) bool) {
	next := 0
	seen := make(map[schema.TabID]bool, len(ordered))
	for _, id := range ordered {
		placement, ok := s.placements[id]
		if !ok || !member(placement) || seen[id] {
			continue
		}
		seen[id] = true
		placement.Order = next
		next++
	}
	for _, placement := range s.placementsLocked() {
		p := s.placements[placement.TabID]
		if !member(p) || seen[p.TabID] {
			continue
		}
		p.Order = next
		next++
	}
	s.dirtyLocked()
}

func (s *Store) containerPlacementsLocked(member func(*schema.Placement) bool) []schema.Placement {
	var out []schema.Placement
	for _, placement := range s.placementsLocked() {
		if member(s.placements[placement.TabID]) {
			out = append(out, *s.placements[placement.TabID])
		}
	}
	return out
}

func (s *Store) getOrCreatePlacementLocked(tabID schema.TabID) *schema.Placement {
	if placement, ok := s.placements[tabID]; ok {
		return placement
	}
	placement := &schema.Placement{
		TabID:   tabID,
		RealmID: s.active,
		Order:   s.nextLooseOrderLocked(s.active),
	}
	s.placements[tabID] = placement
	return placement
}

func (s *Store) nextLooseOrderLocked(realmID schema.RealmID) int {
	next := 0
	for _, placement := range s.placements {
		if placement.DockID == "" && placement.RealmID == realmID && placement.Order >= next {
			next = placement.Order + 1
		}
	}
	return next
}

func (s *Store) nextDockTabOrderLocked(dockID schema.DockID) int {
	next := 0
	for _, placement := range s.placements {
		if placement.DockID == dockID && placement.Order >= next {
			next = placement.Order + 1
		}
	}
	return next
}
