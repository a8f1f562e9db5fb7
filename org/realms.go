package org

import (
	"strings"

	"github.com/graphitebrowser/graphite/schema"
)

// Realms returns all realms in display order.
func (s *Store) Realms() []schema.Realm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realmsLocked()
}

// Realm fetches one realm by id.
func (s *Store) Realm(id schema.RealmID) (schema.Realm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	realm, ok := s.realms[id]
	if !ok {
		return schema.Realm{}, false
	}
	return *realm, true
}

// ActiveRealm returns the active realm pointer.
func (s *Store) ActiveRealm() schema.RealmID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActiveRealm re-points the active realm. False when the realm is unknown.
func (s *Store) SetActiveRealm(id schema.RealmID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.realms[id]; !ok {
		return false
	}
	s.active = id
	s.dirtyLocked()
	return true
}

// CreateRealm appends a realm at the end of the realm order. A template also
// provisions its docks in the same call. The store stays notification
// agnostic; broadcasting is the caller's job.
func (s *Store) CreateRealm(name, icon, color string, template *schema.RealmTemplate) (schema.Realm, []schema.Dock, bool) {
	if strings.TrimSpace(name) == "" {
		return schema.Realm{}, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	realm := &schema.Realm{
		ID:    newRealmID(),
		Name:  strings.TrimSpace(name),
		Icon:  icon,
		Color: color,
		Order: s.nextRealmOrderLocked(),
	}
	s.realms[realm.ID] = realm
	var docks []schema.Dock
	if template != nil {
		for _, tmpl := range template.Docks {
			if strings.TrimSpace(tmpl.Name) == "" {
				continue
			}
			dock := &schema.Dock{
				ID:      newDockID(),
				Name:    strings.TrimSpace(tmpl.Name),
				Icon:    tmpl.Icon,
				Color:   tmpl.Color,
				RealmID: realm.ID,
				Order:   len(docks),
			}
			s.docks[dock.ID] = dock
			docks = append(docks, *dock)
		}
	}
	s.dirtyLocked()
	s.log.Info("org realm created", "realm", realm.ID, "name", realm.Name, "docks", len(docks))
	return *realm, docks, true
}

// UpdateRealm merges non-nil fields into the realm.
func (s *Store) UpdateRealm(id schema.RealmID, name, icon, color *string) (schema.Realm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	realm, ok := s.realms[id]
	if !ok {
		return schema.Realm{}, false
	}
	if name != nil && strings.TrimSpace(*name) != "" {
		realm.Name = strings.TrimSpace(*name)
	}
	if icon != nil {
		realm.Icon = *icon
	}
	if color != nil {
		realm.Color = *color
	}
	s.dirtyLocked()
	return *realm, true
}

// DeleteRealm removes a realm, cascading to its docks and reassigning the
// affected placements to the next realm in order (wrapping). Deleting the
// last realm is rejected with schema.ErrLastRealm.
//
// The store does not touch the active pointer: re-pointing it before the
// delete is a documented caller responsibility (the service wraps both into
// one atomic operation).
func (s *Store) DeleteRealm(id schema.RealmID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.realms[id]; !ok {
		return schema.ErrRealmNotFound
	}
	if len(s.realms) == 1 {
		return schema.ErrLastRealm
	}
	target := s.nextRealmAfterLocked(id)

	for dockID, dock := range s.docks {
		if dock.RealmID == id {
			delete(s.docks, dockID)
		}
	}
	for _, placement := range s.placements {
		switch {
		case placement.DockID != "":
			if dock, ok := s.docks[placement.DockID]; ok {
				// Dock survived in another realm; refresh the informative
				// nominal realm so it never dangles.
				placement.RealmID = dock.RealmID
				continue
			}
			placement.DockID = ""
			placement.RealmID = target
			placement.Order = s.nextLooseOrderLocked(target)
		case placement.RealmID == id:
			placement.RealmID = target
			placement.Order = s.nextLooseOrderLocked(target)
		}
	}
	delete(s.realms, id)
	s.dirtyLocked()
	s.log.Info("org realm deleted", "realm", id, "reassigned_to", target)
	return nil
}

// ReorderRealms rewrites realm order from the id sequence. Unknown ids are
// ignored; realms missing from the sequence keep their relative order after
// the listed ones.
func (s *Store) ReorderRealms(ordered []schema.RealmID) []schema.Realm {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 0
	seen := make(map[schema.RealmID]bool, len(ordered))
	for _, id := range ordered {
		realm, ok := s.realms[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		realm.Order = next
		next++
	}
	for _, realm := range s.realmsLocked() {
		if seen[realm.ID] {
			continue
		}
		s.realms[realm.ID].Order = next
		next++
	}
	s.dirtyLocked()
	return s.realmsLocked()
}

// nextRealmAfterLocked picks the realm following id in display order,
// wrapping to the first realm.
func (s *Store) nextRealmAfterLocked(id schema.RealmID) schema.RealmID {
	realms := s.realmsLocked()
	for i, realm := range realms {
		if realm.ID == id {
			return realms[(i+1)%len(realms)].ID
		}
	}
	return realms[0].ID
}

func (s *Store) nextRealmOrderLocked() int {
	next := 0
	for _, realm := range s.realms {
		if realm.Order >= next {
			next = realm.Order + 1
		}
	}
	return next
}
