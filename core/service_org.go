package core

import (
	"context"
	"strings"

	"github.com/graphitebrowser/graphite/internal/logx"
	"github.com/graphitebrowser/graphite/schema"
)

func (s *service) CreateRealm(ctx context.Context, req schema.CreateRealmRequest) (schema.CreateRealmResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return schema.CreateRealmResponse{}, schema.ErrInvalidName
	}
	realm, docks, ok := s.org.CreateRealm(req.Name, req.Icon, req.Color, req.Template)
	if !ok {
		return schema.CreateRealmResponse{}, schema.ErrInvalidName
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventRealmCreated, Realm: &realm})
	for i := range docks {
		dock := docks[i]
		s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDockCreated, Dock: &dock})
	}
	logx.WithRealm(logx.Ctx(ctx), realm.ID).Info("service realm created", "name", realm.Name, "docks", len(docks))
	return schema.CreateRealmResponse{Realm: realm, Docks: docks}, nil
}

func (s *service) UpdateRealm(ctx context.Context, req schema.UpdateRealmRequest) (schema.UpdateRealmResponse, error) {
	_ = ctx
	realm, ok := s.org.UpdateRealm(req.RealmID, req.Name, req.Icon, req.Color)
	if !ok {
		return schema.UpdateRealmResponse{}, schema.ErrRealmNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventRealmUpdated, Realm: &realm})
	return schema.UpdateRealmResponse{Realm: realm}, nil
}

// DeleteRealm removes a realm. Deleting the active realm re-points the
// active pointer to the next realm in order before the delete, so no event
// observer ever sees an active pointer at a dead realm.
func (s *service) DeleteRealm(ctx context.Context, req schema.DeleteRealmRequest) (schema.DeleteRealmResponse, error) {
	log := logx.WithRealm(logx.Ctx(ctx), req.RealmID)
	if _, ok := s.org.Realm(req.RealmID); !ok {
		return schema.DeleteRealmResponse{}, schema.ErrRealmNotFound
	}
	realms := s.org.Realms()
	if len(realms) <= 1 {
		return schema.DeleteRealmResponse{}, schema.ErrLastRealm
	}

	var activatedEvent *schema.OrgEvent
	if s.org.ActiveRealm() == req.RealmID {
		next := nextRealmAfter(realms, req.RealmID)
		if !s.org.SetActiveRealm(next) {
			return schema.DeleteRealmResponse{}, schema.ErrRealmNotFound
		}
		event := schema.OrgEvent{Type: schema.OrgEventRealmActivated, ActiveRealm: next}
		activatedEvent = &event
	}
	if err := s.org.DeleteRealm(req.RealmID); err != nil {
		return schema.DeleteRealmResponse{}, err
	}
	active := s.org.ActiveRealm()
	if activatedEvent != nil {
		s.emitOrgEvent(*activatedEvent)
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventRealmDeleted, ActiveRealm: active})
	log.Info("service realm deleted", "active_realm", active)
	return schema.DeleteRealmResponse{ActiveRealm: active}, nil
}

func (s *service) SetActiveRealm(ctx context.Context, req schema.SetActiveRealmRequest) (schema.SetActiveRealmResponse, error) {
	_ = ctx
	if !s.org.SetActiveRealm(req.RealmID) {
		return schema.SetActiveRealmResponse{}, schema.ErrRealmNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventRealmActivated, ActiveRealm: req.RealmID})
	return schema.SetActiveRealmResponse{ActiveRealm: req.RealmID}, nil
}

func (s *service) ReorderRealms(ctx context.Context, req schema.ReorderRealmsRequest) (schema.ReorderRealmsResponse, error) {
	_ = ctx
	realms := s.org.ReorderRealms(req.Ordered)
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventRealmsReordered, ActiveRealm: s.org.ActiveRealm()})
	return schema.ReorderRealmsResponse{Realms: realms}, nil
}

func (s *service) CreateDock(ctx context.Context, req schema.CreateDockRequest) (schema.CreateDockResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return schema.CreateDockResponse{}, schema.ErrInvalidName
	}
	dock, ok := s.org.CreateDock(req.RealmID, req.Name, req.Icon, req.Color)
	if !ok {
		return schema.CreateDockResponse{}, schema.ErrRealmNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDockCreated, Dock: &dock})
	logx.WithDock(logx.Ctx(ctx), dock.ID).Info("service dock created", "realm", dock.RealmID, "name", dock.Name)
	return schema.CreateDockResponse{Dock: dock}, nil
}

func (s *service) UpdateDock(ctx context.Context, req schema.UpdateDockRequest) (schema.UpdateDockResponse, error) {
	_ = ctx
	dock, ok := s.org.UpdateDock(req.DockID, req.Name, req.Icon, req.Color)
	if !ok {
		return schema.UpdateDockResponse{}, schema.ErrDockNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDockUpdated, Dock: &dock})
	return schema.UpdateDockResponse{Dock: dock}, nil
}

func (s *service) ToggleDock(ctx context.Context, req schema.ToggleDockRequest) (schema.ToggleDockResponse, error) {
	_ = ctx
	dock, ok := s.org.ToggleCollapse(req.DockID)
	if !ok {
		return schema.ToggleDockResponse{}, schema.ErrDockNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDockUpdated, Dock: &dock})
	return schema.ToggleDockResponse{Dock: dock}, nil
}

func (s *service) DeleteDock(ctx context.Context, req schema.DeleteDockRequest) (schema.DeleteDockResponse, error) {
	if !s.org.DeleteDock(req.DockID) {
		return schema.DeleteDockResponse{}, schema.ErrDockNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDockDeleted, ActiveRealm: s.org.ActiveRealm()})
	logx.WithDock(logx.Ctx(ctx), req.DockID).Info("service dock deleted")
	return schema.DeleteDockResponse{}, nil
}

func (s *service) ReorderDocks(ctx context.Context, req schema.ReorderDocksRequest) (schema.ReorderDocksResponse, error) {
	_ = ctx
	if _, ok := s.org.Realm(req.RealmID); !ok {
		return schema.ReorderDocksResponse{}, schema.ErrRealmNotFound
	}
	docks := s.org.ReorderDocks(req.RealmID, req.Ordered)
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDocksReordered, ActiveRealm: s.org.ActiveRealm()})
	return schema.ReorderDocksResponse{Docks: docks}, nil
}

func (s *service) MoveDock(ctx context.Context, req schema.MoveDockRequest) (schema.MoveDockResponse, error) {
	if _, ok := s.org.Dock(req.DockID); !ok {
		return schema.MoveDockResponse{}, schema.ErrDockNotFound
	}
	dock, ok := s.org.MoveDockToRealm(req.DockID, req.RealmID)
	if !ok {
		return schema.MoveDockResponse{}, schema.ErrRealmNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventDockMoved, Dock: &dock})
	logx.WithDock(logx.Ctx(ctx), dock.ID).Info("service dock moved", "realm", dock.RealmID)
	return schema.MoveDockResponse{Dock: dock}, nil
}

func (s *service) GetPlacement(ctx context.Context, req schema.GetPlacementRequest) (schema.GetPlacementResponse, error) {
	_ = ctx
	s.mu.Lock()
	_, live := s.tabs[req.TabID]
	s.mu.Unlock()
	if !live {
		return schema.GetPlacementResponse{}, schema.ErrTabNotFound
	}
	// A live tab always has a placement; missing ones get the default (loose,
	// active realm, end of list).
	placement := s.org.EnsurePlacement(req.TabID, nil)
	return schema.GetPlacementResponse{
		Placement:      placement,
		EffectiveRealm: s.org.EffectiveRealm(placement),
	}, nil
}

func (s *service) MoveTabToDock(ctx context.Context, req schema.MoveTabToDockRequest) (schema.MoveTabResponse, error) {
	_ = ctx
	placement, ok := s.org.MoveTabToDock(req.TabID, req.DockID)
	if !ok {
		return schema.MoveTabResponse{}, schema.ErrDockNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, Placement: &placement})
	return schema.MoveTabResponse{Placement: placement}, nil
}

func (s *service) MoveTabToLoose(ctx context.Context, req schema.MoveTabToLooseRequest) (schema.MoveTabResponse, error) {
	_ = ctx
	placement, ok := s.org.MoveTabToLoose(req.TabID, req.RealmID)
	if !ok {
		return schema.MoveTabResponse{}, schema.ErrRealmNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, Placement: &placement})
	return schema.MoveTabResponse{Placement: placement}, nil
}

func (s *service) MoveTabToRealm(ctx context.Context, req schema.MoveTabToRealmRequest) (schema.MoveTabResponse, error) {
	_ = ctx
	if req.RealmID == "" {
		return schema.MoveTabResponse{}, schema.ErrInvalidRequest
	}
	placement, ok := s.org.MoveTabToRealm(req.TabID, req.RealmID)
	if !ok {
		return schema.MoveTabResponse{}, schema.ErrRealmNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, Placement: &placement})
	return schema.MoveTabResponse{Placement: placement}, nil
}

func (s *service) PinTab(ctx context.Context, req schema.PinTabRequest) (schema.PinTabResponse, error) {
	_ = ctx
	placement, ok := s.org.PinTab(req.TabID, req.Pinned)
	if !ok {
		return schema.PinTabResponse{}, schema.ErrTabNotFound
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, Placement: &placement})
	return schema.PinTabResponse{Placement: placement}, nil
}

func (s *service) ReorderDockTabs(ctx context.Context, req schema.ReorderDockTabsRequest) (schema.ReorderTabsResponse, error) {
	_ = ctx
	if _, ok := s.org.Dock(req.DockID); !ok {
		return schema.ReorderTabsResponse{}, schema.ErrDockNotFound
	}
	placements := s.org.ReorderDockTabs(req.DockID, req.Ordered)
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, ActiveRealm: s.org.ActiveRealm()})
	return schema.ReorderTabsResponse{Placements: placements}, nil
}

func (s *service) ReorderLooseTabs(ctx context.Context, req schema.ReorderLooseTabsRequest) (schema.ReorderTabsResponse, error) {
	_ = ctx
	if _, ok := s.org.Realm(req.RealmID); !ok {
		return schema.ReorderTabsResponse{}, schema.ErrRealmNotFound
	}
	placements := s.org.ReorderLooseTabs(req.RealmID, req.Ordered)
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, ActiveRealm: s.org.ActiveRealm()})
	return schema.ReorderTabsResponse{Placements: placements}, nil
}

func (s *service) GetSidebarState(ctx context.Context, req schema.SidebarStateRequest) (schema.SidebarStateResponse, error) {
	_ = ctx
	_ = req
	s.mu.Lock()
	type liveTab struct {
		id       schema.TabID
		snapshot schema.TabSnapshot
	}
	live := make([]liveTab, 0, len(s.order))
	for _, id := range s.order {
		t := s.tabs[id]
		if t == nil {
			continue
		}
		live = append(live, liveTab{id: id, snapshot: t.Snapshot(id == s.active)})
	}
	s.mu.Unlock()

	state := schema.SidebarState{
		ActiveRealm: s.org.ActiveRealm(),
		Realms:      s.org.Realms(),
		Docks:       s.org.Docks(""),
	}
	for _, lt := range live {
		placement := s.org.EnsurePlacement(lt.id, nil)
		state.Tabs = append(state.Tabs, schema.OrgTab{
			TabSnapshot:    lt.snapshot,
			Placement:      placement,
			EffectiveRealm: s.org.EffectiveRealm(placement),
		})
	}
	return schema.SidebarStateResponse{State: state}, nil
}

func (s *service) SearchHistory(ctx context.Context, req schema.SearchHistoryRequest) (schema.SearchHistoryResponse, error) {
	if s.history == nil {
		return schema.SearchHistoryResponse{}, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.history.Search(ctx, strings.TrimSpace(req.Query), limit)
	if err != nil {
		return schema.SearchHistoryResponse{}, err
	}
	return schema.SearchHistoryResponse{Entries: entries}, nil
}

func (s *service) FilterStats(ctx context.Context, req schema.FilterStatsRequest) (schema.FilterStatsResponse, error) {
	_ = ctx
	_ = req
	if s.filter == nil {
		return schema.FilterStatsResponse{}, nil
	}
	return schema.FilterStatsResponse{Stats: s.filter.Stats()}, nil
}

func (s *service) ResetFilterStats(ctx context.Context, req schema.ResetFilterStatsRequest) (schema.ResetFilterStatsResponse, error) {
	_ = ctx
	_ = req
	if s.filter == nil {
		return schema.ResetFilterStatsResponse{}, nil
	}
	stats := s.filter.Reset()
	s.emitFilterStats(stats)
	return schema.ResetFilterStatsResponse{Stats: stats}, nil
}

// RestoreTabs rebinds persisted placements to fresh tabs. Stale placements
// keep their realm, dock, and pin state; the tab id is necessarily new, so
// the old binding is dropped once the replacement exists.
func (s *service) RestoreTabs(ctx context.Context, req schema.RestoreTabsRequest) (schema.RestoreTabsResponse, error) {
	_ = req
	log := logx.Ctx(ctx)
	var resp schema.RestoreTabsResponse
	for _, placement := range s.org.Placements() {
		if placement.LastURL == "" {
			continue
		}
		s.mu.Lock()
		_, live := s.tabs[placement.TabID]
		s.mu.Unlock()
		if live {
			continue
		}
		hint := &schema.PlacementHint{
			RealmID: placement.RealmID,
			DockID:  placement.DockID,
			Pinned:  placement.Pinned,
		}
		created, err := s.CreateTab(ctx, schema.CreateTabRequest{URL: placement.LastURL, Placement: hint})
		if err != nil {
			log.Warn("service tab restore failed", "url", placement.LastURL, "err", err)
			continue
		}
		s.org.RemovePlacement(placement.TabID)
		resp.Restored++
		resp.Tabs = append(resp.Tabs, created.Tab)
	}
	log.Info("service tabs restored", "count", resp.Restored)
	return resp, nil
}

// nextRealmAfter picks the realm following id in display order, wrapping.
func nextRealmAfter(realms []schema.Realm, id schema.RealmID) schema.RealmID {
	for i, realm := range realms {
		if realm.ID == id {
			return realms[(i+1)%len(realms)].ID
		}
	}
	return realms[0].ID
}
