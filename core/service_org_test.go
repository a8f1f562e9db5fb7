package core

import (
	"context"
	"errors"
	"testing"

	"github.com/graphitebrowser/graphite/schema"
)

func TestDeleteActiveRealmRepointsBeforeDelete(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, err := h.service.CreateRealm(ctx, schema.CreateRealmRequest{Name: "Work"})
	if err != nil {
		t.Fatalf("create realm: %v", err)
	}
	if _, err := h.service.SetActiveRealm(ctx, schema.SetActiveRealmRequest{RealmID: created.Realm.ID}); err != nil {
		t.Fatalf("set active: %v", err)
	}
	resp, err := h.service.DeleteRealm(ctx, schema.DeleteRealmRequest{RealmID: created.Realm.ID})
	if err != nil {
		t.Fatalf("delete realm: %v", err)
	}
	if resp.ActiveRealm == created.Realm.ID || resp.ActiveRealm == "" {
		t.Fatalf("active realm still points at the deleted realm: %s", resp.ActiveRealm)
	}
	// The activation must be observable before the delete.
	var sawActivated bool
	for _, eventType := range h.sink.orgEventTypes() {
		if eventType == schema.OrgEventRealmActivated {
			sawActivated = true
		}
		if eventType == schema.OrgEventRealmDeleted && !sawActivated {
			t.Fatalf("realm-deleted emitted before realm-activated")
		}
	}
	if !sawActivated {
		t.Fatalf("no realm-activated event emitted")
	}
}

func TestDeleteLastRealmRejectedByService(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	only := state.State.Realms[0]
	_, err := h.service.DeleteRealm(ctx, schema.DeleteRealmRequest{RealmID: only.ID})
	if !errors.Is(err, schema.ErrLastRealm) {
		t.Fatalf("expected ErrLastRealm, got %v", err)
	}
}

func TestDeleteUnknownRealm(t *testing.T) {
	h := newTestService(t)
	_, err := h.service.DeleteRealm(context.Background(), schema.DeleteRealmRequest{RealmID: "realm-ghost"})
	if !errors.Is(err, schema.ErrRealmNotFound) {
		t.Fatalf("expected ErrRealmNotFound, got %v", err)
	}
}

func TestCreateRealmEmptyName(t *testing.T) {
	h := newTestService(t)
	_, err := h.service.CreateRealm(context.Background(), schema.CreateRealmRequest{Name: "  "})
	if !errors.Is(err, schema.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestDockLifecycleThroughService(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	realmID := state.State.Realms[0].ID

	created, err := h.service.CreateDock(ctx, schema.CreateDockRequest{RealmID: realmID, Name: "Reading"})
	if err != nil {
		t.Fatalf("create dock: %v", err)
	}
	name := "Reading List"
	updated, err := h.service.UpdateDock(ctx, schema.UpdateDockRequest{DockID: created.Dock.ID, Name: &name})
	if err != nil || updated.Dock.Name != "Reading List" {
		t.Fatalf("update dock: %v %+v", err, updated.Dock)
	}
	toggled, err := h.service.ToggleDock(ctx, schema.ToggleDockRequest{DockID: created.Dock.ID})
	if err != nil || !toggled.Dock.Collapsed {
		t.Fatalf("toggle dock: %v %+v", err, toggled.Dock)
	}
	if _, err := h.service.DeleteDock(ctx, schema.DeleteDockRequest{DockID: created.Dock.ID}); err != nil {
		t.Fatalf("delete dock: %v", err)
	}
	if _, err := h.service.DeleteDock(ctx, schema.DeleteDockRequest{DockID: created.Dock.ID}); !errors.Is(err, schema.ErrDockNotFound) {
		t.Fatalf("expected ErrDockNotFound on double delete, got %v", err)
	}
}

func TestMoveDockBetweenRealms(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	realmA := state.State.Realms[0].ID
	realmB, _ := h.service.CreateRealm(ctx, schema.CreateRealmRequest{Name: "B"})
	dock, _ := h.service.CreateDock(ctx, schema.CreateDockRequest{RealmID: realmA, Name: "D"})
	tab, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{})
	if _, err := h.service.MoveTabToDock(ctx, schema.MoveTabToDockRequest{TabID: tab.Tab.ID, DockID: dock.Dock.ID}); err != nil {
		t.Fatalf("move tab: %v", err)
	}
	moved, err := h.service.MoveDock(ctx, schema.MoveDockRequest{DockID: dock.Dock.ID, RealmID: realmB.Realm.ID})
	if err != nil {
		t.Fatalf("move dock: %v", err)
	}
	if moved.Dock.RealmID != realmB.Realm.ID {
		t.Fatalf("dock realm not updated: %+v", moved.Dock)
	}
	placement, err := h.service.GetPlacement(ctx, schema.GetPlacementRequest{TabID: tab.Tab.ID})
	if err != nil {
		t.Fatalf("get placement: %v", err)
	}
	if placement.EffectiveRealm != realmB.Realm.ID {
		t.Fatalf("tab did not follow its dock: %s", placement.EffectiveRealm)
	}
}

func TestGetPlacementUnknownTab(t *testing.T) {
	h := newTestService(t)
	_, err := h.service.GetPlacement(context.Background(), schema.GetPlacementRequest{TabID: "tab-ghost"})
	if !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestSidebarStateMergesTabsAndPlacements(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	first, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{})
	second, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	sidebar := state.State
	if len(sidebar.Realms) == 0 || sidebar.ActiveRealm == "" {
		t.Fatalf("sidebar missing realms: %+v", sidebar)
	}
	if len(sidebar.Tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(sidebar.Tabs))
	}
	for _, orgTab := range sidebar.Tabs {
		if orgTab.EffectiveRealm != sidebar.ActiveRealm {
			t.Fatalf("tab %s not in active realm", orgTab.ID)
		}
		if orgTab.Placement.TabID != orgTab.ID {
			t.Fatalf("placement mismatch for %s", orgTab.ID)
		}
	}
	if sidebar.Tabs[0].ID != first.Tab.ID || sidebar.Tabs[1].ID != second.Tab.ID {
		t.Fatalf("tabs out of creation order")
	}
}

func TestRealmSwitchLeavesPlacementsBehind(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	tab, err := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("create tab: %v", err)
	}
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	home := state.State.ActiveRealm

	other, err := h.service.CreateRealm(ctx, schema.CreateRealmRequest{Name: "Work"})
	if err != nil {
		t.Fatalf("create realm: %v", err)
	}
	if _, err := h.service.SetActiveRealm(ctx, schema.SetActiveRealmRequest{RealmID: other.Realm.ID}); err != nil {
		t.Fatalf("set active: %v", err)
	}

	placement, err := h.service.GetPlacement(ctx, schema.GetPlacementRequest{TabID: tab.Tab.ID})
	if err != nil {
		t.Fatalf("get placement: %v", err)
	}
	if placement.EffectiveRealm != home {
		t.Fatalf("tab followed the active realm: %s", placement.EffectiveRealm)
	}
	state, _ = h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	if state.State.ActiveRealm != other.Realm.ID {
		t.Fatalf("active realm not switched: %s", state.State.ActiveRealm)
	}
	if len(state.State.Tabs) != 1 || state.State.Tabs[0].EffectiveRealm != home {
		t.Fatalf("sidebar moved the tab out of its realm: %+v", state.State.Tabs)
	}
}

func TestCreateTabHintSurvivesConcurrentSidebarReads(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	dock, err := h.service.CreateDock(ctx, schema.CreateDockRequest{RealmID: state.State.ActiveRealm, Name: "Work"})
	if err != nil {
		t.Fatalf("create dock: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				_, _ = h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
			}
		}
	}()
	defer close(done)

	for i := 0; i < 25; i++ {
		created, err := h.service.CreateTab(ctx, schema.CreateTabRequest{
			Placement: &schema.PlacementHint{DockID: dock.Dock.ID},
		})
		if err != nil {
			t.Fatalf("create tab: %v", err)
		}
		placement, err := h.service.GetPlacement(ctx, schema.GetPlacementRequest{TabID: created.Tab.ID})
		if err != nil {
			t.Fatalf("get placement: %v", err)
		}
		if placement.Placement.DockID != dock.Dock.ID {
			t.Fatalf("placement hint lost on tab %s: %+v", created.Tab.ID, placement.Placement)
		}
	}
}

func TestReorderLooseTabsThroughService(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	first, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{})
	second, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{})
	state, _ := h.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	resp, err := h.service.ReorderLooseTabs(ctx, schema.ReorderLooseTabsRequest{
		RealmID: state.State.ActiveRealm,
		Ordered: []schema.TabID{second.Tab.ID, first.Tab.ID},
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(resp.Placements) != 2 || resp.Placements[0].TabID != second.Tab.ID {
		t.Fatalf("unexpected order: %+v", resp.Placements)
	}
}

func TestRestoreTabsRebindsPlacements(t *testing.T) {
	dir := t.TempDir()
	h := newTestServiceWithDir(t, dir)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com/docs"})
	if _, err := h.service.PinTab(ctx, schema.PinTabRequest{TabID: created.Tab.ID, Pinned: true}); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := h.service.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	restarted := newTestServiceWithDir(t, dir)
	resp, err := restarted.service.RestoreTabs(ctx, schema.RestoreTabsRequest{})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if resp.Restored != 1 {
		t.Fatalf("expected 1 restored tab, got %d", resp.Restored)
	}
	tab := resp.Tabs[0]
	if tab.URL != "https://example.com/docs" {
		t.Fatalf("restored wrong URL: %s", tab.URL)
	}
	if tab.ID == created.Tab.ID {
		t.Fatalf("restored tab reused a dead id")
	}
	placement, err := restarted.service.GetPlacement(ctx, schema.GetPlacementRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("get placement: %v", err)
	}
	if !placement.Placement.Pinned {
		t.Fatalf("pin state lost across restart")
	}
	// The stale placement is gone once the replacement exists.
	state, _ := restarted.service.GetSidebarState(ctx, schema.SidebarStateRequest{})
	if len(state.State.Tabs) != 1 {
		t.Fatalf("expected a single placement after restore, got %d", len(state.State.Tabs))
	}
}

func TestSearchHistoryThroughService(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	h.engine.session(created.Tab.ID).emit(PageEvent{Type: PageEventLoadFinished, URL: "https://example.com"})
	h.sink.waitTabEvent(t, func(e schema.TabEvent) bool {
		return e.Tab.ID == created.Tab.ID && e.Tab.State == schema.LoadStateLoaded
	})
	resp, err := h.service.SearchHistory(ctx, schema.SearchHistoryRequest{Query: "example"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].URL != "https://example.com" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}
