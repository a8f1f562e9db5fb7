package schema

// Tab lifecycle.

// CreateTabRequest describes a request to create a tab.
type CreateTabRequest struct {
	// URL is optional; empty means the internal new-tab page.
	URL string
	// Placement optionally pre-places the tab before creation is observable.
	Placement *PlacementHint
	// Activate makes the new tab active even when others exist.
	Activate bool
}

// PlacementHint pre-places a freshly created tab.
type PlacementHint struct {
	RealmID RealmID
	DockID  DockID
	Pinned  bool
}

// CreateTabResponse reports the created tab.
type CreateTabResponse struct {
	Tab TabSnapshot
}

// CloseTabRequest describes a request to close a tab.
type CloseTabRequest struct {
	TabID TabID
}

// CloseTabResponse reports the close outcome. Closing an unknown tab is a
// no-op with Existed=false, not an error.
type CloseTabResponse struct {
	Tab     TabSnapshot
	Existed bool
}

// ActivateTabRequest describes a request to make a tab active.
type ActivateTabRequest struct {
	TabID TabID
}

// ActivateTabResponse reports the activated tab snapshot.
type ActivateTabResponse struct {
	Tab TabSnapshot
}

// ListTabsRequest describes a request to list tabs.
type ListTabsRequest struct{}

// ListTabsResponse reports tabs in creation order and the active pointer.
type ListTabsResponse struct {
	Tabs      []TabSnapshot
	ActiveTab TabID
}

// Navigation.

// NavigateRequest navigates a tab. Empty TabID targets the active tab.
type NavigateRequest struct {
	TabID TabID
	// Input is raw user input: a URL, a bare domain, or a search query.
	Input string
}

// NavigateResponse reports the resolved destination and tab state.
type NavigateResponse struct {
	Tab TabSnapshot
	URL string
}

// HistoryNavRequest asks the active (or given) tab to traverse its history
// or reload/stop the current load.
type HistoryNavRequest struct {
	TabID TabID
}

// HistoryNavResponse reports the tab after the traversal was requested.
type HistoryNavResponse struct {
	Tab TabSnapshot
}

// UpdateDisplayRequest merges a partial display-state update into a tab.
type UpdateDisplayRequest struct {
	TabID   TabID
	URL     *string
	Title   *string
	Favicon *string
	Loading *bool
}

// UpdateDisplayResponse reports the tab after the merge. Updates for unknown
// tabs are dropped with Existed=false.
type UpdateDisplayResponse struct {
	Tab     TabSnapshot
	Existed bool
}

// Realms.

// CreateRealmRequest describes a request to create a realm.
type CreateRealmRequest struct {
	Name     string
	Icon     string
	Color    string
	Template *RealmTemplate
}

// CreateRealmResponse reports the created realm and any templated docks.
type CreateRealmResponse struct {
	Realm Realm
	Docks []Dock
}

// UpdateRealmRequest updates mutable realm fields.
type UpdateRealmRequest struct {
	RealmID RealmID
	Name    *string
	Icon    *string
	Color   *string
}

// UpdateRealmResponse reports the realm after the update.
type UpdateRealmResponse struct {
	Realm Realm
}

// DeleteRealmRequest deletes a realm. Deleting the active realm re-points
// the active pointer atomically before the delete is observable.
type DeleteRealmRequest struct {
	RealmID RealmID
}

// DeleteRealmResponse reports the realm now active after the delete.
type DeleteRealmResponse struct {
	ActiveRealm RealmID
}

// SetActiveRealmRequest re-points the active realm.
type SetActiveRealmRequest struct {
	RealmID RealmID
}

// SetActiveRealmResponse reports the active realm after the change.
type SetActiveRealmResponse struct {
	ActiveRealm RealmID
}

// ReorderRealmsRequest rewrites realm ordering from the given id sequence.
type ReorderRealmsRequest struct {
	Ordered []RealmID
}

// ReorderRealmsResponse reports realms in their new order.
type ReorderRealmsResponse struct {
	Realms []Realm
}

// Docks.

// CreateDockRequest describes a request to create a dock in a realm.
type CreateDockRequest struct {
	RealmID RealmID
	Name    string
	Icon    string
	Color   string
}

// CreateDockResponse reports the created dock.
type CreateDockResponse struct {
	Dock Dock
}

// UpdateDockRequest updates mutable dock fields.
type UpdateDockRequest struct {
	DockID DockID
	Name   *string
	Icon   *string
	Color  *string
}

// UpdateDockResponse reports the dock after the update.
type UpdateDockResponse struct {
	Dock Dock
}

// ToggleDockRequest flips a dock's collapsed state.
type ToggleDockRequest struct {
	DockID DockID
}

// ToggleDockResponse reports the dock after the toggle.
type ToggleDockResponse struct {
	Dock Dock
}

// DeleteDockRequest deletes a dock; its tabs become loose in the same realm.
type DeleteDockRequest struct {
	DockID DockID
}

// DeleteDockResponse reports completion of the delete.
type DeleteDockResponse struct{}

// ReorderDocksRequest rewrites dock ordering within a realm.
type ReorderDocksRequest struct {
	RealmID RealmID
	Ordered []DockID
}

// ReorderDocksResponse reports the realm's docks in their new order.
type ReorderDocksResponse struct {
	Docks []Dock
}

// MoveDockRequest moves a dock to another realm, at the end of its dock list.
type MoveDockRequest struct {
	DockID  DockID
	RealmID RealmID
}

// MoveDockResponse reports the dock after the move.
type MoveDockResponse struct {
	Dock Dock
}

// Tab organization.

// GetPlacementRequest fetches a tab's placement.
type GetPlacementRequest struct {
	TabID TabID
}

// GetPlacementResponse reports the placement and its effective realm.
type GetPlacementResponse struct {
	Placement      Placement
	EffectiveRealm RealmID
}

// MoveTabToDockRequest places a tab at the end of a dock.
type MoveTabToDockRequest struct {
	TabID  TabID
	DockID DockID
}

// MoveTabToLooseRequest places a tab loose under a realm. Empty RealmID means
// the tab's current effective realm.
type MoveTabToLooseRequest struct {
	TabID   TabID
	RealmID RealmID
}

// MoveTabToRealmRequest places a tab loose at the end of another realm.
type MoveTabToRealmRequest struct {
	TabID   TabID
	RealmID RealmID
}

// MoveTabResponse reports the placement after any tab move.
type MoveTabResponse struct {
	Placement Placement
}

// PinTabRequest toggles a tab's pin state on or off.
type PinTabRequest struct {
	TabID  TabID
	Pinned bool
}

// PinTabResponse reports the placement after the pin change.
type PinTabResponse struct {
	Placement Placement
}

// ReorderDockTabsRequest rewrites tab ordering inside a dock.
type ReorderDockTabsRequest struct {
	DockID  DockID
	Ordered []TabID
}

// ReorderLooseTabsRequest rewrites loose-tab ordering inside a realm.
type ReorderLooseTabsRequest struct {
	RealmID RealmID
	Ordered []TabID
}

// ReorderTabsResponse reports the container's placements in their new order.
type ReorderTabsResponse struct {
	Placements []Placement
}

// Snapshot and collaborators.

// SidebarStateRequest fetches the full resync payload.
type SidebarStateRequest struct{}

// SidebarStateResponse carries the resync payload.
type SidebarStateResponse struct {
	State SidebarState
}

// SearchHistoryRequest searches visited URLs.
type SearchHistoryRequest struct {
	Query string
	Limit int
}

// SearchHistoryResponse reports matching history entries.
type SearchHistoryResponse struct {
	Entries []HistoryEntry
}

// FilterStatsRequest fetches content-filter counters.
type FilterStatsRequest struct{}

// FilterStatsResponse reports content-filter counters.
type FilterStatsResponse struct {
	Stats FilterStats
}

// ResetFilterStatsRequest zeroes the block counter.
type ResetFilterStatsRequest struct{}

// ResetFilterStatsResponse reports counters after the reset.
type ResetFilterStatsResponse struct {
	Stats FilterStats
}

// RestoreTabsRequest re-creates tabs for persisted placements on startup.
type RestoreTabsRequest struct{}

// RestoreTabsResponse reports how many placements were rebound to new tabs.
type RestoreTabsResponse struct {
	Restored int
	Tabs     []TabSnapshot
}
