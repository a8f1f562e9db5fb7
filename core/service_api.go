package core

import (
	"context"

	"github.com/graphitebrowser/graphite/schema"
)

// Service is the transport-agnostic command surface of the browser shell.
// Every transport (HTTP, automation agent, tests) speaks this interface and
// nothing else.
type Service interface {
	// Tab lifecycle.
	CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error)
	CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error)
	ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error)
	ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error)

	// Navigation. Requests with an empty TabID target the active tab.
	Navigate(ctx context.Context, req schema.NavigateRequest) (schema.NavigateResponse, error)
	GoBack(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error)
	GoForward(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error)
	Reload(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error)
	StopLoading(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error)
	UpdateDisplay(ctx context.Context, req schema.UpdateDisplayRequest) (schema.UpdateDisplayResponse, error)

	// Realms.
	CreateRealm(ctx context.Context, req schema.CreateRealmRequest) (schema.CreateRealmResponse, error)
	UpdateRealm(ctx context.Context, req schema.UpdateRealmRequest) (schema.UpdateRealmResponse, error)
	DeleteRealm(ctx context.Context, req schema.DeleteRealmRequest) (schema.DeleteRealmResponse, error)
	SetActiveRealm(ctx context.Context, req schema.SetActiveRealmRequest) (schema.SetActiveRealmResponse, error)
	ReorderRealms(ctx context.Context, req schema.ReorderRealmsRequest) (schema.ReorderRealmsResponse, error)

	// Docks.
	CreateDock(ctx context.Context, req schema.CreateDockRequest) (schema.CreateDockResponse, error)
	UpdateDock(ctx context.Context, req schema.UpdateDockRequest) (schema.UpdateDockResponse, error)
	ToggleDock(ctx context.Context, req schema.ToggleDockRequest) (schema.ToggleDockResponse, error)
	DeleteDock(ctx context.Context, req schema.DeleteDockRequest) (schema.DeleteDockResponse, error)
	ReorderDocks(ctx context.Context, req schema.ReorderDocksRequest) (schema.ReorderDocksResponse, error)
	MoveDock(ctx context.Context, req schema.MoveDockRequest) (schema.MoveDockResponse, error)

	// Tab organization.
	GetPlacement(ctx context.Context, req schema.GetPlacementRequest) (schema.GetPlacementResponse, error)
	MoveTabToDock(ctx context.Context, req schema.MoveTabToDockRequest) (schema.MoveTabResponse, error)
	MoveTabToLoose(ctx context.Context, req schema.MoveTabToLooseRequest) (schema.MoveTabResponse, error)
	MoveTabToRealm(ctx context.Context, req schema.MoveTabToRealmRequest) (schema.MoveTabResponse, error)
	PinTab(ctx context.Context, req schema.PinTabRequest) (schema.PinTabResponse, error)
	ReorderDockTabs(ctx context.Context, req schema.ReorderDockTabsRequest) (schema.ReorderTabsResponse, error)
	ReorderLooseTabs(ctx context.Context, req schema.ReorderLooseTabsRequest) (schema.ReorderTabsResponse, error)

	// Snapshots and collaborators.
	GetSidebarState(ctx context.Context, req schema.SidebarStateRequest) (schema.SidebarStateResponse, error)
	SearchHistory(ctx context.Context, req schema.SearchHistoryRequest) (schema.SearchHistoryResponse, error)
	FilterStats(ctx context.Context, req schema.FilterStatsRequest) (schema.FilterStatsResponse, error)
	ResetFilterStats(ctx context.Context, req schema.ResetFilterStatsRequest) (schema.ResetFilterStatsResponse, error)
	RestoreTabs(ctx context.Context, req schema.RestoreTabsRequest) (schema.RestoreTabsResponse, error)

	// Close flushes organization state and tears down live sessions.
	Close() error
}
