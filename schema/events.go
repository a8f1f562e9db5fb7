package schema

// TabEventType describes tab lifecycle or display-state changes.
type TabEventType string

const (
	// TabEventCreated indicates a tab was created.
	TabEventCreated TabEventType = "created"
	// TabEventClosed indicates a tab was closed.
	TabEventClosed TabEventType = "closed"
	// TabEventActivated indicates a tab became active.
	TabEventActivated TabEventType = "activated"
	// TabEventUpdated indicates a tab's display state changed.
	TabEventUpdated TabEventType = "updated"
)

// TabEvent represents a change to a tab or the active pointer.
type TabEvent struct {
	Type      TabEventType
	Tab       TabSnapshot
	ActiveTab TabID
}

// OrgEventType describes organization hierarchy changes.
type OrgEventType string

const (
	// OrgEventRealmCreated indicates a realm was created.
	OrgEventRealmCreated OrgEventType = "realm-created"
	// OrgEventRealmUpdated indicates a realm was updated.
	OrgEventRealmUpdated OrgEventType = "realm-updated"
	// OrgEventRealmDeleted indicates a realm was deleted.
	OrgEventRealmDeleted OrgEventType = "realm-deleted"
	// OrgEventRealmActivated indicates the active realm changed.
	OrgEventRealmActivated OrgEventType = "realm-activated"
	// OrgEventRealmsReordered indicates realm ordering changed.
	OrgEventRealmsReordered OrgEventType = "realms-reordered"
	// OrgEventDockCreated indicates a dock was created.
	OrgEventDockCreated OrgEventType = "dock-created"
	// OrgEventDockUpdated indicates a dock was updated.
	OrgEventDockUpdated OrgEventType = "dock-updated"
	// OrgEventDockDeleted indicates a dock was deleted.
	OrgEventDockDeleted OrgEventType = "dock-deleted"
	// OrgEventDockMoved indicates a dock changed realms.
	OrgEventDockMoved OrgEventType = "dock-moved"
	// OrgEventDocksReordered indicates dock ordering changed within a realm.
	OrgEventDocksReordered OrgEventType = "docks-reordered"
	// OrgEventPlacementChanged indicates a tab's placement changed.
	OrgEventPlacementChanged OrgEventType = "placement-changed"
)

// OrgEvent represents a change to the organization hierarchy. Only the
// fields relevant to the event type are populated.
type OrgEvent struct {
	Type        OrgEventType
	Realm       *Realm
	Dock        *Dock
	Placement   *Placement
	ActiveRealm RealmID
}

// FilterEvent carries the block counter after a content-filter decision.
type FilterEvent struct {
	Stats FilterStats
}
