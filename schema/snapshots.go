package schema

// LoadState describes where a tab is in its load cycle.
type LoadState string

const (
	// LoadStateCreated indicates a tab that has not started loading yet.
	LoadStateCreated LoadState = "created"
	// LoadStateLoading indicates a load is in flight.
	LoadStateLoading LoadState = "loading"
	// LoadStateLoaded indicates the last load finished.
	LoadStateLoaded LoadState = "loaded"
)

// NavState reports the session's history traversal capability.
type NavState struct {
	CanGoBack    bool `json:"can_go_back"`
	CanGoForward bool `json:"can_go_forward"`
}

// TabSnapshot is a read-only view of tab state for transports.
type TabSnapshot struct {
	ID      TabID     `json:"id"`
	URL     string    `json:"url"`
	Title   string    `json:"title,omitempty"`
	Favicon string    `json:"favicon,omitempty"`
	Loading bool      `json:"loading"`
	State   LoadState `json:"state"`
	Active  bool      `json:"active"`
	Nav     NavState  `json:"nav"`
}

// OrgTab is a tab snapshot merged with its resolved placement.
type OrgTab struct {
	TabSnapshot
	Placement Placement `json:"placement"`
	// EffectiveRealm is dock.RealmID when docked, Placement.RealmID otherwise.
	EffectiveRealm RealmID `json:"effective_realm"`
}

// SidebarState is the canonical resync payload after structural changes.
type SidebarState struct {
	ActiveRealm RealmID  `json:"active_realm"`
	Realms      []Realm  `json:"realms"`
	Docks       []Dock   `json:"docks"`
	Tabs        []OrgTab `json:"tabs"`
}

// HistoryEntry is one visited-URL record.
type HistoryEntry struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Visits    int    `json:"visits"`
	LastVisit int64  `json:"last_visit"`
}

// FilterStats reports content-filter gateway counters.
type FilterStats struct {
	Enabled      bool   `json:"enabled"`
	HTTPSUpgrade bool   `json:"https_upgrade"`
	BlockedCount uint64 `json:"blocked_count"`
}

// AgentStatus reports the automation agent control state.
type AgentStatus struct {
	Running bool `json:"running"`
	Paused  bool `json:"paused"`
}
