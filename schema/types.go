package schema

// TabID identifies a live tab session. Generated per process run, never reused.
type TabID string

// RealmID identifies a realm (top-level workspace).
type RealmID string

// DockID identifies a dock (tab container within a realm).
type DockID string

// SessionID identifies the underlying page-rendering session of a tab.
type SessionID string

// Realm is a top-level workspace grouping docks and tabs.
type Realm struct {
	ID    RealmID `json:"id"`
	Name  string  `json:"name"`
	Icon  string  `json:"icon,omitempty"`
	Color string  `json:"color,omitempty"`
	Order int     `json:"order"`
}

// Dock is a named tab container owned by exactly one realm.
type Dock struct {
	ID        DockID  `json:"id"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon,omitempty"`
	Color     string  `json:"color,omitempty"`
	RealmID   RealmID `json:"realm_id"`
	Order     int     `json:"order"`
	Collapsed bool    `json:"collapsed"`
}

// Placement records where a tab sits in the realm/dock hierarchy.
//
// RealmID is the nominal realm; once DockID is set the effective realm is
// derived from the dock. Resolve through an EffectiveRealm lookup, never by
// reading RealmID directly on a docked placement.
type Placement struct {
	TabID   TabID   `json:"tab_id"`
	RealmID RealmID `json:"realm_id"`
	DockID  DockID  `json:"dock_id,omitempty"`
	Order   int     `json:"order"`
	Pinned  bool    `json:"pinned"`
	// LastURL is the tab's last navigated URL, kept so placements can be
	// rebound to fresh tabs on startup restore.
	LastURL string `json:"last_url,omitempty"`
}

// Loose reports whether the placement sits directly under its realm.
func (p Placement) Loose() bool {
	return p.DockID == ""
}

// DockTemplate seeds a dock when creating a realm from a template.
type DockTemplate struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// RealmTemplate provisions a realm together with its docks.
type RealmTemplate struct {
	Docks []DockTemplate `json:"docks,omitempty"`
}
