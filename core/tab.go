package core

import (
	"context"

	"github.com/graphitebrowser/graphite/schema"
)

// tab tracks the state of a single live session.
type tab struct {
	ID      schema.TabID
	URL     string
	Title   string
	Favicon string
	Loading bool
	State   schema.LoadState
	Nav     schema.NavState

	// Placeholder marks a tab showing an internal page. The engine session
	// holds a blank document behind it, and engine events for that document
	// are suppressed so the internal URL never leaks out of the snapshot.
	Placeholder bool

	session    PageSession
	pumpCancel context.CancelFunc
}

// Snapshot returns a transport-friendly view of the tab.
func (t *tab) Snapshot(active bool) schema.TabSnapshot {
	return schema.TabSnapshot{
		ID:      t.ID,
		URL:     t.URL,
		Title:   t.Title,
		Favicon: t.Favicon,
		Loading: t.Loading,
		State:   t.State,
		Active:  active,
		Nav:     t.Nav,
	}
}
