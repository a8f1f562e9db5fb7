package core

import "github.com/graphitebrowser/graphite/schema"

// EventSink receives tab, organization, and filter events from the service.
// Callbacks run on service goroutines and must not block.
type EventSink interface {
	OnTabEvent(event schema.TabEvent)
	OnOrgEvent(event schema.OrgEvent)
	OnFilterEvent(event schema.FilterEvent)
}
