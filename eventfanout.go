package graphite

import (
	"github.com/graphitebrowser/graphite/core"
	"github.com/graphitebrowser/graphite/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnTabEvent(event schema.TabEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTabEvent(event)
	}
}

func (f eventFanout) OnOrgEvent(event schema.OrgEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnOrgEvent(event)
	}
}

func (f eventFanout) OnFilterEvent(event schema.FilterEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnFilterEvent(event)
	}
}
