package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/graphitebrowser/graphite/internal/logx"
	"github.com/graphitebrowser/graphite/schema"
)

// StreamEvent is sent to SSE clients on /api/stream.
type StreamEvent struct {
	Seq         uint64              `json:"seq,omitempty"`
	Type        string              `json:"type"`
	TabEvent    string              `json:"tab_event,omitempty"`
	Tab         *schema.TabSnapshot `json:"tab,omitempty"`
	ActiveTab   schema.TabID        `json:"active_tab,omitempty"`
	OrgEvent    string              `json:"org_event,omitempty"`
	Realm       *schema.Realm       `json:"realm,omitempty"`
	Dock        *schema.Dock        `json:"dock,omitempty"`
	Placement   *schema.Placement   `json:"placement,omitempty"`
	ActiveRealm schema.RealmID      `json:"active_realm,omitempty"`
	Filter      *schema.FilterStats `json:"filter,omitempty"`
	Snapshot    *SnapshotPayload    `json:"snapshot,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Sidebar schema.SidebarState `json:"sidebar"`
	Filter  schema.FilterStats  `json:"filter"`
	Agent   schema.AgentStatus  `json:"agent"`
}

// Hub broadcasts service events to stream subscribers and keeps a bounded
// replay buffer keyed by sequence number.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
}

// NewHub constructs a hub with the given replay buffer size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnTabEvent implements core.EventSink.
func (h *Hub) OnTabEvent(event schema.TabEvent) {
	log := logx.WithTab(context.Background(), event.Tab.ID)
	log.Trace("hub tab event", "type", event.Type, "active", event.ActiveTab)
	tab := event.Tab
	h.publish(StreamEvent{
		Type:      "tab",
		TabEvent:  string(event.Type),
		Tab:       &tab,
		ActiveTab: event.ActiveTab,
		Timestamp: time.Now(),
	})
}

// OnOrgEvent implements core.EventSink.
func (h *Hub) OnOrgEvent(event schema.OrgEvent) {
	log := logx.Ctx(context.Background())
	log.Trace("hub org event", "type", event.Type, "active_realm", event.ActiveRealm)
	h.publish(StreamEvent{
		Type:        "org",
		OrgEvent:    string(event.Type),
		Realm:       event.Realm,
		Dock:        event.Dock,
		Placement:   event.Placement,
		ActiveRealm: event.ActiveRealm,
		Timestamp:   time.Now(),
	})
}

// OnFilterEvent implements core.EventSink.
func (h *Hub) OnFilterEvent(event schema.FilterEvent) {
	log := logx.Ctx(context.Background())
	log.Trace("hub filter event", "blocked", event.Stats.BlockedCount)
	stats := event.Stats
	h.publish(StreamEvent{
		Type:      "filter",
		Filter:    &stats,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a stream subscriber. The returned seq is the sequence
// number of the newest buffered event at subscription time.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	seq := h.seq
	count := len(h.subs)
	h.mu.Unlock()
	log := logx.Ctx(context.Background())
	log.Info("hub subscribe", "subs", count, "seq", seq)
	unsub := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		remaining := len(h.subs)
		h.mu.Unlock()
		log.Info("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub, seq
}

// Replay returns buffered events with a sequence number after the given one.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.Ctx(context.Background()).Debug("hub replay", "after", after, "count", len(events))
	return events
}

// publish delivers under the lock so an unsubscribing reader can not close
// its channel between the snapshot and the send. Sends never block; a full
// subscriber drops the event and catches up from the replay buffer.
func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		logx.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
