package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/graphitebrowser/graphite/schema"
)

type fakeSession struct {
	mu          sync.Mutex
	tabID       schema.TabID
	navigations []string
	backs       int
	forwards    int
	reloads     int
	stops       int
	closed      bool
	closeOnce   sync.Once
	events      chan PageEvent
}

func newFakeSession(tabID schema.TabID) *fakeSession {
	return &fakeSession{tabID: tabID, events: make(chan PageEvent, 32)}
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeSession) GoBack(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backs++
	return nil
}

func (f *fakeSession) GoForward(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards++
	return nil
}

func (f *fakeSession) Reload(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return nil
}

func (f *fakeSession) Stop(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSession) Events() <-chan PageEvent { return f.events }

func (f *fakeSession) Close(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

func (f *fakeSession) emit(event PageEvent) {
	f.events <- event
}

func (f *fakeSession) lastNavigation() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.navigations) == 0 {
		return ""
	}
	return f.navigations[len(f.navigations)-1]
}

type fakeEngine struct {
	mu       sync.Mutex
	sessions map[schema.TabID]*fakeSession
	order    []*fakeSession
	failWith error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{sessions: make(map[schema.TabID]*fakeSession)}
}

func (e *fakeEngine) Acquire(ctx context.Context, tabID schema.TabID, url string) (PageSession, error) {
	_ = ctx
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failWith != nil {
		return nil, e.failWith
	}
	session := newFakeSession(tabID)
	session.navigations = append(session.navigations, url)
	e.sessions[tabID] = session
	e.order = append(e.order, session)
	return session, nil
}

func (e *fakeEngine) Close() error { return nil }

func (e *fakeEngine) session(tabID schema.TabID) *fakeSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[tabID]
}

type fakeHistory struct {
	mu      sync.Mutex
	visits  []schema.HistoryEntry
	closed  bool
	nowUnix int64
}

func (h *fakeHistory) Append(ctx context.Context, url, title string) error {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.visits {
		if h.visits[i].URL == url {
			h.visits[i].Visits++
			if title != "" {
				h.visits[i].Title = title
			}
			return nil
		}
	}
	h.visits = append(h.visits, schema.HistoryEntry{URL: url, Title: title, Visits: 1, LastVisit: h.nowUnix})
	return nil
}

func (h *fakeHistory) SetTitle(ctx context.Context, url, title string) error {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.visits {
		if h.visits[i].URL == url {
			h.visits[i].Title = title
		}
	}
	return nil
}

func (h *fakeHistory) Search(ctx context.Context, query string, limit int) ([]schema.HistoryEntry, error) {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []schema.HistoryEntry
	for _, entry := range h.visits {
		if query == "" || strings.Contains(entry.URL, query) || strings.Contains(entry.Title, query) {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (h *fakeHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHistory) entry(url string) (schema.HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, entry := range h.visits {
		if entry.URL == url {
			return entry, true
		}
	}
	return schema.HistoryEntry{}, false
}

type captureSink struct {
	mu           sync.Mutex
	tabEvents    []schema.TabEvent
	orgEvents    []schema.OrgEvent
	filterEvents []schema.FilterEvent
}

func (c *captureSink) OnTabEvent(event schema.TabEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabEvents = append(c.tabEvents, event)
}

func (c *captureSink) OnOrgEvent(event schema.OrgEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orgEvents = append(c.orgEvents, event)
}

func (c *captureSink) OnFilterEvent(event schema.FilterEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filterEvents = append(c.filterEvents, event)
}

// waitTabEvent polls for a tab event matching the predicate. Pump goroutines
// deliver events asynchronously, so tests wait instead of asserting inline.
func (c *captureSink) waitTabEvent(t *testing.T, match func(schema.TabEvent) bool) schema.TabEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for _, event := range c.tabEvents {
			if match(event) {
				c.mu.Unlock()
				return event
			}
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("tab event did not arrive")
	return schema.TabEvent{}
}

func (c *captureSink) hasTabEvent(match func(schema.TabEvent) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, event := range c.tabEvents {
		if match(event) {
			return true
		}
	}
	return false
}

func (c *captureSink) orgEventTypes() []schema.OrgEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]schema.OrgEventType, 0, len(c.orgEvents))
	for _, event := range c.orgEvents {
		types = append(types, event.Type)
	}
	return types
}

type testHarness struct {
	service Service
	engine  *fakeEngine
	sink    *captureSink
	history *fakeHistory
}

func newTestService(t *testing.T) *testHarness {
	t.Helper()
	return newTestServiceWithDir(t, t.TempDir())
}

func newTestServiceWithDir(t *testing.T, stateDir string) *testHarness {
	t.Helper()
	engine := newFakeEngine()
	sink := &captureSink{}
	history := &fakeHistory{nowUnix: time.Now().Unix()}
	svc, err := NewService(schema.ServiceConfig{
		StateDir:        stateDir,
		PersistInterval: time.Millisecond,
	}, ServiceDeps{
		Engine:    engine,
		History:   history,
		EventSink: sink,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return &testHarness{service: svc, engine: engine, sink: sink, history: history}
}
