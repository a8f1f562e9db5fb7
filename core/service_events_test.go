package core

import (
	"context"
	"testing"
	"time"

	"github.com/graphitebrowser/graphite/schema"
)

func TestLoadFinishedReconcilesRedirectedURL(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	session := h.engine.session(created.Tab.ID)
	session.emit(PageEvent{
		Type: PageEventLoadFinished,
		URL:  "https://www.example.com/landing",
		Nav:  schema.NavState{CanGoBack: true},
	})
	event := h.sink.waitTabEvent(t, func(e schema.TabEvent) bool {
		return e.Type == schema.TabEventUpdated && e.Tab.ID == created.Tab.ID && e.Tab.State == schema.LoadStateLoaded
	})
	if event.Tab.URL != "https://www.example.com/landing" {
		t.Fatalf("display URL not reconciled: %s", event.Tab.URL)
	}
	if event.Tab.Loading {
		t.Fatalf("still loading after load finished")
	}
	if !event.Tab.Nav.CanGoBack {
		t.Fatalf("nav state not carried over")
	}
}

func TestTitleAndFaviconEvents(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	session := h.engine.session(created.Tab.ID)
	session.emit(PageEvent{Type: PageEventTitleChanged, Title: "Example Domain"})
	session.emit(PageEvent{Type: PageEventFaviconChanged, Favicon: "https://example.com/favicon.ico"})
	event := h.sink.waitTabEvent(t, func(e schema.TabEvent) bool {
		return e.Tab.ID == created.Tab.ID && e.Tab.Favicon != ""
	})
	if event.Tab.Title != "Example Domain" {
		t.Fatalf("title not applied: %q", event.Tab.Title)
	}
}

func TestPlaceholderTabSuppressesEngineEvents(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{})
	session := h.engine.session(created.Tab.ID)
	session.emit(PageEvent{Type: PageEventURLChanged, URL: schema.PlaceholderDocument})
	session.emit(PageEvent{Type: PageEventTitleChanged, Title: "about:blank"})
	session.emit(PageEvent{Type: PageEventLoadFinished, URL: schema.PlaceholderDocument})
	time.Sleep(100 * time.Millisecond)
	list, _ := h.service.ListTabs(ctx, schema.ListTabsRequest{})
	tab := list.Tabs[0]
	if tab.URL != schema.NewTabURL {
		t.Fatalf("blank document leaked into the snapshot: %s", tab.URL)
	}
	if tab.Title != "" {
		t.Fatalf("blank document title leaked: %q", tab.Title)
	}
}

func TestLateEventsFromClosedTabDropped(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	first, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	second, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.org"})
	session := h.engine.session(first.Tab.ID)
	if _, err := h.service.CloseTab(ctx, schema.CloseTabRequest{TabID: first.Tab.ID}); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Events from a torn-down session must not resurrect the tab.
	s := h.service.(*service)
	s.handlePageEvent(first.Tab.ID, session, PageEvent{Type: PageEventTitleChanged, Title: "ghost"})
	time.Sleep(50 * time.Millisecond)
	if h.sink.hasTabEvent(func(e schema.TabEvent) bool {
		return e.Type == schema.TabEventUpdated && e.Tab.ID == first.Tab.ID && e.Tab.Title == "ghost"
	}) {
		t.Fatalf("late event was applied")
	}
	list, _ := h.service.ListTabs(ctx, schema.ListTabsRequest{})
	if len(list.Tabs) != 1 || list.Tabs[0].ID != second.Tab.ID {
		t.Fatalf("tab set corrupted by late event")
	}
}

func TestLoadFinishedRecordsHistory(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	session := h.engine.session(created.Tab.ID)
	session.emit(PageEvent{Type: PageEventLoadFinished, URL: "https://example.com"})
	h.sink.waitTabEvent(t, func(e schema.TabEvent) bool {
		return e.Tab.ID == created.Tab.ID && e.Tab.State == schema.LoadStateLoaded
	})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if entry, ok := h.history.entry("https://example.com"); ok && entry.Visits == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("visit never recorded")
}

func TestTitleChangeUpdatesHistoryTitle(t *testing.T) {
	h := newTestService(t)
	ctx := context.Background()
	created, _ := h.service.CreateTab(ctx, schema.CreateTabRequest{URL: "https://example.com"})
	session := h.engine.session(created.Tab.ID)
	session.emit(PageEvent{Type: PageEventLoadFinished, URL: "https://example.com"})
	session.emit(PageEvent{Type: PageEventTitleChanged, Title: "Example Domain"})
	h.sink.waitTabEvent(t, func(e schema.TabEvent) bool {
		return e.Tab.ID == created.Tab.ID && e.Tab.Title == "Example Domain"
	})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if entry, ok := h.history.entry("https://example.com"); ok && entry.Title == "Example Domain" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("history title never updated")
}
