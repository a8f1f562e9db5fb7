package core

import (
	"context"

	"github.com/graphitebrowser/graphite/schema"
)

// startPumpLocked spawns the goroutine that drains the session's event
// channel into the reconciler. Caller holds the service lock.
func (s *service) startPumpLocked(t *tab) {
	if t.session == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.pumpCancel = cancel
	session := t.session
	tabID := t.ID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-session.Events():
				if !ok {
					return
				}
				s.handlePageEvent(tabID, session, event)
			}
		}
	}()
}

// handlePageEvent reconciles one engine-side page event into tab state.
// Events for closed tabs, rebound sessions, or placeholder tabs are dropped:
// the blank document backing an internal page must never overwrite the
// internal URL in the snapshot.
func (s *service) handlePageEvent(tabID schema.TabID, session PageSession, event PageEvent) {
	s.mu.Lock()
	t, ok := s.tabs[tabID]
	if !ok || t.session != session {
		s.mu.Unlock()
		return
	}
	if t.Placeholder {
		s.mu.Unlock()
		return
	}

	var visitURL string
	titleChanged := false
	switch event.Type {
	case PageEventLoadStarted:
		t.Loading = true
		t.State = schema.LoadStateLoading
	case PageEventLoadFinished:
		t.Loading = false
		t.State = schema.LoadStateLoaded
		if event.URL != "" {
			// Redirects settle here; the display URL follows the document.
			t.URL = event.URL
		}
		t.Nav = event.Nav
		visitURL = t.URL
	case PageEventURLChanged:
		if event.URL != "" {
			t.URL = event.URL
		}
		t.Nav = event.Nav
		visitURL = t.URL
	case PageEventTitleChanged:
		t.Title = event.Title
		titleChanged = true
	case PageEventFaviconChanged:
		t.Favicon = event.Favicon
	default:
		s.mu.Unlock()
		return
	}
	snapshot := t.Snapshot(s.active == tabID)
	active := s.active
	s.mu.Unlock()

	if visitURL != "" && !schema.IsInternalURL(visitURL) {
		s.org.SetLastURL(tabID, visitURL)
		if event.Type == PageEventLoadFinished && s.history != nil {
			if err := s.history.Append(context.Background(), visitURL, snapshot.Title); err != nil {
				s.logger.Warn("service history append failed", "tab", tabID, "err", err)
			}
		}
	}
	if titleChanged && s.history != nil && !schema.IsInternalURL(snapshot.URL) {
		if err := s.history.SetTitle(context.Background(), snapshot.URL, snapshot.Title); err != nil {
			s.logger.Warn("service history title update failed", "tab", tabID, "err", err)
		}
	}
	s.emitTabEvent(schema.TabEvent{Type: schema.TabEventUpdated, Tab: snapshot, ActiveTab: active})
}
