package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/graphitebrowser/graphite/internal/logx"
	"github.com/graphitebrowser/graphite/org"
	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// service implements the core service behavior.
type service struct {
	cfg     schema.ServiceConfig
	engine  Engine
	filter  *Gateway
	history History
	sink    EventSink
	org     *org.Store
	logger  pslog.Logger

	mu     sync.Mutex
	tabs   map[schema.TabID]*tab
	order  []schema.TabID
	active schema.TabID
	closed bool
	wg     sync.WaitGroup
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	store, err := org.NewStore(org.Config{
		StateDir:        cfg.StateDir,
		PersistInterval: cfg.PersistInterval,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	s := &service{
		cfg:     cfg,
		engine:  deps.Engine,
		filter:  deps.Filter,
		history: deps.History,
		sink:    deps.EventSink,
		org:     store,
		logger:  logger,
		tabs:    make(map[schema.TabID]*tab),
	}
	if s.filter != nil {
		s.filter.setNotify(s.emitFilterStats)
	}
	return s, nil
}

func (s *service) CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error) {
	if ctx == nil {
		return schema.CreateTabResponse{}, errors.New("missing context")
	}
	target := strings.TrimSpace(req.URL)
	if target == "" {
		target = s.cfg.HomeURL
	}
	if !schema.IsInternalURL(target) {
		normalized, err := schema.NormalizeInput(target, s.cfg.SearchTemplate)
		if err != nil {
			return schema.CreateTabResponse{}, err
		}
		target = normalized
	}

	tabID := schema.TabID("tab-" + newID())
	log := pslog.Ctx(ctx).With("tab", tabID)

	placeholder := schema.IsInternalURL(target)
	backing := target
	if placeholder {
		backing = schema.PlaceholderDocument
	}

	// Session acquisition can block on engine startup, so it happens outside
	// the service lock.
	session, err := s.acquireSession(ctx, tabID, backing)
	if err != nil {
		log.Warn("service tab create failed", "err", err)
		return schema.CreateTabResponse{}, err
	}

	t := &tab{
		ID:          tabID,
		URL:         target,
		State:       schema.LoadStateCreated,
		Placeholder: placeholder,
		session:     session,
	}
	if placeholder {
		t.State = schema.LoadStateLoaded
	} else {
		t.Loading = true
		t.State = schema.LoadStateLoading
	}

	// The placement must exist before the tab is listable; a concurrent
	// sidebar read would otherwise record a default one and drop the hint.
	placement := s.org.EnsurePlacement(tabID, req.Placement)
	if !placeholder {
		s.org.SetLastURL(tabID, target)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.org.RemovePlacement(tabID)
		s.teardownSession(t)
		return schema.CreateTabResponse{}, schema.ErrServiceClosed
	}
	s.tabs[tabID] = t
	s.order = append(s.order, tabID)
	activated := req.Activate || s.active == ""
	if activated {
		s.active = tabID
	}
	active := s.active
	snapshot := t.Snapshot(active == tabID)
	s.startPumpLocked(t)
	s.mu.Unlock()

	s.emitTabEvent(schema.TabEvent{Type: schema.TabEventCreated, Tab: snapshot, ActiveTab: active})
	if activated {
		s.emitTabEvent(schema.TabEvent{Type: schema.TabEventActivated, Tab: snapshot, ActiveTab: active})
	}
	s.emitOrgEvent(schema.OrgEvent{Type: schema.OrgEventPlacementChanged, Placement: &placement})
	log.Info("service tab created", "url", target, "placeholder", placeholder)
	return schema.CreateTabResponse{Tab: snapshot}, nil
}

func (s *service) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	log := logx.WithTab(ctx, req.TabID)

	s.mu.Lock()
	t, ok := s.tabs[req.TabID]
	if !ok {
		s.mu.Unlock()
		// Closing an unknown tab is the expected race with an engine-side
		// close, not an error.
		log.Debug("service tab close ignored, unknown tab")
		return schema.CloseTabResponse{Existed: false}, nil
	}
	delete(s.tabs, req.TabID)
	s.order = removeTabID(s.order, req.TabID)
	snapshot := t.Snapshot(false)
	var activatedEvent *schema.TabEvent
	replace := false
	if s.active == req.TabID {
		if len(s.order) > 0 {
			// The most recently created tab takes over.
			s.active = s.order[len(s.order)-1]
			next := s.tabs[s.active]
			event := schema.TabEvent{Type: schema.TabEventActivated, Tab: next.Snapshot(true), ActiveTab: s.active}
			activatedEvent = &event
		} else {
			s.active = ""
			replace = !s.closed
		}
	}
	active := s.active
	s.mu.Unlock()

	s.org.RemovePlacement(req.TabID)
	s.teardownSession(t)
	s.emitTabEvent(schema.TabEvent{Type: schema.TabEventClosed, Tab: snapshot, ActiveTab: active})
	if activatedEvent != nil {
		s.emitTabEvent(*activatedEvent)
	}
	if replace {
		// The shell never runs with zero tabs.
		if _, err := s.CreateTab(ctx, schema.CreateTabRequest{Activate: true}); err != nil {
			log.Warn("service replacement tab create failed", "err", err)
		}
	}
	log.Info("service tab closed")
	return schema.CloseTabResponse{Tab: snapshot, Existed: true}, nil
}

func (s *service) ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error) {
	log := logx.WithTab(ctx, req.TabID)
	s.mu.Lock()
	t, ok := s.tabs[req.TabID]
	if !ok {
		s.mu.Unlock()
		log.Warn("service tab activate failed", "err", schema.ErrTabNotFound)
		return schema.ActivateTabResponse{}, schema.ErrTabNotFound
	}
	s.active = req.TabID
	snapshot := t.Snapshot(true)
	s.mu.Unlock()
	s.emitTabEvent(schema.TabEvent{Type: schema.TabEventActivated, Tab: snapshot, ActiveTab: req.TabID})
	return schema.ActivateTabResponse{Tab: snapshot}, nil
}

func (s *service) ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error) {
	_ = ctx
	_ = req
	s.mu.Lock()
	defer s.mu.Unlock()
	tabs := make([]schema.TabSnapshot, 0, len(s.order))
	for _, id := range s.order {
		t := s.tabs[id]
		if t == nil {
			continue
		}
		tabs = append(tabs, t.Snapshot(id == s.active))
	}
	return schema.ListTabsResponse{Tabs: tabs, ActiveTab: s.active}, nil
}

func (s *service) Navigate(ctx context.Context, req schema.NavigateRequest) (schema.NavigateResponse, error) {
	if ctx == nil {
		return schema.NavigateResponse{}, errors.New("missing context")
	}
	target, err := schema.NormalizeInput(req.Input, s.cfg.SearchTemplate)
	if err != nil {
		return schema.NavigateResponse{}, err
	}

	s.mu.Lock()
	t, tabID, err := s.resolveTabLocked(req.TabID)
	if err != nil {
		s.mu.Unlock()
		return schema.NavigateResponse{}, err
	}
	log := logx.WithTab(ctx, tabID)
	internal := schema.IsInternalURL(target)
	wasPlaceholder := t.Placeholder
	session := t.session
	if internal {
		t.URL = target
		t.Title = ""
		t.Favicon = ""
		t.Loading = false
		t.State = schema.LoadStateLoaded
		t.Placeholder = true
	} else {
		t.URL = target
		t.Loading = true
		t.State = schema.LoadStateLoading
		t.Placeholder = false
	}
	snapshot := t.Snapshot(s.active == tabID)
	active := s.active
	s.mu.Unlock()

	if internal {
		if wasPlaceholder {
			// Already parked on the blank document, nothing to load.
		} else if session != nil {
			if err := session.Navigate(ctx, schema.PlaceholderDocument); err != nil {
				log.Warn("service placeholder navigate failed", "err", err)
			}
		}
	} else {
		if session == nil {
			return schema.NavigateResponse{}, schema.ErrEngineUnavailable
		}
		if err := session.Navigate(ctx, target); err != nil {
			log.Warn("service navigate failed", "url", target, "err", err)
			return schema.NavigateResponse{}, err
		}
		s.org.SetLastURL(tabID, target)
	}
	s.emitTabEvent(schema.TabEvent{Type: schema.TabEventUpdated, Tab: snapshot, ActiveTab: active})
	log.Info("service navigate", "url", target)
	return schema.NavigateResponse{Tab: snapshot, URL: target}, nil
}

func (s *service) GoBack(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
	return s.historyNav(ctx, req, "back", func(session PageSession) error {
		return session.GoBack(ctx)
	})
}

func (s *service) GoForward(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
	return s.historyNav(ctx, req, "forward", func(session PageSession) error {
		return session.GoForward(ctx)
	})
}

func (s *service) Reload(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
	return s.historyNav(ctx, req, "reload", func(session PageSession) error {
		return session.Reload(ctx)
	})
}

func (s *service) StopLoading(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
	return s.historyNav(ctx, req, "stop", func(session PageSession) error {
		return session.Stop(ctx)
	})
}

func (s *service) historyNav(ctx context.Context, req schema.HistoryNavRequest, op string, call func(PageSession) error) (schema.HistoryNavResponse, error) {
	s.mu.Lock()
	t, tabID, err := s.resolveTabLocked(req.TabID)
	if err != nil {
		s.mu.Unlock()
		return schema.HistoryNavResponse{}, err
	}
	session := t.session
	placeholder := t.Placeholder
	snapshot := t.Snapshot(s.active == tabID)
	s.mu.Unlock()

	if placeholder {
		// Internal pages have no traversable history.
		return schema.HistoryNavResponse{Tab: snapshot}, nil
	}
	if session == nil {
		return schema.HistoryNavResponse{}, schema.ErrEngineUnavailable
	}
	if err := call(session); err != nil {
		logx.WithTab(ctx, tabID).Warn("service history nav failed", "op", op, "err", err)
		return schema.HistoryNavResponse{}, err
	}
	return schema.HistoryNavResponse{Tab: snapshot}, nil
}

func (s *service) UpdateDisplay(ctx context.Context, req schema.UpdateDisplayRequest) (schema.UpdateDisplayResponse, error) {
	log := logx.WithTab(ctx, req.TabID)
	s.mu.Lock()
	t, ok := s.tabs[req.TabID]
	if !ok {
		s.mu.Unlock()
		// Display updates race tab closes; late ones are dropped.
		log.Debug("service display update dropped, unknown tab")
		return schema.UpdateDisplayResponse{Existed: false}, nil
	}
	if req.URL != nil {
		t.URL = *req.URL
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Favicon != nil {
		t.Favicon = *req.Favicon
	}
	if req.Loading != nil {
		t.Loading = *req.Loading
		if *req.Loading {
			t.State = schema.LoadStateLoading
		} else {
			t.State = schema.LoadStateLoaded
		}
	}
	snapshot := t.Snapshot(s.active == req.TabID)
	active := s.active
	s.mu.Unlock()

	if req.URL != nil && !schema.IsInternalURL(*req.URL) {
		s.org.SetLastURL(req.TabID, *req.URL)
	}
	s.emitTabEvent(schema.TabEvent{Type: schema.TabEventUpdated, Tab: snapshot, ActiveTab: active})
	return schema.UpdateDisplayResponse{Tab: snapshot, Existed: true}, nil
}

// Close flushes organization state and tears down live sessions.
func (s *service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tabs := make([]*tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		tabs = append(tabs, t)
	}
	s.mu.Unlock()

	for _, t := range tabs {
		s.teardownSession(t)
	}
	s.wg.Wait()
	s.org.Close()
	return nil
}

// resolveTabLocked maps an optional tab id to a live tab, defaulting to the
// active tab.
func (s *service) resolveTabLocked(tabID schema.TabID) (*tab, schema.TabID, error) {
	if tabID == "" {
		tabID = s.active
	}
	t, ok := s.tabs[tabID]
	if !ok || t == nil {
		return nil, tabID, schema.ErrTabNotFound
	}
	return t, tabID, nil
}

func (s *service) acquireSession(ctx context.Context, tabID schema.TabID, url string) (PageSession, error) {
	if s.engine == nil {
		return nil, schema.ErrEngineUnavailable
	}
	return s.engine.Acquire(ctx, tabID, url)
}

func (s *service) teardownSession(t *tab) {
	if t.pumpCancel != nil {
		t.pumpCancel()
	}
	if t.session != nil {
		session := t.session
		go func() {
			_ = session.Close(context.Background())
		}()
	}
}

func (s *service) emitTabEvent(event schema.TabEvent) {
	if s.sink != nil {
		s.sink.OnTabEvent(event)
	}
}

func (s *service) emitOrgEvent(event schema.OrgEvent) {
	if s.sink != nil {
		s.sink.OnOrgEvent(event)
	}
}

func (s *service) emitFilterStats(stats schema.FilterStats) {
	if s.sink != nil {
		s.sink.OnFilterEvent(schema.FilterEvent{Stats: stats})
	}
}

func removeTabID(order []schema.TabID, id schema.TabID) []schema.TabID {
	out := order[:0]
	for _, candidate := range order {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
