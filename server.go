package graphite

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/graphitebrowser/graphite/core"
	"github.com/graphitebrowser/graphite/httpapi"
	"github.com/graphitebrowser/graphite/internal/agentctl"
	"github.com/graphitebrowser/graphite/internal/chrome"
	"github.com/graphitebrowser/graphite/internal/filterlist"
	"github.com/graphitebrowser/graphite/internal/history"
	"github.com/graphitebrowser/graphite/internal/settings"
	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// Server composes the rendering engine, content filter, history store, and
// HTTP command surface into one runnable unit.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service    schema.ServiceConfig
	HTTP       httpapi.Config
	Engine     chrome.Config
	Filter     FilterConfig
	HubHistory int
}

// FilterConfig defines the content-filter gateway defaults. Persisted
// settings override the toggles between runs.
type FilterConfig struct {
	Enabled      bool
	HTTPSUpgrade bool
	// Lists are hosts-format blocklist sources: local paths or http(s) URLs.
	Lists []string
}

// ServerDeps captures injectable dependencies. Engine and History left nil
// are built from the config; tests inject fakes here.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
}

// Settings keys for the persisted user preferences.
const (
	settingFilterEnabled      = "filter.enabled"
	settingFilterHTTPSUpgrade = "filter.https_upgrade"
	settingHomeURL            = "home_url"
	settingSearchTemplate     = "search.template"
)

// New constructs a graphite server.
func New(cfg ServerConfig, deps ServerDeps) (Server, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	logger := serviceDeps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	hub := httpapi.NewHub(cfg.HubHistory)
	if serviceDeps.EventSink == nil {
		serviceDeps.EventSink = hub
	} else {
		serviceDeps.EventSink = eventFanout{sinks: []core.EventSink{serviceDeps.EventSink, hub}}
	}

	prefs, err := settings.Open(cfg.Service.StateDir, logger)
	if err != nil {
		return nil, err
	}
	cfg.Service.HomeURL = prefs.GetString(settingHomeURL, cfg.Service.HomeURL)
	cfg.Service.SearchTemplate = prefs.GetString(settingSearchTemplate, cfg.Service.SearchTemplate)

	gateway := serviceDeps.Filter
	if gateway == nil {
		gateway = core.NewGateway(core.GatewayConfig{
			Enabled:      prefs.GetBool(settingFilterEnabled, cfg.Filter.Enabled),
			HTTPSUpgrade: prefs.GetBool(settingFilterHTTPSUpgrade, cfg.Filter.HTTPSUpgrade),
		}, nil, logger)
		serviceDeps.Filter = gateway
	}
	prefs.Subscribe(func(key string) {
		switch key {
		case settingFilterEnabled:
			gateway.SetEnabled(prefs.GetBool(settingFilterEnabled, cfg.Filter.Enabled))
		case settingFilterHTTPSUpgrade:
			gateway.SetHTTPSUpgrade(prefs.GetBool(settingFilterHTTPSUpgrade, cfg.Filter.HTTPSUpgrade))
		}
	})

	var ownedEngine *chrome.Engine
	if serviceDeps.Engine == nil {
		ownedEngine = chrome.New(cfg.Engine, gateway, logger)
		serviceDeps.Engine = ownedEngine
	}

	var ownedHistory *history.Store
	if serviceDeps.History == nil {
		store, err := history.Open(cfg.Service.StateDir, logger)
		if err != nil {
			return nil, err
		}
		ownedHistory = store
		serviceDeps.History = store
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		if ownedHistory != nil {
			_ = ownedHistory.Close()
		}
		return nil, err
	}

	agent := agentctl.New()
	httpSrv := httpapi.NewServer(cfg.HTTP, service, agent, hub, &preferences{store: prefs, defaults: cfg})

	return &compositeServer{
		cfg:     cfg,
		service: service,
		gateway: gateway,
		httpSrv: httpSrv,
		engine:  ownedEngine,
		history: ownedHistory,
		logger:  logger,
		loader:  filterlist.NewLoader(logger),
	}, nil
}

// preferences adapts the settings store to the HTTP settings surface,
// layering persisted values over the configured defaults. Filter toggles
// take effect immediately through the store subscription; home URL and
// search template changes apply on the next start.
type preferences struct {
	store    *settings.Store
	defaults ServerConfig
}

func (p *preferences) Settings() httpapi.Settings {
	return httpapi.Settings{
		FilterEnabled:  p.store.GetBool(settingFilterEnabled, p.defaults.Filter.Enabled),
		HTTPSUpgrade:   p.store.GetBool(settingFilterHTTPSUpgrade, p.defaults.Filter.HTTPSUpgrade),
		HomeURL:        p.store.GetString(settingHomeURL, p.defaults.Service.HomeURL),
		SearchTemplate: p.store.GetString(settingSearchTemplate, p.defaults.Service.SearchTemplate),
	}
}

func (p *preferences) UpdateSettings(update httpapi.SettingsUpdate) (httpapi.Settings, error) {
	if update.SearchTemplate != nil && !strings.Contains(*update.SearchTemplate, schema.SearchQueryPlaceholder) {
		return httpapi.Settings{}, schema.ErrInvalidSearchTemplate
	}
	if update.FilterEnabled != nil {
		if err := p.store.Set(settingFilterEnabled, *update.FilterEnabled); err != nil {
			return httpapi.Settings{}, err
		}
	}
	if update.HTTPSUpgrade != nil {
		if err := p.store.Set(settingFilterHTTPSUpgrade, *update.HTTPSUpgrade); err != nil {
			return httpapi.Settings{}, err
		}
	}
	if update.HomeURL != nil {
		if err := p.store.Set(settingHomeURL, *update.HomeURL); err != nil {
			return httpapi.Settings{}, err
		}
	}
	if update.SearchTemplate != nil {
		if err := p.store.Set(settingSearchTemplate, *update.SearchTemplate); err != nil {
			return httpapi.Settings{}, err
		}
	}
	return p.Settings(), nil
}

type compositeServer struct {
	cfg     ServerConfig
	service core.Service
	gateway *core.Gateway
	httpSrv *httpapi.Server
	engine  *chrome.Engine
	history *history.Store
	logger  pslog.Logger
	loader  *filterlist.Loader

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http_addr", s.cfg.HTTP.Addr,
		"state_dir", s.cfg.Service.StateDir,
		"filter_lists", len(s.cfg.Filter.Lists),
		"restore", s.cfg.Service.RestoreOnStart,
	)

	go func() {
		if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
			log.Error("http server failed", "err", err)
			s.errCh <- err
		}
	}()

	go s.warmup(s.ctx)
	return nil
}

// warmup runs the slow startup work off the serve path: blocklist loading
// and tab restoration.
func (s *compositeServer) warmup(ctx context.Context) {
	log := s.logger
	if len(s.cfg.Filter.Lists) > 0 && s.gateway != nil {
		matcher := s.loader.Load(ctx, s.cfg.Filter.Lists)
		s.gateway.SetMatcher(matcher)
		log.Info("filter lists loaded", "hosts", matcher.Len())
	}
	if s.cfg.Service.RestoreOnStart {
		resp, err := s.service.RestoreTabs(ctx, schema.RestoreTabsRequest{})
		if err != nil {
			log.Warn("tab restore failed", "err", err)
			return
		}
		log.Info("tabs restored", "count", resp.Restored)
	}
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	log.Info("server stop requested")
	if err := s.service.Close(); err != nil {
		log.Warn("server service close failed", "err", err)
	} else {
		log.Info("server service close ok")
	}
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			log.Warn("server engine close failed", "err", err)
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			log.Warn("server history close failed", "err", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
