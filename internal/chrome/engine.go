// Package chrome drives the rendering engine over the Chrome DevTools
// Protocol. It adapts chromedp sessions to the core engine contract and
// routes every network request through the content-filter gateway.
package chrome

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/graphitebrowser/graphite/core"
	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// Config configures the browser process.
type Config struct {
	// ExecPath overrides the browser binary; empty uses chromedp's lookup.
	ExecPath string
	// Headless runs the browser without a visible window.
	Headless bool
	// UserDataDir persists cookies and local storage between runs.
	UserDataDir string
	// NoSandbox disables the Chromium sandbox, needed in some containers.
	NoSandbox bool
}

// Engine owns the browser process and its page sessions.
type Engine struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	filter      *core.Gateway
	log         pslog.Logger

	mu       sync.Mutex
	sessions map[schema.TabID]*pageSession
	closed   bool
}

// New starts the exec allocator for the browser process. The process itself
// launches lazily with the first session.
func New(cfg Config, filter *core.Gateway, logger pslog.Logger) *Engine {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Engine{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		filter:      filter,
		log:         logger,
		sessions:    make(map[schema.TabID]*pageSession),
	}
}

// Acquire binds a fresh browser target for the tab and starts loading url.
// The load itself proceeds asynchronously; progress arrives on the session's
// event channel.
func (e *Engine) Acquire(ctx context.Context, tabID schema.TabID, url string) (core.PageSession, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, schema.ErrEngineUnavailable
	}
	e.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(e.allocCtx)
	session := newPageSession(tabCtx, cancel, e.log.With("tab", tabID))
	session.onClose = func() { e.release(tabID, session) }
	// Start the target before wiring listeners so the CDP session exists.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, err
	}
	if e.filter != nil {
		if err := session.enableInterception(e.filter); err != nil {
			session.log.Warn("chrome request interception unavailable", "err", err)
		}
	}
	session.listen()
	go func() {
		if err := session.Navigate(context.Background(), url); err != nil {
			session.log.Warn("chrome initial navigation failed", "url", url, "err", err)
		}
	}()

	e.mu.Lock()
	e.sessions[tabID] = session
	e.mu.Unlock()
	_ = ctx
	e.log.Debug("chrome session acquired", "tab", tabID, "url", url)
	return session, nil
}

// release drops the session's registry entry once it closes. The session
// check keeps a stale close from evicting a replacement registered under the
// same tab id.
func (e *Engine) release(tabID schema.TabID, session *pageSession) {
	e.mu.Lock()
	if current, ok := e.sessions[tabID]; ok && current == session {
		delete(e.sessions, tabID)
	}
	e.mu.Unlock()
}

// Close tears down all sessions and the browser process.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	sessions := make([]*pageSession, 0, len(e.sessions))
	for _, session := range e.sessions {
		sessions = append(sessions, session)
	}
	e.sessions = make(map[schema.TabID]*pageSession)
	e.mu.Unlock()

	for _, session := range sessions {
		_ = session.Close(context.Background())
	}
	e.allocCancel()
	return nil
}
