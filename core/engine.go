package core

import (
	"context"

	"github.com/graphitebrowser/graphite/schema"
)

// Engine owns page sessions in the rendering engine. Implementations live
// behind this interface so the service can be driven by a real browser
// process or an in-memory fake.
type Engine interface {
	// Acquire binds a new page session for the tab, loading url as its first
	// document. Acquire may block on engine startup and must honor ctx.
	Acquire(ctx context.Context, tabID schema.TabID, url string) (PageSession, error)
	// Close tears down the engine and all remaining sessions.
	Close() error
}

// PageSession is one live page in the rendering engine, paired 1:1 with a
// tab. All methods are safe to call from any goroutine.
type PageSession interface {
	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
	Reload(ctx context.Context) error
	Stop(ctx context.Context) error
	// Events delivers page state changes until the session closes, at which
	// point the channel is closed.
	Events() <-chan PageEvent
	Close(ctx context.Context) error
}

// PageEventType discriminates engine-side page events.
type PageEventType string

const (
	// PageEventLoadStarted indicates a top-level load began.
	PageEventLoadStarted PageEventType = "load-started"
	// PageEventLoadFinished indicates the top-level load settled. URL carries
	// the final document URL, which may differ from the requested one after
	// redirects.
	PageEventLoadFinished PageEventType = "load-finished"
	// PageEventURLChanged indicates the document URL changed (redirect,
	// pushState, fragment).
	PageEventURLChanged PageEventType = "url-changed"
	// PageEventTitleChanged indicates the document title changed.
	PageEventTitleChanged PageEventType = "title-changed"
	// PageEventFaviconChanged indicates the favicon URL changed.
	PageEventFaviconChanged PageEventType = "favicon-changed"
)

// PageEvent is a single page state change reported by the engine. Only the
// fields relevant to the type are populated.
type PageEvent struct {
	Type    PageEventType
	URL     string
	Title   string
	Favicon string
	Nav     schema.NavState
}
