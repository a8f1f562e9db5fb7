package chrome

import (
	"context"
	"errors"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/graphitebrowser/graphite/core"
	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// pageSession is one browser target implementing core.PageSession.
type pageSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan core.PageEvent
	log    pslog.Logger
	// onClose deregisters the session from the engine. Set before the
	// session is handed out.
	onClose func()

	mu        sync.Mutex
	mainFrame cdp.FrameID
	closed    bool
	closeOnce sync.Once
}

func newPageSession(ctx context.Context, cancel context.CancelFunc, log pslog.Logger) *pageSession {
	return &pageSession{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan core.PageEvent, 64),
		log:    log,
	}
}

func (s *pageSession) Navigate(ctx context.Context, url string) error {
	// page.Navigate returns once the navigation is accepted; the load itself
	// streams in through lifecycle events.
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return errors.New(errText)
		}
		return nil
	}))
}

func (s *pageSession) GoBack(ctx context.Context) error {
	return s.traverse(ctx, -1)
}

func (s *pageSession) GoForward(ctx context.Context) error {
	return s.traverse(ctx, +1)
}

func (s *pageSession) traverse(ctx context.Context, delta int64) error {
	_ = ctx
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		index, entries, err := page.GetNavigationHistory().Do(ctx)
		if err != nil {
			return err
		}
		target := index + delta
		if target < 0 || target >= int64(len(entries)) {
			// Nothing to traverse to; the UI race is expected.
			return nil
		}
		return page.NavigateToHistoryEntry(entries[target].ID).Do(ctx)
	}))
}

func (s *pageSession) Reload(ctx context.Context) error {
	_ = ctx
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.Reload().Do(ctx)
	}))
}

func (s *pageSession) Stop(ctx context.Context) error {
	_ = ctx
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.StopLoading().Do(ctx)
	}))
}

func (s *pageSession) Events() <-chan core.PageEvent { return s.events }

func (s *pageSession) Close(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.closeOnce.Do(func() {
		close(s.events)
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}

// enableInterception routes every request through the gateway. Paused
// requests are resumed on a separate goroutine; blocking the CDP event
// handler would deadlock the session.
func (s *pageSession) enableInterception(filter *core.Gateway) error {
	if err := chromedp.Run(s.ctx, fetch.Enable()); err != nil {
		return err
	}
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go s.resolvePaused(filter, paused)
	})
	return nil
}

func (s *pageSession) resolvePaused(filter *core.Gateway, paused *fetch.EventRequestPaused) {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(s.ctx, c.Target)
	verdict := filter.Evaluate(paused.Request.URL)
	var err error
	switch verdict.Action {
	case core.FilterBlock:
		err = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
	case core.FilterUpgrade:
		err = fetch.ContinueRequest(paused.RequestID).WithURL(verdict.RedirectURL).Do(execCtx)
	default:
		err = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
	}
	if err != nil {
		s.log.Debug("chrome intercept resolution failed", "url", paused.Request.URL, "err", err)
	}
}

// listen translates CDP page events into engine events. Only main-frame
// activity is reported; iframe churn stays out of the tab snapshot.
func (s *pageSession) listen() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventFrameNavigated:
			if ev.Frame.ParentID != "" {
				return
			}
			s.mu.Lock()
			s.mainFrame = ev.Frame.ID
			s.mu.Unlock()
			go s.emitURLChanged(ev.Frame.URL)
		case *page.EventNavigatedWithinDocument:
			if !s.isMainFrame(ev.FrameID) {
				return
			}
			go s.emitURLChanged(ev.URL)
		case *page.EventFrameStartedLoading:
			if !s.isMainFrame(ev.FrameID) {
				return
			}
			s.emit(core.PageEvent{Type: core.PageEventLoadStarted})
		case *page.EventLoadEventFired:
			go s.emitLoadFinished()
		}
	})
}

func (s *pageSession) isMainFrame(frameID cdp.FrameID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mainFrame == "" || s.mainFrame == frameID
}

// emitURLChanged reports the new document URL with fresh traversal state.
func (s *pageSession) emitURLChanged(url string) {
	nav, _ := s.navState()
	s.emit(core.PageEvent{Type: core.PageEventURLChanged, URL: url, Nav: nav})
}

// emitLoadFinished settles the load: final URL, traversal state, then the
// document title and favicon, which have no dedicated CDP events.
func (s *pageSession) emitLoadFinished() {
	var url, title, favicon string
	err := chromedp.Run(s.ctx,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.Evaluate(faviconScript, &favicon),
	)
	if err != nil {
		s.log.Debug("chrome load snapshot failed", "err", err)
	}
	nav, _ := s.navState()
	s.emit(core.PageEvent{Type: core.PageEventLoadFinished, URL: url, Nav: nav})
	if title != "" {
		s.emit(core.PageEvent{Type: core.PageEventTitleChanged, Title: title})
	}
	if favicon != "" {
		s.emit(core.PageEvent{Type: core.PageEventFaviconChanged, Favicon: favicon})
	}
}

const faviconScript = `(() => {
	const link = document.querySelector('link[rel~="icon"]');
	if (link && link.href) return link.href;
	if (location.protocol === 'http:' || location.protocol === 'https:') {
		return location.origin + '/favicon.ico';
	}
	return '';
})()`

func (s *pageSession) navState() (schema.NavState, error) {
	var nav schema.NavState
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		index, entries, err := page.GetNavigationHistory().Do(ctx)
		if err != nil {
			return err
		}
		nav = navCapability(index, int64(len(entries)))
		return nil
	}))
	return nav, err
}

// navCapability derives traversal capability from the history cursor.
func navCapability(index, count int64) schema.NavState {
	return schema.NavState{
		CanGoBack:    index > 0,
		CanGoForward: index >= 0 && index < count-1,
	}
}

// emit never blocks the CDP listener; a slow consumer drops display events,
// which the next snapshot corrects.
func (s *pageSession) emit(event core.PageEvent) {
	// The closed flag and the send share the lock so a concurrent Close can
	// not close the channel between them.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
		s.log.Debug("chrome event dropped, slow consumer", "type", event.Type)
	}
}
