package core

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

// FilterAction is the gateway's decision for one request.
type FilterAction int

const (
	// FilterAllow lets the request through untouched.
	FilterAllow FilterAction = iota
	// FilterUpgrade redirects a plain-http request to its https equivalent.
	FilterUpgrade
	// FilterBlock cancels the request.
	FilterBlock
)

// FilterVerdict carries the action and, for upgrades, the rewritten URL.
type FilterVerdict struct {
	Action      FilterAction
	RedirectURL string
}

// Matcher answers whether a host is on the blocklist.
type Matcher interface {
	Match(host string) bool
}

// GatewayConfig holds the gateway toggles.
type GatewayConfig struct {
	Enabled      bool
	HTTPSUpgrade bool
}

// Gateway decides the fate of every outgoing request: https upgrade first,
// then the blocklist. Loopback hosts and non-web schemes pass untouched. The
// block counter is in-memory only and resets with the process.
type Gateway struct {
	mu           sync.Mutex
	enabled      bool
	httpsUpgrade bool
	matcher      Matcher
	blocked      atomic.Uint64
	notify       func(schema.FilterStats)
	log          pslog.Logger
}

// NewGateway constructs a gateway. A nil matcher disables blocklist checks
// while leaving the https upgrade in place.
func NewGateway(cfg GatewayConfig, matcher Matcher, logger pslog.Logger) *Gateway {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Gateway{
		enabled:      cfg.Enabled,
		httpsUpgrade: cfg.HTTPSUpgrade,
		matcher:      matcher,
		log:          logger,
	}
}

// Evaluate decides one request. Unparseable URLs are allowed; the engine
// rejects them on its own terms.
func (g *Gateway) Evaluate(rawURL string) FilterVerdict {
	u, err := url.Parse(rawURL)
	if err != nil {
		return FilterVerdict{Action: FilterAllow}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return FilterVerdict{Action: FilterAllow}
	}
	host := u.Hostname()
	if isLoopbackHost(host) {
		return FilterVerdict{Action: FilterAllow}
	}

	g.mu.Lock()
	enabled := g.enabled
	upgrade := g.httpsUpgrade
	matcher := g.matcher
	notify := g.notify
	g.mu.Unlock()

	if upgrade && u.Scheme == "http" {
		up := *u
		up.Scheme = "https"
		return FilterVerdict{Action: FilterUpgrade, RedirectURL: up.String()}
	}
	if enabled && matcher != nil && matcher.Match(host) {
		count := g.blocked.Add(1)
		g.log.Debug("filter request blocked", "host", host, "blocked_count", count)
		if notify != nil {
			notify(g.Stats())
		}
		return FilterVerdict{Action: FilterBlock}
	}
	return FilterVerdict{Action: FilterAllow}
}

// Stats reports the gateway counters.
func (g *Gateway) Stats() schema.FilterStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return schema.FilterStats{
		Enabled:      g.enabled,
		HTTPSUpgrade: g.httpsUpgrade,
		BlockedCount: g.blocked.Load(),
	}
}

// Reset zeroes the block counter.
func (g *Gateway) Reset() schema.FilterStats {
	g.blocked.Store(0)
	return g.Stats()
}

// SetEnabled toggles blocklist checks at runtime.
func (g *Gateway) SetEnabled(enabled bool) {
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
}

// SetHTTPSUpgrade toggles the https upgrade at runtime.
func (g *Gateway) SetHTTPSUpgrade(upgrade bool) {
	g.mu.Lock()
	g.httpsUpgrade = upgrade
	g.mu.Unlock()
}

// SetMatcher swaps the blocklist, e.g. after a list refresh.
func (g *Gateway) SetMatcher(matcher Matcher) {
	g.mu.Lock()
	g.matcher = matcher
	g.mu.Unlock()
}

func (g *Gateway) setNotify(fn func(schema.FilterStats)) {
	g.mu.Lock()
	g.notify = fn
	g.mu.Unlock()
}

func isLoopbackHost(host string) bool {
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
