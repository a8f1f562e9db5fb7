package core

import (
	"sync"
	"testing"

	"github.com/graphitebrowser/graphite/schema"
)

type setMatcher struct {
	hosts map[string]bool
}

func (m *setMatcher) Match(host string) bool { return m.hosts[host] }

func newBlockingGateway(hosts ...string) *Gateway {
	set := make(map[string]bool, len(hosts))
	for _, host := range hosts {
		set[host] = true
	}
	return NewGateway(GatewayConfig{Enabled: true}, &setMatcher{hosts: set}, nil)
}

func TestGatewayBlocksListedHost(t *testing.T) {
	gateway := newBlockingGateway("ads.example.com")
	verdict := gateway.Evaluate("https://ads.example.com/banner.js")
	if verdict.Action != FilterBlock {
		t.Fatalf("expected block, got %v", verdict.Action)
	}
	if gateway.Stats().BlockedCount != 1 {
		t.Fatalf("counter not incremented: %+v", gateway.Stats())
	}
	if verdict := gateway.Evaluate("https://example.com/"); verdict.Action != FilterAllow {
		t.Fatalf("unlisted host blocked")
	}
	if gateway.Stats().BlockedCount != 1 {
		t.Fatalf("allow incremented the counter")
	}
}

func TestGatewayDisabledAllowsEverything(t *testing.T) {
	gateway := newBlockingGateway("ads.example.com")
	gateway.SetEnabled(false)
	if verdict := gateway.Evaluate("https://ads.example.com/banner.js"); verdict.Action != FilterAllow {
		t.Fatalf("disabled gateway still blocking")
	}
}

func TestGatewayUpgradesPlainHTTP(t *testing.T) {
	gateway := NewGateway(GatewayConfig{HTTPSUpgrade: true}, nil, nil)
	verdict := gateway.Evaluate("http://example.com/page?x=1")
	if verdict.Action != FilterUpgrade {
		t.Fatalf("expected upgrade, got %v", verdict.Action)
	}
	if verdict.RedirectURL != "https://example.com/page?x=1" {
		t.Fatalf("bad upgrade URL: %s", verdict.RedirectURL)
	}
	if verdict := gateway.Evaluate("https://example.com/"); verdict.Action != FilterAllow {
		t.Fatalf("https request should pass untouched")
	}
}

func TestGatewayUpgradePrecedesBlocklist(t *testing.T) {
	gateway := newBlockingGateway("ads.example.com")
	gateway.SetHTTPSUpgrade(true)
	// The http request is upgraded first; the https re-request gets blocked.
	if verdict := gateway.Evaluate("http://ads.example.com/"); verdict.Action != FilterUpgrade {
		t.Fatalf("expected upgrade before block, got %v", verdict.Action)
	}
	if verdict := gateway.Evaluate("https://ads.example.com/"); verdict.Action != FilterBlock {
		t.Fatalf("https re-request not blocked")
	}
}

func TestGatewaySkipsLoopbackAndNonWebSchemes(t *testing.T) {
	gateway := newBlockingGateway("localhost", "127.0.0.1")
	gateway.SetHTTPSUpgrade(true)
	for _, url := range []string{
		"http://localhost:3000/dev",
		"http://127.0.0.1:8080/",
		"http://[::1]/",
		"file:///tmp/page.html",
		"graphite://newtab",
		"about:blank",
	} {
		if verdict := gateway.Evaluate(url); verdict.Action != FilterAllow {
			t.Fatalf("%s should pass untouched, got %v", url, verdict.Action)
		}
	}
}

func TestGatewayResetZeroesCounter(t *testing.T) {
	gateway := newBlockingGateway("ads.example.com")
	gateway.Evaluate("https://ads.example.com/a")
	gateway.Evaluate("https://ads.example.com/b")
	if gateway.Stats().BlockedCount != 2 {
		t.Fatalf("expected 2 blocks, got %d", gateway.Stats().BlockedCount)
	}
	stats := gateway.Reset()
	if stats.BlockedCount != 0 {
		t.Fatalf("reset did not zero the counter")
	}
	if !stats.Enabled {
		t.Fatalf("reset changed the enabled toggle")
	}
}

func TestGatewayNotifiesOnBlock(t *testing.T) {
	gateway := newBlockingGateway("ads.example.com")
	var mu sync.Mutex
	var got []schema.FilterStats
	gateway.setNotify(func(stats schema.FilterStats) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, stats)
	})
	gateway.Evaluate("https://ads.example.com/a")
	gateway.Evaluate("https://example.com/")
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].BlockedCount != 1 {
		t.Fatalf("notification carries stale counter: %+v", got[0])
	}
}

func TestGatewayFilterStatsThroughService(t *testing.T) {
	engine := newFakeEngine()
	sink := &captureSink{}
	gateway := newBlockingGateway("ads.example.com")
	svc, err := NewService(schema.ServiceConfig{StateDir: t.TempDir()}, ServiceDeps{
		Engine:    engine,
		Filter:    gateway,
		EventSink: sink,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	gateway.Evaluate("https://ads.example.com/a")
	sink.mu.Lock()
	events := len(sink.filterEvents)
	sink.mu.Unlock()
	if events != 1 {
		t.Fatalf("block did not reach the sink, got %d events", events)
	}
	stats, err := svc.FilterStats(nil, schema.FilterStatsRequest{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Stats.BlockedCount != 1 {
		t.Fatalf("service stats stale: %+v", stats.Stats)
	}
	reset, err := svc.ResetFilterStats(nil, schema.ResetFilterStatsRequest{})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Stats.BlockedCount != 0 {
		t.Fatalf("reset through service failed: %+v", reset.Stats)
	}
}
