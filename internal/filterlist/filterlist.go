// Package filterlist loads hosts-format blocklists, from disk or over HTTP,
// and compiles them into a matcher for the content-filter gateway.
package filterlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"pkt.systems/pslog"
)

// Matcher is a compiled blocklist. Match answers for a host and all of its
// parent domains, so "ads.example.com" is blocked by an "example.com" entry.
type Matcher struct {
	hosts map[string]struct{}
}

// Match reports whether host or one of its parent domains is listed.
func (m *Matcher) Match(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for host != "" {
		if _, ok := m.hosts[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
	return false
}

// Len reports the number of listed hosts.
func (m *Matcher) Len() int { return len(m.hosts) }

// Parse reads one hosts-format list: one host per line, optionally prefixed
// with a redirect address (0.0.0.0 or 127.0.0.1), with # comments.
func Parse(r io.Reader) (*Matcher, error) {
	matcher := &Matcher{hosts: make(map[string]struct{})}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		host := fields[0]
		// Hosts-file entries carry the sinkhole address first.
		if (host == "0.0.0.0" || host == "127.0.0.1" || host == "::1") && len(fields) > 1 {
			host = fields[1]
		}
		host = strings.ToLower(strings.TrimSuffix(host, "."))
		switch host {
		case "", "localhost", "localhost.localdomain", "local", "broadcasthost":
			continue
		}
		if strings.ContainsAny(host, "/:") {
			continue
		}
		// A bare sinkhole address on its own line is not a host entry.
		if net.ParseIP(host) != nil {
			continue
		}
		matcher.hosts[host] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return matcher, nil
}

// Loader fetches and merges blocklists from file paths and URLs.
type Loader struct {
	client *retryablehttp.Client
	log    pslog.Logger
}

// NewLoader constructs a loader with retrying HTTP fetches.
func NewLoader(logger pslog.Logger) *Loader {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 15 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil
	return &Loader{client: client, log: logger}
}

// Load fetches every source (http(s) URL or local path) and merges the
// results. A failing source is logged and skipped; the merged matcher covers
// whatever loaded.
func (l *Loader) Load(ctx context.Context, sources []string) *Matcher {
	merged := &Matcher{hosts: make(map[string]struct{})}
	for _, source := range sources {
		matcher, err := l.loadOne(ctx, source)
		if err != nil {
			l.log.Warn("filterlist source skipped", "source", source, "err", err)
			continue
		}
		for host := range matcher.hosts {
			merged.hosts[host] = struct{}{}
		}
		l.log.Info("filterlist source loaded", "source", source, "hosts", matcher.Len())
	}
	return merged
}

func (l *Loader) loadOne(ctx context.Context, source string) (*Matcher, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := retryablehttp.NewRequestWithContext(ctx, "GET", source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return Parse(resp.Body)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
