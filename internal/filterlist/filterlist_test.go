package filterlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleList = `
# sample blocklist
0.0.0.0 ads.example.com
0.0.0.0 tracker.example.net # inline comment
127.0.0.1 metrics.example.org
0.0.0.0 localhost
bare-entry.example.com
0.0.0.0
`

func TestParseHostsFormat(t *testing.T) {
	matcher, err := Parse(strings.NewReader(sampleList))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if matcher.Len() != 4 {
		t.Fatalf("expected 4 hosts, got %d", matcher.Len())
	}
	for _, host := range []string{"ads.example.com", "tracker.example.net", "metrics.example.org", "bare-entry.example.com"} {
		if !matcher.Match(host) {
			t.Fatalf("%s not matched", host)
		}
	}
	if matcher.Match("localhost") {
		t.Fatalf("localhost must never be listed")
	}
	if matcher.Match("example.com") {
		t.Fatalf("parent domain of a listed host matched")
	}
}

func TestMatchCoversSubdomains(t *testing.T) {
	matcher, err := Parse(strings.NewReader("0.0.0.0 example-ads.net\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !matcher.Match("cdn.example-ads.net") {
		t.Fatalf("subdomain of a listed domain should match")
	}
	if !matcher.Match("EXAMPLE-ADS.NET") {
		t.Fatalf("matching must be case insensitive")
	}
	if matcher.Match("notexample-ads.net") {
		t.Fatalf("suffix similarity must not match")
	}
}

func TestLoaderMergesSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0.0.0.0 remote.example.com\n"))
	}))
	defer server.Close()

	dir := t.TempDir()
	local := filepath.Join(dir, "local.txt")
	if err := os.WriteFile(local, []byte("0.0.0.0 local.example.com\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLoader(nil)
	matcher := loader.Load(context.Background(), []string{server.URL, local, filepath.Join(dir, "missing.txt")})
	if !matcher.Match("remote.example.com") || !matcher.Match("local.example.com") {
		t.Fatalf("sources not merged, %d hosts", matcher.Len())
	}
	if matcher.Len() != 2 {
		t.Fatalf("expected 2 hosts, got %d", matcher.Len())
	}
}
