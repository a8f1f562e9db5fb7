package schema

import (
	"net/url"
	"regexp"
	"strings"
)

// InternalScheme is the reserved scheme for shell-internal pages. The
// rendering engine must never perform network loads for these URLs.
const InternalScheme = "graphite"

// NewTabURL is the internal placeholder shown by a fresh tab.
const NewTabURL = InternalScheme + "://newtab"

// SettingsURL is the internal settings page.
const SettingsURL = InternalScheme + "://settings"

// PlaceholderDocument is the real blank document loaded into a session that
// displays an internal page, keeping its scripting environment alive.
const PlaceholderDocument = "about:blank"

// IsInternalURL reports whether the URL uses the reserved internal scheme.
func IsInternalURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), InternalScheme+"://")
}

var (
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	domainRe = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(:\d+)?([/?#].*)?$`)
	localRe  = regexp.MustCompile(`^(localhost|127(\.\d{1,3}){3}|\[::1\])(:\d+)?([/?#].*)?$`)
)

// NormalizeInput resolves raw address-bar input into a destination URL.
//
// Absolute URLs (anything with a scheme, including internal graphite:// URLs)
// pass through unchanged. Bare domains and loopback hosts are prefixed with
// https://. Everything else becomes a search query built from the template's
// {query} placeholder.
func NormalizeInput(raw string, searchTemplate string) (string, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return "", ErrEmptyInput
	}
	if schemeRe.MatchString(input) {
		return input, nil
	}
	if localRe.MatchString(input) || domainRe.MatchString(input) {
		return "https://" + input, nil
	}
	if strings.TrimSpace(searchTemplate) == "" {
		searchTemplate = DefaultSearchTemplate
	}
	return strings.ReplaceAll(searchTemplate, SearchQueryPlaceholder, escapeQuery(input)), nil
}

// escapeQuery percent-encodes a search query, encoding spaces as %20 rather
// than '+' so the result is scheme-agnostic.
func escapeQuery(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}
