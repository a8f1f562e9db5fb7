package core

import (
	"context"

	"github.com/graphitebrowser/graphite/schema"
)

// History records visited URLs and serves prefix/substring searches over
// them. Implementations must tolerate concurrent calls.
type History interface {
	// Append records a visit, creating the entry or bumping its visit count.
	Append(ctx context.Context, url, title string) error
	// SetTitle updates the stored title of the most recent visit to url.
	SetTitle(ctx context.Context, url, title string) error
	Search(ctx context.Context, query string, limit int) ([]schema.HistoryEntry, error)
	Close() error
}
