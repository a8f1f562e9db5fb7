package httpapi

// Config defines HTTP API settings.
type Config struct {
	Addr string
	// EventHistorySize bounds the SSE replay buffer.
	EventHistorySize int
	// HistorySearchLimit caps /api/history results when the request has no limit.
	HistorySearchLimit int
}
