package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventCacheHit   EventType = "cache_hit"
	EventZeroResult EventType = "zero_result"
	EventIndexBuild EventType = "index_build"
)

type SearchEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Terms      []string  `json:"terms"`
	TotalHits  int       `json:"total_hits"`
	Returned   int       `json:"returned"`
	LatencyMs  float64   `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Generation string    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Classify sets Type from the other fields.
func (e *SearchEvent) Classify() {
	switch {
	case e.TotalHits == 0:
		e.Type = EventZeroResult
	case e.CacheHit:
		e.Type = EventCacheHit
	default:
		e.Type = EventSearch
	}
}

type IndexBuildEvent struct {
	Type        EventType `json:"type"`
	Generation  string    `json:"generation"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	TotalTokens int64     `json:"total_tokens"`
	BuildMs     int64     `json:"build_ms"`
	Timestamp   time.Time `json:"timestamp"`
}
