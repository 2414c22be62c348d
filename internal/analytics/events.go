package analytics

import "time"

type EventType string

const (
	EventIndexBuilt  EventType = "index_built"
	EventQueryRanked EventType = "query_ranked"
	EventRunWritten  EventType = "run_written"
	EventEvaluated   EventType = "evaluation_completed"
)

type IndexEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Digest    string    `json:"digest"`
	DocCount  int       `json:"doc_count"`
	TermCount int       `json:"term_count"`
	Stemmed   bool      `json:"stemmed"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

type QueryEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	QueryID   string    `json:"query_id"`
	Terms     int       `json:"terms"`
	Matched   int       `json:"matched"`
	Returned  int       `json:"returned"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

type RunEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	RunTag    string    `json:"run_tag"`
	Path      string    `json:"path"`
	Queries   int       `json:"queries"`
	Lines     int       `json:"lines"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

type EvaluationEvent struct {
	Type      EventType          `json:"type"`
	RunID     string             `json:"run_id"`
	RunTag    string             `json:"run_tag"`
	Queries   int                `json:"queries"`
	Means     map[string]float64 `json:"means"`
	Timestamp time.Time          `json:"timestamp"`
}
