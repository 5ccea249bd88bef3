package ingest

import (
	"regexp"
	"sort"
	"time"
)

var bracketed = regexp.MustCompile(`\[[^\]]*\]`)

// warningTemplate replaces the bracketed values of a warning so that
// messages about different records group together.
func warningTemplate(msg string) string {
	return bracketed.ReplaceAllString(msg, "[...]")
}

// Stats summarizes an ingestion run.
type Stats struct {
	RunID      string         `json:"run_id"`
	Seen       int            `json:"seen"`
	Ingested   int            `json:"ingested"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Edges      int            `json:"interactions_created"`
	Warnings   map[string]int `json:"warnings,omitempty"`
	DurationMs int64          `json:"duration_ms"`

	started time.Time
}

// NewStats starts a run.
func NewStats(runID string) *Stats {
	return &Stats{RunID: runID, Warnings: map[string]int{}, started: time.Now()}
}

// AddWarnings counts msgs by template.
func (s *Stats) AddWarnings(msgs ...string) {
	for _, msg := range msgs {
		s.Warnings[warningTemplate(msg)]++
	}
}

// Finish records the elapsed time.
func (s *Stats) Finish() {
	s.DurationMs = time.Since(s.started).Milliseconds()
}

// WarningCount is one row of the warning summary.
type WarningCount struct {
	Template string `json:"template"`
	Count    int    `json:"count"`
}

// SortedWarnings lists warning templates, most frequent first.
func (s *Stats) SortedWarnings() []WarningCount {
	out := make([]WarningCount, 0, len(s.Warnings))
	for tmpl, n := range s.Warnings {
		out = append(out, WarningCount{Template: tmpl, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Template < out[j].Template
	})
	return out
}

// Summary flattens the counts for progress emitters.
func (s *Stats) Summary() map[string]interface{} {
	return map[string]interface{}{
		"run_id":               s.RunID,
		"seen":                 s.Seen,
		"ingested":             s.Ingested,
		"skipped":              s.Skipped,
		"failed":               s.Failed,
		"interactions_created": s.Edges,
		"duration_ms":          s.DurationMs,
	}
}
