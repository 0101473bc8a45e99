// Package catalog defines core types shared across subsystems.
package catalog

import (
	"time"
)

// Entry is one committed catalog record.
type Entry struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Keywords  string    `json:"keywords"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows catalog queries. A zero Filter matches every entry.
type Filter struct {
	// Category is compared against the canonical taxonomy form.
	// Empty or CategoryAll means no category filter.
	Category string
	// Search is a case-insensitive substring test over the keyword field.
	Search string
}

// ProbeResult classifies the outcome of an asset existence probe.
type ProbeResult string

// Probe outcomes. Only ProbeMissing may trigger deletion; anything
// ambiguous leaves the entry untouched.
const (
	ProbeAlive     ProbeResult = "alive"
	ProbeMissing   ProbeResult = "missing"
	ProbeAmbiguous ProbeResult = "ambiguous"
)
