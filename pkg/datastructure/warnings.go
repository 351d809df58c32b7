package datastructure

import (
	"fmt"
	"sync"
)

type WarningKind string

const (
	WarnDataQuality     WarningKind = "data_quality"
	WarnMatchConfidence WarningKind = "match_confidence"
	WarnDuplicateMatch  WarningKind = "duplicate_match"
)

type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Warnings collects non-fatal findings of a pipeline run. Safe for use from
// the node enrichment workers.
type Warnings struct {
	mu    sync.Mutex
	items []Warning
}

func NewWarnings() *Warnings {
	return &Warnings{}
}

func (w *Warnings) Addf(kind WarningKind, format string, a ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, Warning{Kind: kind, Message: fmt.Sprintf(format, a...)})
}

func (w *Warnings) Items() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Warnings) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}
