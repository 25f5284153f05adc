// Package costs meters token usage and estimated spend for the current session.
package costs

import (
	"sync"
	"time"
)

// Record is one metered model request.
type Record struct {
	Timestamp    time.Time
	Format       string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	Priced       bool
}

// Summary aggregates every record seen by a Tracker.
type Summary struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	// Unpriced counts requests whose model has no known list price.
	Unpriced int
}

// Tracker keeps usage records in memory for the life of the process.
type Tracker struct {
	mu      sync.Mutex
	records []Record
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Append adds one record, pricing it when the model is known.
func (t *Tracker) Append(rec Record) Record {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.TotalTokens == 0 {
		rec.TotalTokens = rec.InputTokens + rec.OutputTokens
	}
	rec.CostUSD, rec.Priced = EstimateUSD(rec.Format, rec.Model, rec.InputTokens, rec.OutputTokens)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	return rec
}

// Summary totals all records.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Summary
	for _, rec := range t.records {
		s.Requests++
		s.InputTokens += rec.InputTokens
		s.OutputTokens += rec.OutputTokens
		s.TotalTokens += rec.TotalTokens
		if rec.Priced {
			s.CostUSD += rec.CostUSD
		} else {
			s.Unpriced++
		}
	}
	return s
}

// Reset drops all records.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}
