package aiwrap

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CostRecord is one advisory cost entry.
type CostRecord struct {
	ID          uuid.UUID
	OperationID string
	Units       float64
	CacheHit    bool
	At          time.Time
}

// CostTracker records advisory cost units per invocation. Tracking is
// best-effort observability; it never blocks or fails an invocation.
type CostTracker struct {
	mu      sync.Mutex
	records []CostRecord
	log     zerolog.Logger
}

// NewCostTracker creates a tracker logging each record to log.
func NewCostTracker(log zerolog.Logger) *CostTracker {
	return &CostTracker{log: log}
}

// Record appends one cost entry. Cache hits record zero units.
func (t *CostTracker) Record(operationID string, units float64, cacheHit bool) {
	if cacheHit {
		units = 0
	}
	rec := CostRecord{
		ID:          uuid.New(),
		OperationID: operationID,
		Units:       units,
		CacheHit:    cacheHit,
		At:          time.Now().UTC(),
	}

	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()

	t.log.Debug().
		Str("record_id", rec.ID.String()).
		Str("operation_id", operationID).
		Float64("units", units).
		Bool("cache_hit", cacheHit).
		Msg("ai invocation cost")
}

// Total returns the sum of recorded units.
func (t *CostTracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, rec := range t.records {
		total += rec.Units
	}
	return total
}

// Records returns a copy of the recorded entries.
func (t *CostTracker) Records() []CostRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CostRecord, len(t.records))
	copy(out, t.records)
	return out
}
