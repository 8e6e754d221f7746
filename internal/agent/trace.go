package agent

import (
	"sync"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// traceLog is a bounded FIFO of processing results. When the cap is
// exceeded, the oldest entries are evicted first.
type traceLog struct {
	mu      sync.Mutex
	cap     int
	entries []*models.ProcessingResult
}

func newTraceLog(cap int) *traceLog {
	return &traceLog{cap: cap}
}

func (t *traceLog) append(r *models.ProcessingResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, r)
	if len(t.entries) > t.cap {
		t.entries = t.entries[len(t.entries)-t.cap:]
	}
}

func (t *traceLog) snapshot() []*models.ProcessingResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*models.ProcessingResult(nil), t.entries...)
}
