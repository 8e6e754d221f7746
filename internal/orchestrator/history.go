package orchestrator

import (
	"sync"
	"time"
)

// maxHistoryEntries bounds the in-memory dispatch history.
const maxHistoryEntries = 1000

// HistoryEntry records a single dispatch for later inspection.
type HistoryEntry struct {
	// Timestamp is when the dispatch completed.
	Timestamp time.Time `json:"timestamp"`
	// NodeID identifies the processed node.
	NodeID string `json:"node_id"`
	// AlgorithmID identifies the algorithm dispatched.
	AlgorithmID string `json:"algorithm_id"`
	// Results summarizes the per-agent outcomes.
	Results []DispatchResult `json:"results"`
}

// historyRing keeps a bounded FIFO of dispatch records.
// Once full, the oldest entry is evicted on append.
type historyRing struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	cap     int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = maxHistoryEntries
	}
	return &historyRing{cap: capacity}
}

func (h *historyRing) append(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

// filter returns entries matching the given node and agent name.
// Empty filters match everything.
func (h *historyRing) filter(nodeID, agentName string) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryEntry, 0, len(h.entries))
	for _, e := range h.entries {
		if nodeID != "" && e.NodeID != nodeID {
			continue
		}
		if agentName != "" && !entryHasAgent(e, agentName) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func entryHasAgent(e HistoryEntry, agentName string) bool {
	for _, r := range e.Results {
		if r.AgentName == agentName {
			return true
		}
	}
	return false
}
