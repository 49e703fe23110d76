package stats

import (
	"sort"
	"sync"
	"time"
)

// ActiveWindow is the sliding window after which a silent worker drops
// out of the active list.
const ActiveWindow = time.Hour

// Liveness tracks the last-seen time of every worker that requested
// work. Entries are purely in-memory and evicted lazily on read.
type Liveness struct {
	mu       sync.Mutex
	lastSeen map[string]int64 // worker id -> unix millis

	now func() time.Time
}

// NewLiveness creates an empty liveness registry.
func NewLiveness() *Liveness {
	return &Liveness{
		lastSeen: make(map[string]int64),
		now:      time.Now,
	}
}

// Touch records that the worker was just seen.
func (l *Liveness) Touch(workerID string) {
	if workerID == "" {
		return
	}
	l.mu.Lock()
	l.lastSeen[workerID] = l.now().UnixMilli()
	l.mu.Unlock()
}

// Active evicts entries older than ActiveWindow and returns the sorted
// list of workers seen within the window.
func (l *Liveness) Active() []string {
	cutoff := l.now().Add(-ActiveWindow).UnixMilli()

	l.mu.Lock()
	ids := make([]string, 0, len(l.lastSeen))
	for id, seen := range l.lastSeen {
		if seen < cutoff {
			delete(l.lastSeen, id)
			continue
		}
		ids = append(ids, id)
	}
	l.mu.Unlock()

	sort.Strings(ids)
	return ids
}
