package campaign

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProgressTracker accumulates transient delivery progress for one
// running campaign. It is bookkeeping only: the database counters are
// authoritative, the tracker just feeds rate and ETA estimates into
// progress notifications.
type ProgressTracker struct {
	mu sync.Mutex

	campaignID       uuid.UUID
	startTime        time.Time
	batchesProcessed int
	totalSent        int
	totalFailed      int
}

func NewProgressTracker(campaignID uuid.UUID) *ProgressTracker {
	return &ProgressTracker{
		campaignID: campaignID,
		startTime:  time.Now().UTC(),
	}
}

// RecordBatch notes one processed consumer batch
func (t *ProgressTracker) RecordBatch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batchesProcessed++
}

// RecordSent notes one successful send
func (t *ProgressTracker) RecordSent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalSent++
}

// RecordFailed notes one failed send attempt
func (t *ProgressTracker) RecordFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalFailed++
}

// Elapsed returns the time since the tracker was created
func (t *ProgressTracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.startTime)
}

// Rate returns the observed send rate in messages per minute
func (t *ProgressTracker) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.totalSent) / elapsed
}

// ETA estimates the time to drain the given remaining count at the
// observed rate. Zero when the rate is unknown or nothing remains.
func (t *ProgressTracker) ETA(remaining int) time.Duration {
	rate := t.Rate()
	if rate <= 0 || remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / rate * float64(time.Minute))
}

// Snapshot returns the tracker's counters for a progress notification
func (t *ProgressTracker) Snapshot() (batches, sent, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.batchesProcessed, t.totalSent, t.totalFailed
}

// TrackerRegistry holds the live trackers of running campaigns. Owned by
// the lifecycle manager and injected into the components that report
// progress.
type TrackerRegistry struct {
	mu       sync.RWMutex
	trackers map[uuid.UUID]*ProgressTracker
}

func NewTrackerRegistry() *TrackerRegistry {
	return &TrackerRegistry{
		trackers: make(map[uuid.UUID]*ProgressTracker),
	}
}

// GetOrCreate returns the campaign's tracker, creating one on first use
func (r *TrackerRegistry) GetOrCreate(campaignID uuid.UUID) *ProgressTracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tracker, ok := r.trackers[campaignID]; ok {
		return tracker
	}
	tracker := NewProgressTracker(campaignID)
	r.trackers[campaignID] = tracker
	return tracker
}

// Get returns the campaign's tracker if one is live
func (r *TrackerRegistry) Get(campaignID uuid.UUID) (*ProgressTracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tracker, ok := r.trackers[campaignID]
	return tracker, ok
}

// Remove discards the campaign's tracker
func (r *TrackerRegistry) Remove(campaignID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, campaignID)
}
