package services

import (
	"sync"
	"time"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

// DefaultTickInterval is how often a live countdown recomputes.
const DefaultTickInterval = time.Minute

const (
	msPerMinute = 60 * 1000
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
	msPerWeek   = 7 * msPerDay
)

// Remaining breaks the span from now to end into whole weeks, days, hours
// and minutes, using floor division on millisecond durations. Once end is
// at or before now every field is zero; the countdown never goes negative.
func Remaining(end, now time.Time) domain.TimeRemaining {
	diff := end.Sub(now)
	if diff <= 0 {
		return domain.TimeRemaining{}
	}
	ms := diff.Milliseconds()
	return domain.TimeRemaining{
		Weeks:   int(ms / msPerWeek),
		Days:    int(ms / msPerDay % 7),
		Hours:   int(ms / msPerHour % 24),
		Minutes: int(ms / msPerMinute % 60),
	}
}

// CountdownTracker keeps a live TimeRemaining for one enrollment card.
// The constructor computes once before returning, so a snapshot is always
// available ahead of the first tick; a background ticker then recomputes
// every interval until Stop. Ticks past the end date keep refreshing the
// zero value, which is harmless.
type CountdownTracker struct {
	enrollmentID string
	end          time.Time
	interval     time.Duration

	mu         sync.RWMutex
	remaining  domain.TimeRemaining
	computed   bool
	computedAt time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCountdownTracker starts tracking the countdown to end. If interval
// is zero or negative, DefaultTickInterval is used. Callers own the
// returned tracker and must Stop it when the card leaves the page.
func NewCountdownTracker(enrollmentID string, end time.Time, interval time.Duration) *CountdownTracker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	t := &CountdownTracker{
		enrollmentID: enrollmentID,
		end:          end,
		interval:     interval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	t.recompute()
	go t.loop()
	return t
}

func (t *CountdownTracker) loop() {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.recompute()
		}
	}
}

func (t *CountdownTracker) recompute() {
	now := time.Now()
	remaining := Remaining(t.end, now)

	t.mu.Lock()
	t.remaining = remaining
	t.computed = true
	t.computedAt = now
	t.mu.Unlock()
}

func (t *CountdownTracker) EnrollmentID() string { return t.enrollmentID }

// Snapshot returns the latest TimeRemaining and whether a computation has
// run yet.
func (t *CountdownTracker) Snapshot() (domain.TimeRemaining, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.remaining, t.computed
}

// ComputedAt reports when the tracker last recomputed.
func (t *CountdownTracker) ComputedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.computedAt
}

// Stop releases the ticker and its goroutine. Once Stop returns no further
// recomputation happens for this tracker. Safe to call more than once.
func (t *CountdownTracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
		<-t.done
	})
}
