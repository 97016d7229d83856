package tasks

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period a query must survive before a search fires.
const DefaultDebounce = 300 * time.Millisecond

// SearchDebouncer coalesces rapid query changes into at most one search per quiet period.
//
// Each [SearchDebouncer.Submit] cancels the pending search, if any, and starts a new timer.
// When a timer survives the quiet period, fire is called with the query that started it.
type SearchDebouncer struct {
	mu        sync.Mutex
	scheduler Scheduler
	delay     time.Duration
	pending   Task
	fire      func(query string)
}

// NewSearchDebouncer creates a debouncer. A nil scheduler uses [TimerScheduler]; a non-positive delay uses [DefaultDebounce].
func NewSearchDebouncer(s Scheduler, delay time.Duration, fire func(query string)) *SearchDebouncer {
	if s == nil {
		s = TimerScheduler{}
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &SearchDebouncer{scheduler: s, delay: delay, fire: fire}
}

// Submit replaces any pending search with one for query.
func (d *SearchDebouncer) Submit(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Cancel()
	}

	var task Task
	task = d.scheduler.Schedule(d.delay, func() {
		d.mu.Lock()
		if d.pending != task {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()

		d.fire(query)
	})
	d.pending = task
}

// Cancel drops the pending search. It reports whether one was pending.
func (d *SearchDebouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return false
	}
	d.pending.Cancel()
	d.pending = nil
	return true
}

// Pending reports whether a search is waiting for its quiet period to elapse.
func (d *SearchDebouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Delay returns the quiet period.
func (d *SearchDebouncer) Delay() time.Duration {
	return d.delay
}
