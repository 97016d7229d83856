package tasks

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Task is a scheduled callback that may still be cancelled.
type Task interface {
	// Cancel stops the callback from running. It reports false if the callback already ran or was cancelled.
	Cancel() bool
}

// Scheduler runs fn once after d has elapsed.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// TimerScheduler schedules callbacks on the runtime timer. Callbacks run on their own goroutine.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) Task {
	return timerTask{time.AfterFunc(d, fn)}
}

type timerTask struct{ t *time.Timer }

func (t timerTask) Cancel() bool { return t.t.Stop() }

// ManualScheduler is a [Scheduler] driven by an explicit clock. Callbacks run synchronously inside [ManualScheduler.Advance].
//
// It makes debounce behaviour deterministic in tests and replays.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	next  int
	tasks []*manualTask
}

type manualTask struct {
	s        *ManualScheduler
	seq      int
	due      time.Duration
	fn       func()
	finished bool
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Schedule(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	task := &manualTask{s: s, seq: s.next, due: s.now + d, fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance moves the clock forward by d and runs every task that fell due, earliest first.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	now := s.now
	s.mu.Unlock()

	for {
		task := s.popDue(now)
		if task == nil {
			return
		}
		task.fn()
	}
}

// Pending reports how many tasks are waiting to run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *ManualScheduler) popDue(now time.Duration) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	slices.SortStableFunc(s.tasks, func(a, b *manualTask) int {
		if c := cmp.Compare(a.due, b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	if len(s.tasks) == 0 || s.tasks[0].due > now {
		return nil
	}

	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	task.finished = true
	return task
}

func (t *manualTask) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.finished {
		return false
	}
	t.finished = true
	t.s.tasks = slices.DeleteFunc(t.s.tasks, func(other *manualTask) bool { return other == t })
	return true
}
