package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MinPeriod is the smallest period a repeating task can re-arm with.
const MinPeriod = time.Millisecond

// TaskFunc is a task callback. Runs inside the scheduling domain.
type TaskFunc func()

// PeriodFunc returns the wait before the next run of a repeating task.
// Read every time the task re-arms.
type PeriodFunc func() time.Duration

// Fixed returns PeriodFunc with constant period.
func Fixed(d time.Duration) PeriodFunc {
	return func() time.Duration { return d }
}

// task is one registration. Identity (pointer) distinguishes re-registrations of the same key.
type task struct {
	key    string
	dueAt  time.Duration
	period PeriodFunc // nil for one-shot
	fn     TaskFunc

	order uint64 // tie-break for equal dueAt (FIFO)
	index int    // heap index, -1 when not queued
}

// Scheduler runs keyed timer tasks on a logical clock.
//
// All callbacks execute sequentially on the goroutine calling Advance, so the
// code inside callbacks needs no locking against other tasks. Callbacks may
// register and cancel tasks. Other goroutines must go through Post.
//
// Cancellation is deregistration: a cancelled task whose callback is running
// finishes the callback and is never re-armed.
type Scheduler struct {
	mu    sync.Mutex
	now   time.Duration
	order uint64
	tasks map[string]*task // key → active registration
	queue taskHeap

	postMu sync.Mutex
	posted []func()

	fired     atomic.Uint64
	taskCount atomic.Int32 // cached count of registrations (O(1) access)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates scheduler with clock at zero.
func New() *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*task, 64),
		queue:  make(taskHeap, 0, 64),
		stopCh: make(chan struct{}),
	}
}

// Now returns current logical time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Every registers repeating task: first run after delay, then after period() each time.
// Replaces any task registered under the same key.
func (s *Scheduler) Every(key string, delay time.Duration, period PeriodFunc, fn TaskFunc) {
	if period == nil {
		period = Fixed(MinPeriod)
	}
	s.register(key, delay, period, fn)
}

// After registers one-shot task. Replaces any task registered under the same key.
func (s *Scheduler) After(key string, delay time.Duration, fn TaskFunc) {
	s.register(key, delay, nil, fn)
}

func (s *Scheduler) register(key string, delay time.Duration, period PeriodFunc, fn TaskFunc) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(key)

	t := &task{
		key:    key,
		dueAt:  s.now + delay,
		period: period,
		fn:     fn,
		index:  -1,
	}
	s.tasks[key] = t
	s.taskCount.Add(1)
	s.pushLocked(t)
}

// Cancel deregisters task by key. No-op for unknown keys.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key)
}

// CancelPrefix deregisters every task whose key starts with prefix.
// Returns number of cancelled tasks.
func (s *Scheduler) CancelPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.tasks {
		if strings.HasPrefix(key, prefix) {
			s.cancelLocked(key)
			n++
		}
	}
	return n
}

func (s *Scheduler) cancelLocked(key string) {
	t, ok := s.tasks[key]
	if !ok {
		return
	}
	delete(s.tasks, key)
	s.taskCount.Add(-1)
	if t.index >= 0 {
		heap.Remove(&s.queue, t.index)
	}
}

func (s *Scheduler) pushLocked(t *task) {
	s.order++
	t.order = s.order
	heap.Push(&s.queue, t)
}

// Has reports whether a task is registered under key.
func (s *Scheduler) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Count returns number of registered tasks (O(1) cached count).
func (s *Scheduler) Count() int {
	return int(s.taskCount.Load())
}

// Fired returns total number of callbacks executed.
func (s *Scheduler) Fired() uint64 {
	return s.fired.Load()
}

// Post queues fn to run at the start of the next Advance, inside the scheduling domain.
// Safe to call from any goroutine.
func (s *Scheduler) Post(fn func()) {
	s.postMu.Lock()
	s.posted = append(s.posted, fn)
	s.postMu.Unlock()
}

func (s *Scheduler) drainPosted() {
	s.postMu.Lock()
	posted := s.posted
	s.posted = nil
	s.postMu.Unlock()

	for _, fn := range posted {
		s.safeRun("post", fn)
	}
}

// Advance moves the clock forward by dt and runs every task due up to the new time,
// in due-time order. Tasks re-armed inside the window run again within the same call.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}

	s.drainPosted()

	s.mu.Lock()
	target := s.now + dt

	for len(s.queue) > 0 && s.queue[0].dueAt <= target {
		t := heap.Pop(&s.queue).(*task)

		if t.dueAt > s.now {
			s.now = t.dueAt
		}
		if t.period == nil {
			delete(s.tasks, t.key)
			s.taskCount.Add(-1)
		}

		s.mu.Unlock()
		s.safeRun(t.key, t.fn)
		s.mu.Lock()

		// Re-arm only if still the active registration for this key.
		if t.period != nil && s.tasks[t.key] == t {
			p := t.period()
			if p < MinPeriod {
				slog.Warn("task period below minimum, clamped",
					"key", t.key,
					"period", p,
					"min", MinPeriod)
				p = MinPeriod
			}
			t.dueAt = s.now + p
			s.pushLocked(t)
		}
	}

	s.now = target
	s.mu.Unlock()
}

// safeRun runs callback, a panicking task is logged and skipped for this tick.
func (s *Scheduler) safeRun(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled task panicked", "key", key, "panic", r)
		}
	}()
	s.fired.Add(1)
	fn()
}

// Run drives the clock from wall time every tick (blocks until ctx is canceled or Stop).
func (s *Scheduler) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	slog.Info("scheduler started", "tick", tick)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping")
			return ctx.Err()

		case <-s.stopCh:
			slog.Info("scheduler stopped")
			return nil

		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}

// Stop stops Run loop. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// taskHeap orders tasks by (dueAt, order).
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].dueAt != h[j].dueAt {
		return h[i].dueAt < h[j].dueAt
	}
	return h[i].order < h[j].order
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
