// Package scheduler is a generic one-shot/recurring task facility. It knows
// nothing about reminders or heartbeats; those are built on top.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler keeps at most one live task per id. Actions run on a
// scheduler-owned worker pool, never on the caller's goroutine, and never on
// the timer/cron goroutines either.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	cron    *cron.Cron
	jobs    chan func()
	wg      sync.WaitGroup
	stopped bool
	stopCh  chan struct{}
}

type entry struct {
	timer  *time.Timer  // one-shot
	cronID cron.EntryID // recurring
	isCron bool
}

// New creates and starts a scheduler with the given number of pool workers.
// Cron expressions use six fields with a leading seconds field; @every
// descriptors are accepted too.
func New(workers int) *Scheduler {
	if workers <= 0 {
		workers = 4
	}
	s := &Scheduler{
		entries: make(map[string]*entry),
		cron:    cron.New(cron.WithSeconds()),
		jobs:    make(chan func(), 64),
		stopCh:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.cron.Start()
	return s
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		case job := <-s.jobs:
			job()
		}
	}
}

// ScheduleOnce registers fn to run once at the given instant. An existing
// task under the same id is cancelled first.
func (s *Scheduler) ScheduleOnce(id string, fn func(), at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked(id)

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	e := &entry{}
	e.timer = time.AfterFunc(delay, func() {
		s.fireOnce(id, e, fn)
	})
	s.entries[id] = e
	slog.Info("scheduled one-time task", "id", id, "at", at)
}

func (s *Scheduler) fireOnce(id string, e *entry, fn func()) {
	s.mu.Lock()
	// a concurrent cancel or reschedule wins: only run if we are still the
	// registered entry
	if current, ok := s.entries[id]; !ok || current != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, id)
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return
	}
	s.jobs <- fn
}

// ScheduleRecurring registers fn on a cron expression (seconds-first, six
// fields). An existing task under the same id is cancelled first.
func (s *Scheduler) ScheduleRecurring(id string, fn func(), cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.cancelLocked(id)

	cronID, err := s.cron.AddFunc(cronExpr, func() {
		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}
		s.jobs <- fn
	})
	if err != nil {
		return err
	}

	s.entries[id] = &entry{cronID: cronID, isCron: true}
	slog.Info("scheduled recurring task", "id", id, "cron", cronExpr)
	return nil
}

// Cancel removes a task. Best effort: a not-yet-fired action is suppressed,
// an action already running completes.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		slog.Info("cancelling task", "id", id)
	}
	s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	if e.isCron {
		s.cron.Remove(e.cronID)
	} else {
		e.timer.Stop()
	}
	delete(s.entries, id)
}

// IsScheduled reports whether a live task exists for the id.
func (s *Scheduler) IsScheduled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Stop cancels all pending tasks and waits for running actions to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id := range s.entries {
		s.cancelLocked(id)
	}
	close(s.stopCh)
	s.mu.Unlock()

	s.cron.Stop()
	s.wg.Wait()
	slog.Info("scheduler stopped")
}
