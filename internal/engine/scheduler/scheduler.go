// Package scheduler implements the per-invocation work orchestrator: a
// fixed worker pool draining a FIFO task queue, the registry of pending
// generated-input assertions, and the shared input file cache.
package scheduler

import (
	"runtime"
	"sync"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/engine/inputcache"
	"golang.org/x/sync/errgroup"
)

// Scheduler coordinates worker threads for the generation run. The resolver
// runs on the calling goroutine and never executes scheduled tasks itself;
// workers never touch resolver state. One scheduler is created per
// invocation and shut down when generation finishes.
type Scheduler struct {
	inputFiles *inputcache.Cache

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	pending int
	closed  bool
	failure error

	workers errgroup.Group

	unknownMu     sync.Mutex
	unknownInputs map[domain.SourceFile][]*domain.Target
}

// New creates a scheduler with the given pool size and starts its workers.
// A size of zero or less uses the number of CPUs.
func New(poolSize int, inputFiles *inputcache.Cache) *Scheduler {
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	s := &Scheduler{
		inputFiles:    inputFiles,
		unknownInputs: make(map[domain.SourceFile][]*domain.Target),
	}
	s.cond = sync.NewCond(&s.mu)

	for range poolSize {
		s.workers.Go(func() error {
			s.workerLoop()
			return nil
		})
	}
	return s
}

// ScheduleWork enqueues a task for execution on a worker. Ordering between
// tasks is not guaranteed. The push establishes a happens-before edge from
// the caller's writes to the task's reads, which is what lets workers read
// resolved targets without locks.
func (s *Scheduler) ScheduleWork(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, task)
	s.pending++
	s.cond.Signal()
}

// WaitForAllWork blocks the caller until the queue is drained and every
// worker is idle.
func (s *Scheduler) WaitForAllWork() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 {
		s.cond.Wait()
	}
}

// Shutdown drains outstanding work and stops the workers. The scheduler
// accepts no tasks afterwards.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for s.pending > 0 {
		s.cond.Wait()
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	_ = s.workers.Wait()
}

// FailWithError records a fatal error raised on a worker. Only the first
// failure is kept; it is surfaced on the main thread after the drain.
func (s *Scheduler) FailWithError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure == nil {
		s.failure = err
	}
}

// Err returns the first fatal worker error, if any. Call after
// WaitForAllWork.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// AddUnknownGeneratedInput records that target lists file as a source or
// input but no reachable dependency produced it at resolution time.
// Multiple targets may claim the same file. Safe for concurrent use.
func (s *Scheduler) AddUnknownGeneratedInput(file domain.SourceFile, target *domain.Target) {
	s.unknownMu.Lock()
	defer s.unknownMu.Unlock()
	s.unknownInputs[file] = append(s.unknownInputs[file], target)
}

// UnknownGeneratedInputs returns a snapshot of the pending assertions.
// Called only when no tasks are in flight.
func (s *Scheduler) UnknownGeneratedInputs() map[domain.SourceFile][]*domain.Target {
	s.unknownMu.Lock()
	defer s.unknownMu.Unlock()
	out := make(map[domain.SourceFile][]*domain.Target, len(s.unknownInputs))
	for file, targets := range s.unknownInputs {
		out[file] = append([]*domain.Target(nil), targets...)
	}
	return out
}

// InputFiles hands out the shared input file cache.
func (s *Scheduler) InputFiles() *inputcache.Cache {
	return s.inputFiles
}

func (s *Scheduler) workerLoop() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()

		s.mu.Lock()
		s.pending--
		if s.pending == 0 {
			s.cond.Broadcast()
		}
		s.mu.Unlock()
	}
}
