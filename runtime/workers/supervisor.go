package workers

import (
	"agora/contract"
	"agora/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRestartInterval = 200 * time.Millisecond
	DefaultMaxBackoff      = 30 * time.Second
)

// WorkerStatus is what the supervisor knows about one worker.
type WorkerStatus struct {
	Name      string `json:"name"`
	Running   bool   `json:"running"`
	Failures  int    `json:"failures"`
	LastError string `json:"lastError,omitempty"`
	GaveUp    bool   `json:"gaveUp,omitempty"`
}

// Supervisor runs every worker in its own goroutine and restarts the ones
// that panic or fail, waiting longer after each consecutive failure.
// A worker returning nil is considered done. A worker exceeding the restart
// budget is abandoned and reported as such.
// Run returns once every worker has stopped.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	restartInterval time.Duration
	maxBackoff      time.Duration
	budget          int
	workers         []contract.Worker

	mu       sync.RWMutex
	statuses []*WorkerStatus
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &Supervisor{
		wg:              &sync.WaitGroup{},
		log:             log,
		restartInterval: restartInterval,
		maxBackoff:      max(DefaultMaxBackoff, restartInterval),
	}
}

// WithBackoff caps the delay between restarts. A run lasting at least that long
// resets the delay to the restart interval.
func (s *Supervisor) WithBackoff(maxBackoff time.Duration) *Supervisor {
	s.maxBackoff = max(maxBackoff, s.restartInterval)
	return s
}

// WithRestartBudget abandons a worker after budget consecutive restarts. Zero means never.
func (s *Supervisor) WithRestartBudget(budget int) *Supervisor {
	s.budget = budget
	return s
}

// Run blocks until ctx is canceled or Stop is called, and until every worker returned.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Status returns a snapshot per started worker, in start order.
func (s *Supervisor) Status() []WorkerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	statuses := make([]WorkerStatus, len(s.statuses))
	for i, status := range s.statuses {
		statuses[i] = *status
	}
	return statuses
}

// Start runs worker under supervision until ctx is done.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	status := &WorkerStatus{Name: contract.GetWorkerName(worker)}
	s.mu.Lock()
	s.statuses = append(s.statuses, status)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		name := status.Name

		for consecutive := 0; ; {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", name))
				return
			}

			s.update(status, func(st *WorkerStatus) { st.Running = true })
			started := time.Now()
			err := runGuarded(ctx, worker)
			s.update(status, func(st *WorkerStatus) { st.Running = false })

			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", name))
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", name)
				return
			}

			if time.Since(started) >= s.maxBackoff {
				consecutive = 0
			}
			consecutive++
			s.update(status, func(st *WorkerStatus) {
				st.Failures++
				st.LastError = err.Error()
			})
			if s.budget > 0 && consecutive > s.budget {
				s.update(status, func(st *WorkerStatus) { st.GaveUp = true })
				s.log.Error("Worker abandoned, restart budget exhausted", "name", name, "consecutive_failures", consecutive, "error", err)
				return
			}

			delay := s.backoff(consecutive)
			s.log.Warn("Worker crashed, restarting", "name", name, "consecutive_failures", consecutive, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()
}

// backoff doubles the restart interval per consecutive failure, capped at maxBackoff.
func (s *Supervisor) backoff(consecutive int) time.Duration {
	delay := s.restartInterval
	for i := 1; i < consecutive && delay < s.maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, s.maxBackoff)
}

func (s *Supervisor) update(status *WorkerStatus, fn func(*WorkerStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(status)
}

func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels every supervised worker. Run returns once they are all gone.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
