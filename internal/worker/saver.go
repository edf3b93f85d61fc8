// Package worker provides background processing for snapshot persistence and
// preview-clip analysis.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
	"github.com/ewilliams-labs/songswap/internal/core/ports"
)

// SaveJob is one pending snapshot write for an identity.
type SaveJob struct {
	Identity string
	Snapshot domain.Snapshot
}

// Saver persists snapshots write-behind: the session applies mutations in
// memory and queues the resulting snapshot here, so persistence I/O never
// blocks an operation. A failed save is logged as a warning and dropped; the
// next queued snapshot carries the full state anyway.
type Saver struct {
	repo    ports.SnapshotRepository
	jobs    chan SaveJob
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
	// pending counts submitted jobs until they are written or discarded, so
	// Flush can wait for the queue to drain.
	pending sync.WaitGroup
}

// NewSaver creates a saver with the given queue size and per-save timeout.
func NewSaver(repo ports.SnapshotRepository, queueSize int, timeout time.Duration, logger *slog.Logger) *Saver {
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		repo:    repo,
		jobs:    make(chan SaveJob, queueSize),
		timeout: timeout,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (s *Saver) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for job := range s.jobs {
				s.process(job)
			}
		}()
	}
}

// Stop drains the queue and waits for in-flight saves to finish.
func (s *Saver) Stop() {
	close(s.jobs)
	s.wg.Wait()
}

// Submit queues a snapshot without blocking. When the queue is full the
// oldest pending snapshot is discarded in favor of the new one: every
// snapshot is a full-state write, so only the newest matters.
func (s *Saver) Submit(job SaveJob) {
	s.pending.Add(1)
	for {
		select {
		case s.jobs <- job:
			return
		default:
		}
		select {
		case <-s.jobs:
			s.pending.Done()
		default:
		}
	}
}

// Flush blocks until every submitted snapshot has been written or discarded.
// Used before a final synchronous persist so no queued write can land after
// it.
func (s *Saver) Flush() {
	s.pending.Wait()
}

func (s *Saver) process(job SaveJob) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.repo.Save(ctx, job.Identity, job.Snapshot); err != nil {
		s.logger.Warn("snapshot save failed, in-memory state stands",
			slog.String("identity", job.Identity),
			slog.Any("error", err))
	}
}
