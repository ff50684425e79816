// Package audit records security-relevant account events. Appends are
// dispatched to a bounded queue and written by a worker, decoupled from the
// operation that emitted them: an audit write failure is logged, never
// propagated.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
)

const appendTimeout = 5 * time.Second

// Recorder appends audit entries asynchronously.
type Recorder struct {
	logger *zerolog.Logger
	repo   repository.AuditLogRepository
	queue  chan model.AuditLog

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewRecorder starts a recorder with the given queue capacity.
func NewRecorder(logger *zerolog.Logger, repo repository.AuditLogRepository, capacity int) *Recorder {
	r := &Recorder{
		logger: logger,
		repo:   repo,
		queue:  make(chan model.AuditLog, capacity),
		done:   make(chan struct{}),
	}

	go r.run()

	return r
}

// Record enqueues an audit entry. It never blocks; when the queue is full or
// the recorder is already closed the entry is dropped with a warning. Entries
// for the same account are written in the order they were recorded.
func (r *Recorder) Record(entry model.AuditLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn().
			Str("action", string(entry.Action)).
			Str("user_id", entry.UserID.Hex()).
			Msg("recorder closed, entry dropped")
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn().
			Str("action", string(entry.Action)).
			Str("user_id", entry.UserID.Hex()).
			Msg("audit queue full, entry dropped")
	}
}

// Close stops accepting new entries and waits for the queue to drain. Safe to
// call concurrently with Record and safe to call more than once.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		err := r.repo.Append(ctx, &entry)
		cancel()

		if err != nil {
			r.logger.Error().Err(err).
				Str("action", string(entry.Action)).
				Str("user_id", entry.UserID.Hex()).
				Msg("failed to append audit log entry")
		}
	}
}
