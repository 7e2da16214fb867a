package grade

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/observability"
)

// Writer persists committed cells on a background worker. Saving never
// blocks the gradebook: when the queue is full the cell is dropped and
// counted.
type Writer struct {
	store   Store
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Entry
	done   chan struct{}
}

// NewWriter starts a writer with a queue of queueSize entries.
func NewWriter(store Store, queueSize int, timeout time.Duration, logger zerolog.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	w := &Writer{
		store:   store,
		timeout: timeout,
		logger:  logger.With().Str("component", "grade_writer").Logger(),
		queue:   make(chan Entry, queueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// For returns the sink a gradebook session of the given class saves into.
func (w *Writer) For(scope Scope) gradebook.GradeSink {
	return gradebook.GradeSinkFunc(func(rec gradebook.GradeRecord) {
		w.Enqueue(Entry{Scope: scope, Record: rec})
	})
}

// Enqueue hands an entry to the worker, reporting false when it was dropped.
func (w *Writer) Enqueue(e Entry) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		observability.GradeWrites().WithLabelValues(observability.GradeWriteDropped).Inc()
		w.logger.Warn().Str("student_id", e.Record.StudentID).Msg("grade writer closed, dropping grade")
		return false
	}

	select {
	case w.queue <- e:
		observability.GradeQueueDepth().Set(float64(len(w.queue)))
		return true
	default:
		observability.GradeWrites().WithLabelValues(observability.GradeWriteDropped).Inc()
		w.logger.Warn().
			Str("student_id", e.Record.StudentID).
			Str("activity_id", e.Record.ActivityID).
			Msg("grade queue full, dropping grade")
		return false
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)

	for e := range w.queue {
		observability.GradeQueueDepth().Set(float64(len(w.queue)))
		w.write(e)
	}
}

func (w *Writer) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.store.Save(ctx, e); err != nil {
		observability.GradeWrites().WithLabelValues(observability.GradeWriteError).Inc()
		w.logger.Error().Err(err).
			Str("teacher_id", e.TeacherID).
			Str("subject", e.Subject).
			Str("student_id", e.Record.StudentID).
			Msg("failed to persist grade")
		return
	}
	observability.GradeWrites().WithLabelValues(observability.GradeWriteOK).Inc()
}
