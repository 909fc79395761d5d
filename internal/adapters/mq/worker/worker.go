// Package worker drains the audit queue and persists EXP award entries.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/miyabi-lab/encore/internal/adapters/mq/queue"
	"github.com/miyabi-lab/encore/internal/adapters/repository"
	"github.com/miyabi-lab/encore/pkg/logger"
	"github.com/miyabi-lab/encore/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Entry is what workers read off the queue.
type Entry = queue.Entry

// Source defines how workers receive entries.
type Source interface {
	Dequeue(ctx context.Context) <-chan Entry
}

// Recorder persists one audit entry.
type Recorder interface {
	AppendAward(ctx context.Context, award Entry) error
}

// auditLogRecorder narrows repository.AuditLog to the Recorder contract.
type auditLogRecorder struct {
	log repository.AuditLog
}

func (r *auditLogRecorder) AppendAward(ctx context.Context, award Entry) error {
	return r.log.AppendAward(ctx, award)
}

// NewRecorder wraps a repository audit log as a Recorder.
func NewRecorder(log repository.AuditLog) Recorder {
	return &auditLogRecorder{log: log}
}

// Writer drains entries from a source into a recorder.
type Writer struct {
	source   Source
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWriter creates an audit writer with configuration options.
func NewWriter(source Source, recorder Recorder, opts ...Option) *Writer {
	w := &Writer{
		source:   source,
		recorder: recorder,
		name:     "audit-writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("audit-writer"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run drains the source until ctx is cancelled, shutdown is requested, or
// the source channel closes.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := w.record(ctx, entry); err != nil {
				w.logger.Error(ctx, "failed to persist audit entry",
					logger.String("awardID", entry.ID),
					logger.String("userID", entry.UserID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the writer, waiting up to ctx for it to drain.
func (w *Writer) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "audit writer shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// record persists a single entry and tracks latency.
func (w *Writer) record(ctx context.Context, entry Entry) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.AppendAward(ctx, entry); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("append award %s: %w", entry.ID, err)
	}
	return nil
}

// Pool manages a fixed set of audit writers.
type Pool struct {
	writers []*Writer
	logger  logger.Logger
}

// NewPool creates a pool of writerCount audit writers.
func NewPool(writerCount int, source Source, recorder Recorder) *Pool {
	if writerCount < 1 {
		writerCount = defaultWorkerCount
	}

	p := &Pool{
		writers: make([]*Writer, writerCount),
		logger:  logger.Get().Named("audit-pool"),
	}
	for i := range p.writers {
		p.writers[i] = NewWriter(source, recorder, WithName(fmt.Sprintf("audit-writer-%d", i)))
	}

	metrics.UpdateWorkerCount(writerCount)

	return p
}

// Start launches all writers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.writers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "audit writers started", logger.Int("count", len(p.writers)))
}

// Stop shuts all writers down, bounded by poolShutdownTimeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.writers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "audit writer did not stop cleanly",
				logger.String("writer", w.name), logger.Error(err))
		}
	}
}
