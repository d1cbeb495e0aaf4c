package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenantflow/tenantflow/internal/shared"
)

const defaultAppendTimeout = 5 * time.Second

// Sink durably appends entries. Appending the same ID twice must be a no-op.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Retrier hands a failed entry to a background queue.
type Retrier interface {
	Enqueue(ctx context.Context, e Entry) error
}

// FailureObserver counts append failures for operators.
type FailureObserver interface {
	ObserveAuditFailure(stage string)
}

// Recorder appends audit entries after a mutation has committed. It never reports
// failure to the caller; failures go to the log, metrics and the retry queue.
type Recorder struct {
	sink     Sink
	retrier  Retrier
	observer FailureObserver
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// RecorderOption customises a Recorder.
type RecorderOption func(*Recorder)

// WithRetrier sets the retry queue.
func WithRetrier(r Retrier) RecorderOption {
	return func(rec *Recorder) { rec.retrier = r }
}

// WithObserver sets the failure observer.
func WithObserver(o FailureObserver) RecorderOption {
	return func(rec *Recorder) { rec.observer = o }
}

// WithTimeout bounds a single append.
func WithTimeout(d time.Duration) RecorderOption {
	return func(rec *Recorder) {
		if d > 0 {
			rec.timeout = d
		}
	}
}

// NewRecorder constructs a Recorder.
func NewRecorder(sink Sink, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	rec := &Recorder{sink: sink, logger: logger, timeout: defaultAppendTimeout, now: time.Now}
	for _, opt := range opts {
		opt(rec)
	}
	return rec
}

// Record appends e. The append outlives cancellation of ctx but is bounded by the
// recorder timeout.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}
	if e.IP == "" {
		e.IP = shared.ClientIPFromContext(ctx)
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	err := r.sink.Append(actx, e)
	if err == nil {
		return
	}
	r.logger.Error("audit append failed", append(entryAttrs(e), slog.Any("error", err))...)
	r.observe("append")

	if r.retrier != nil {
		rerr := r.retrier.Enqueue(actx, e)
		if rerr == nil {
			r.logger.Warn("audit append queued for retry", slog.String("audit_id", e.ID))
			return
		}
		r.logger.Error("audit retry enqueue failed", slog.String("audit_id", e.ID), slog.Any("error", rerr))
	}
	r.observe("dropped")
	r.logger.Error("audit entry dropped", entryAttrs(e)...)
}

func (r *Recorder) observe(stage string) {
	if r.observer != nil {
		r.observer.ObserveAuditFailure(stage)
	}
}

func entryAttrs(e Entry) []any {
	return []any{
		slog.String("audit_id", e.ID),
		slog.String("tenant_id", e.TenantID),
		slog.String("user_id", e.UserID),
		slog.String("action", e.Action),
		slog.String("entity_type", e.EntityType),
		slog.String("entity_id", e.EntityID),
		slog.String("ip", e.IP),
		slog.Time("at", e.Timestamp),
	}
}
