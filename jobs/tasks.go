package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tenantflow/tenantflow/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit holds audit entries whose synchronous append failed.
	QueueAudit = "audit"
	// TaskAuditAppend re-appends a single audit entry.
	TaskAuditAppend = "audit:append"

	auditMaxRetry = 10
)

// Observer records job outcomes.
type Observer interface {
	ObserveJob(task string, err error)
}

// NewAuditAppendTask constructs an Asynq task carrying the full entry. The task ID is
// the entry ID so a duplicate enqueue is rejected by the broker.
func NewAuditAppendTask(e audit.Entry) (*asynq.Task, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("jobs: audit entry without id")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditAppend, data,
		asynq.Queue(QueueAudit),
		asynq.TaskID(e.ID),
		asynq.MaxRetry(auditMaxRetry),
	), nil
}

// AuditAppendHandler processes TaskAuditAppend tasks by appending through sink.
// Sinks ignore duplicate IDs, so a retried task never writes a second row.
func AuditAppendHandler(sink audit.Sink, observer Observer, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var entry audit.Entry
		if err := json.Unmarshal(t.Payload(), &entry); err != nil || entry.ID == "" {
			logger.Error("audit retry payload rejected", slog.Any("error", err))
			observe(observer, TaskAuditAppend, asynq.SkipRetry)
			return asynq.SkipRetry
		}
		err := sink.Append(ctx, entry)
		observe(observer, TaskAuditAppend, err)
		if err != nil {
			logger.Warn("audit retry append failed", slog.String("audit_id", entry.ID), slog.Any("error", err))
			return err
		}
		logger.Info("audit entry appended from retry queue", slog.String("audit_id", entry.ID))
		return nil
	}
}

func observe(o Observer, task string, err error) {
	if o != nil {
		o.ObserveJob(task, err)
	}
}
