package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the broker queue audit entries are mirrored to.
const DefaultQueue = "audit.entries"

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGSink writes entries to the audit_logs table.
type PGSink struct {
	db Execer
}

// NewPGSink constructs a PGSink.
func NewPGSink(db Execer) *PGSink {
	return &PGSink{db: db}
}

// Append inserts e, ignoring an entry that was already written.
func (s *PGSink) Append(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, `INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, ip_address, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.TenantID, e.UserID, e.Action, e.EntityType, e.EntityID, e.IP, e.Timestamp)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueDeclarer is the subset of *amqp.Channel used to declare the queue.
type QueueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// DeclareQueue declares a durable queue for audit entries.
func DeclareQueue(ch QueueDeclarer, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("audit: declare queue %s: %w", queue, err)
	}
	return nil
}

// BrokerSink publishes entries to a RabbitMQ queue as persistent JSON messages.
type BrokerSink struct {
	mu    sync.Mutex
	ch    Publisher
	queue string
}

// NewBrokerSink constructs a BrokerSink.
func NewBrokerSink(ch Publisher, queue string) *BrokerSink {
	if queue == "" {
		queue = DefaultQueue
	}
	return &BrokerSink{ch: ch, queue: queue}
}

// Append publishes e to the queue.
func (s *BrokerSink) Append(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.Timestamp,
		Type:         e.Action,
		Body:         body,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ch.PublishWithContext(ctx, "", s.queue, false, false, msg); err != nil {
		return fmt.Errorf("audit: publish: %w", err)
	}
	return nil
}

// Tee appends to primary and then to every mirror. Only the primary outcome is returned.
type Tee struct {
	primary Sink
	mirrors []Sink
	logger  *slog.Logger
}

// NewTee constructs a Tee.
func NewTee(logger *slog.Logger, primary Sink, mirrors ...Sink) *Tee {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tee{primary: primary, mirrors: mirrors, logger: logger}
}

// Append implements Sink.
func (t *Tee) Append(ctx context.Context, e Entry) error {
	if err := t.primary.Append(ctx, e); err != nil {
		return err
	}
	for _, m := range t.mirrors {
		if err := m.Append(ctx, e); err != nil {
			t.logger.Warn("audit mirror failed", slog.String("audit_id", e.ID), slog.Any("error", err))
		}
	}
	return nil
}

var (
	_ Sink = (*PGSink)(nil)
	_ Sink = (*BrokerSink)(nil)
	_ Sink = (*Tee)(nil)
)
