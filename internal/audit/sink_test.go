package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingExec struct {
	sql  string
	args []any
	err  error
}

func (r *recordingExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), r.err
}

type recordingPublisher struct {
	key string
	msg amqp.Publishing
	err error
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, _ string, key string, _, _ bool, msg amqp.Publishing) error {
	p.key = key
	p.msg = msg
	return p.err
}

func sampleEntry() Entry {
	return Entry{
		ID:         "7b0f3a4e-0000-4000-8000-000000000001",
		TenantID:   "t1",
		UserID:     "u1",
		Action:     ActionCreateTask,
		EntityType: EntityTask,
		EntityID:   "task-1",
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPGSinkIsIdempotentInsert(t *testing.T) {
	exec := &recordingExec{}
	if err := NewPGSink(exec).Append(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if !strings.Contains(exec.sql, "ON CONFLICT (id) DO NOTHING") {
		t.Fatalf("expected idempotent insert, got %s", exec.sql)
	}
	if exec.args[0] != sampleEntry().ID {
		t.Fatalf("expected entry id as first arg, got %v", exec.args[0])
	}
}

func TestBrokerSinkPublishesPersistentJSON(t *testing.T) {
	pub := &recordingPublisher{}
	if err := NewBrokerSink(pub, "").Append(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if pub.key != DefaultQueue {
		t.Fatalf("expected routing key %s, got %s", DefaultQueue, pub.key)
	}
	if pub.msg.DeliveryMode != amqp.Persistent || pub.msg.MessageId != sampleEntry().ID {
		t.Fatalf("unexpected publishing %+v", pub.msg)
	}
	var got Entry
	if err := json.Unmarshal(pub.msg.Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.EntityID != "task-1" {
		t.Fatalf("unexpected body %s", pub.msg.Body)
	}
}

func TestTeeReturnsPrimaryOnly(t *testing.T) {
	primary := newMemorySink()
	mirror := &recordingPublisher{err: errors.New("channel closed")}
	logger, buf := bufferLogger()
	tee := NewTee(logger, primary, NewBrokerSink(mirror, "q"))

	if err := tee.Append(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("mirror failure must not surface: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("audit mirror failed")) {
		t.Fatalf("expected mirror failure logged")
	}

	primary.err = errors.New("db down")
	if err := tee.Append(context.Background(), sampleEntry()); err == nil {
		t.Fatalf("expected primary failure")
	}
}
