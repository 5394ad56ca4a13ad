package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

type sliceReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

type memoryInbox struct {
	seen map[string]bool
	err  error
}

// Process marks the event seen only when fn succeeds, like a rolled back
// transaction would.
func (m *memoryInbox) Process(ctx context.Context, eventID, _ string, fn func(context.Context, pgx.Tx) error) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	if err := fn(ctx, nil); err != nil {
		return false, err
	}
	m.seen[eventID] = true
	return true, nil
}

func message(eventID string) kafka.Message {
	return kafka.Message{
		Topic:   "appointment.duration.selected.v1",
		Headers: []kafka.Header{{Key: "event_id", Value: []byte(eventID)}},
	}
}

func TestConsumerSkipsDuplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &sliceReader{msgs: []kafka.Message{message("evt-1"), message("evt-1"), message("evt-2")}, cancel: cancel}

	var handled []string
	c := newConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, &memoryInbox{seen: map[string]bool{}},
		func(_ context.Context, _ pgx.Tx, msg kafka.Message) error {
			handled = append(handled, string(msg.Headers[0].Value))
			return nil
		})
	c.Run(ctx)

	if len(handled) != 2 || handled[0] != "evt-1" || handled[1] != "evt-2" {
		t.Fatalf("unexpected handled events: %v", handled)
	}
	if !reader.closed {
		t.Fatalf("expected reader to be closed")
	}
}

func TestConsumerInboxFailureSkipsHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &sliceReader{msgs: []kafka.Message{message("evt-1")}, cancel: cancel}

	called := false
	c := newConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, &memoryInbox{err: errors.New("db down")},
		func(context.Context, pgx.Tx, kafka.Message) error {
			called = true
			return nil
		})
	c.Run(ctx)

	if called {
		t.Fatalf("handler must not run when the inbox cannot record the event")
	}
}

func TestConsumerRetriesEventAfterHandlerFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &sliceReader{msgs: []kafka.Message{message("evt-1"), message("evt-1"), message("evt-1")}, cancel: cancel}

	attempts := 0
	inbox := &memoryInbox{seen: map[string]bool{}}
	c := newConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, inbox,
		func(context.Context, pgx.Tx, kafka.Message) error {
			attempts++
			if attempts == 1 {
				return errors.New("db down")
			}
			return nil
		})
	c.Run(ctx)

	if attempts != 2 {
		t.Fatalf("expected the redelivery after a failure to be handled, got %d attempts", attempts)
	}
	if !inbox.seen["evt-1"] {
		t.Fatalf("expected evt-1 recorded after the successful attempt")
	}
}
