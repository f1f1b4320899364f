package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"pricing-service/internal/entity"
)

// fakeReader feeds messages from a channel and honors context cancellation
// the way *kafka.Reader does.
type fakeReader struct {
	msgs   chan kafka.Message
	closed chan struct{}
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		msgs:   make(chan kafka.Message, 16),
		closed: make(chan struct{}),
	}
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	close(r.closed)
	return nil
}

func (r *fakeReader) send(t *testing.T, event entity.PriceChangeEvent) {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	r.msgs <- kafka.Message{Value: value}
}

func TestSubscribeDeliversEventsInOrder(t *testing.T) {
	reader := newFakeReader()
	n := New(reader)

	received := make(chan entity.PriceChangeEvent, 16)
	unsubscribe := n.Subscribe(func(event entity.PriceChangeEvent) {
		received <- event
	})
	defer unsubscribe()

	for i := 1; i <= 3; i++ {
		reader.send(t, entity.PriceChangeEvent{ProductID: i, NewPrice: float64(i * 10)})
	}

	for i := 1; i <= 3; i++ {
		select {
		case event := <-received:
			if event.ProductID != i {
				t.Fatalf("expected product %d, got %d", i, event.ProductID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	reader := newFakeReader()
	n := New(reader)

	received := make(chan entity.PriceChangeEvent, 16)
	unsubscribe := n.Subscribe(func(event entity.PriceChangeEvent) {
		received <- event
	})

	reader.send(t, entity.PriceChangeEvent{ProductID: 1})
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	unsubscribe()

	select {
	case <-reader.closed:
	default:
		t.Fatal("expected reader to be closed on unsubscribe")
	}

	reader.msgs <- kafka.Message{Value: []byte(`{"product_id":2}`)}
	select {
	case event := <-received:
		t.Fatalf("received event %d after unsubscribe", event.ProductID)
	case <-time.After(100 * time.Millisecond):
	}

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestMalformedMessagesAreSkipped(t *testing.T) {
	reader := newFakeReader()
	n := New(reader)

	received := make(chan entity.PriceChangeEvent, 16)
	unsubscribe := n.Subscribe(func(event entity.PriceChangeEvent) {
		received <- event
	})
	defer unsubscribe()

	reader.msgs <- kafka.Message{Value: []byte(`not json`)}
	reader.send(t, entity.PriceChangeEvent{ProductID: 5})

	select {
	case event := <-received:
		if event.ProductID != 5 {
			t.Fatalf("expected product 5, got %d", event.ProductID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event after malformed message")
	}
}
