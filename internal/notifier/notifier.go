package notifier

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"pricing-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// messageReader is the part of *kafka.Reader the notifier uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Notifier delivers price change events to in-process subscribers. Events
// arrive in the order the price change topic commits them; no batching or
// reordering happens here.
type Notifier struct {
	reader messageReader
}

// New creates a Notifier backed by the given reader.
func New(reader messageReader) *Notifier {
	return &Notifier{reader: reader}
}

// Subscribe starts consuming the price change feed and invokes onChange
// for every decoded event. The returned function cancels the subscription:
// after it returns, no further callbacks fire, though a dispatch already
// in flight may complete first.
func (n *Notifier) Subscribe(onChange func(entity.PriceChangeEvent)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go n.consume(ctx, onChange, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := n.reader.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing price change reader")
			}
			<-done
		})
	}
}

func (n *Notifier) consume(ctx context.Context, onChange func(entity.PriceChangeEvent), done chan struct{}) {
	defer close(done)

	for {
		msg, err := n.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Msgf("Error reading price change message: %v", err)
			continue
		}

		var event entity.PriceChangeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error().Msgf("Error unmarshalling price change message: %v", err)
			continue
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		onChange(event)
	}
}
