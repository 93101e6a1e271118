package samples

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/kafka"
)

// Publisher is the subset of the Kafka producer the sink needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// KafkaSink publishes samples as JSON events keyed by the three-gram, so all
// samples of one key land on the same partition.
type KafkaSink struct {
	pub Publisher
}

func NewKafkaSink(pub Publisher) *KafkaSink {
	return &KafkaSink{pub: pub}
}

func (k *KafkaSink) Record(ctx context.Context, samples ...Sample) error {
	events := make([]kafka.Event, 0, len(samples))
	for _, s := range samples {
		events = append(events, kafka.Event{
			Key:     s.Key.String(),
			Headers: map[string]string{"kind": s.Kind, "metric": s.Metric},
			Value:   s,
		})
	}
	return k.pub.PublishBatch(ctx, events)
}

// HandleEvent returns a consumer handler that decodes one sample per message
// and stores it in sink. Undecodable samples are kafka.ErrMalformed.
func HandleEvent(sink Sink) kafka.MessageHandler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		s, err := kafka.DecodeJSON[Sample](value)
		if err != nil {
			return err
		}
		if s.Kind == "" || s.Metric == "" {
			return fmt.Errorf("%w: sample for %q missing kind or metric", kafka.ErrMalformed, s.Key.String())
		}
		return sink.Record(ctx, s)
	}
}
