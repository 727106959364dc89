// Package kafkatest provides an in-memory message writer for tests.
package kafkatest

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	pkgkafka "github.com/Zarakkhan-dev/automated-review-system/pkg/kafka"
)

// Recorder implements pkgkafka.MessageWriter and keeps every message.
// Setting Err makes subsequent writes fail.
type Recorder struct {
	mu   sync.Mutex
	msgs []kafka.Message
	Err  error
}

// NewProducer returns a producer writing into a fresh Recorder.
func NewProducer(logger *slog.Logger) (*pkgkafka.Producer, *Recorder) {
	r := &Recorder{}
	return pkgkafka.NewProducerWithWriter(r, nil, logger), r
}

func (r *Recorder) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Message(nil), r.msgs...)
}

// Topics lists the topic of every recorded message in write order.
func (r *Recorder) Topics() []string {
	var out []string
	for _, m := range r.Messages() {
		out = append(out, m.Topic)
	}
	return out
}

// Events decodes every recorded message on topic.
func (r *Recorder) Events(topic string) []pkgkafka.Event {
	var out []pkgkafka.Event
	for _, m := range r.Messages() {
		if m.Topic != topic {
			continue
		}
		var ev pkgkafka.Event
		if err := json.Unmarshal(m.Value, &ev); err == nil {
			out = append(out, ev)
		}
	}
	return out
}
