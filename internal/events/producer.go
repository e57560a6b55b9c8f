package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher публикует события
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Producer публикует события в топик Kafka через kafka-go
type Producer struct {
	writer *kafka.Writer
	topic  string
	log    logrus.FieldLogger
}

// NewProducer создает Producer для брокеров brokers
func NewProducer(brokers []string, topic string, log logrus.FieldLogger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{writer: w, topic: topic, log: log}
}

// Publish отправляет событие; ключ сообщения это ID агрегата, поэтому события одного обмена упорядочены
func (p *Producer) Publish(ctx context.Context, event *Event) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event to %s: %w", p.topic, err)
	}

	p.log.WithFields(logrus.Fields{
		"topic":        p.topic,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}).Debug("событие опубликовано")

	return nil
}

// Close закрывает writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

func toMessage(event *Event) (kafka.Message, error) {
	data, err := event.Marshal()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}, nil
}

// Nop отбрасывает события; используется, когда брокеры не настроены
type Nop struct{}

// Publish ничего не делает
func (Nop) Publish(context.Context, *Event) error { return nil }
