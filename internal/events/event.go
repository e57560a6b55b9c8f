// Package events публикует события жизненного цикла обменов в Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const source = "barterhub"

// Типы событий
const (
	ExchangeRequested = "exchange.requested"
	ExchangeAccepted  = "exchange.accepted"
	ExchangeRejected  = "exchange.rejected"
	ExchangeCompleted = "exchange.completed"
	RatingCreated     = "rating.created"
	MessageSent       = "message.sent"
)

// Event конверт события
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	ActorID       string          `json:"actor_id,omitempty"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent создает событие с новым ID и текущим временем
func NewEvent(eventType, aggregateType string, aggregateID, actorID uuid.UUID, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID.String(),
		AggregateType: aggregateType,
		ActorID:       actorID.String(),
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          dataBytes,
	}, nil
}

// Marshal сериализует событие в JSON
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData разбирает полезную нагрузку события в target
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}
