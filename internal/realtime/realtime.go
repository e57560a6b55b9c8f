// Package realtime доставляет уведомления в открытые websocket-соединения.
// Между экземплярами сервиса конверты передаются через Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel канал Redis для уведомлений
const DefaultChannel = "barterhub:notifications"

// Envelope конверт доставки одному пользователю
type Envelope struct {
	UserID  uuid.UUID       `json:"user_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Deliverer отправляет конверт в локальные соединения пользователя
type Deliverer interface {
	Deliver(env Envelope)
}

// Publisher отправляет конверт получателю, где бы он ни был подключен
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// NewEnvelope сериализует payload в конверт
func NewEnvelope(userID uuid.UUID, eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal realtime payload: %w", err)
	}
	return Envelope{UserID: userID, Type: eventType, Payload: data}, nil
}

// LocalPublisher доставляет конверты в менеджер того же процесса
type LocalPublisher struct {
	target Deliverer
}

// NewLocalPublisher создает LocalPublisher
func NewLocalPublisher(target Deliverer) *LocalPublisher {
	return &LocalPublisher{target: target}
}

// Publish сразу передает конверт получателю
func (p *LocalPublisher) Publish(_ context.Context, env Envelope) error {
	p.target.Deliver(env)
	return nil
}

// RedisPublisher публикует конверты в канал Redis
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher создает RedisPublisher
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish сериализует конверт и публикует его
func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Relay читает канал Redis и передает конверты локальному менеджеру
type Relay struct {
	client  *redis.Client
	channel string
	target  Deliverer
	log     logrus.FieldLogger
}

// NewRelay создает Relay
func NewRelay(client *redis.Client, channel string, target Deliverer, log logrus.FieldLogger) *Relay {
	return &Relay{client: client, channel: channel, target: target, log: log}
}

// Run подписывается на канал и блокируется до отмены ctx
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Ждем подтверждения подписки, чтобы ошибки соединения вернулись сразу
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}

	r.log.WithField("channel", r.channel).Info("realtime relay подписан")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.WithError(err).Warn("некорректный конверт в канале")
				continue
			}
			r.target.Deliver(env)
		}
	}
}

// NewRedisClient создает клиента по URL вида redis://host:port/db и проверяет соединение
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
