package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/metrics"
	"github.com/rajivgeraev/barterhub/internal/realtime"
)

// Manager представляет центральный менеджер для всех WebSocket соединений
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[uuid.UUID]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	onRead       ReadHandler
	onReadMutex  sync.RWMutex
	log          logrus.FieldLogger
	ctx          context.Context
	cancel       context.CancelFunc
}

// ReadHandler отмечает уведомление прочитанным по событию клиента
type ReadHandler func(ctx context.Context, userID, notificationID uuid.UUID) error

// EventType определяет тип события WebSocket
type EventType string

const (
	EventConnected        EventType = "connected"
	EventNotification     EventType = "notification"
	EventNotificationRead EventType = "notification_read"
	EventError            EventType = "error"
)

// Event представляет структуру сообщения для WebSocket
type Event struct {
	Type           EventType       `json:"type"`
	NotificationID string          `json:"notification_id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// NewManager создает новый экземпляр Manager
func NewManager(log logrus.FieldLogger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]bool),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// OnNotificationRead задает обработчик события notification_read
func (m *Manager) OnNotificationRead(fn ReadHandler) {
	m.onReadMutex.Lock()
	m.onRead = fn
	m.onReadMutex.Unlock()
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	m.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Info("WebSocket клиент подключен")
}

// RemoveClient удаляет клиента
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.Lock()
	client, exists := m.clients[clientID]
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	if !exists {
		return
	}

	m.userMutex.Lock()
	if clients, ok := m.userClients[client.UserID]; ok {
		delete(clients, clientID)
		// Последнее соединение пользователя
		if len(clients) == 0 {
			delete(m.userClients, client.UserID)
		}
	}
	m.userMutex.Unlock()

	m.log.WithFields(logrus.Fields{"client_id": clientID, "user_id": client.UserID}).Info("WebSocket клиент отключен")
}

// ConnectedCount возвращает число открытых соединений пользователя
func (m *Manager) ConnectedCount(userID uuid.UUID) int {
	m.userMutex.RLock()
	defer m.userMutex.RUnlock()
	return len(m.userClients[userID])
}

// Deliver отправляет конверт из realtime во все соединения получателя
func (m *Manager) Deliver(env realtime.Envelope) {
	m.SendToUser(env.UserID, Event{
		Type:    EventType(env.Type),
		UserID:  env.UserID.String(),
		Payload: env.Payload,
	})
}

// SendToUser отправляет событие всем соединениям конкретного пользователя
func (m *Manager) SendToUser(userID uuid.UUID, event Event) {
	m.userMutex.RLock()
	clientIDs := make([]uuid.UUID, 0, len(m.userClients[userID]))
	for id := range m.userClients[userID] {
		clientIDs = append(clientIDs, id)
	}
	m.userMutex.RUnlock()

	if len(clientIDs) == 0 {
		// Пользователь не онлайн, уведомление уже сохранено в БД
		metrics.RealtimeDeliveries.WithLabelValues("offline").Inc()
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		m.log.WithError(err).Error("ошибка сериализации события")
		return
	}

	for _, clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		select {
		case client.send <- eventJSON:
			metrics.RealtimeDeliveries.WithLabelValues("delivered").Inc()
		default:
			// Клиент не успевает читать, закрываем соединение
			m.log.WithField("client_id", client.ID).Warn("буфер отправки переполнен, соединение закрыто")
			metrics.RealtimeDeliveries.WithLabelValues("dropped").Inc()
			client.conn.Close()
			m.RemoveClient(client.ID)
		}
	}
}

// markRead вызывает обработчик notification_read
func (m *Manager) markRead(userID, notificationID uuid.UUID) error {
	m.onReadMutex.RLock()
	onRead := m.onRead
	m.onReadMutex.RUnlock()

	if onRead == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()
	return onRead(ctx, userID, notificationID)
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[uuid.UUID]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
