package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Максимальное время ожидания для pong от клиента
	pongWait = 60 * time.Second

	// Отправлять ping-сообщения клиенту с этим интервалом
	pingPeriod = (pongWait * 9) / 10

	writeWait = 10 * time.Second

	// Клиент присылает только короткие служебные события
	maxMessageSize = 4 * 1024

	// Размер буфера для отправляемых сообщений
	writeBufferSize = 256
)

// Client представляет собой отдельное WebSocket соединение
type Client struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	conn      *websocket.Conn
	send      chan []byte // Буферизованный канал исходящих сообщений
	manager   *Manager
	closeChan chan struct{}
}

// NewClient создает новый экземпляр Client
func NewClient(userID uuid.UUID, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		conn:      conn,
		send:      make(chan []byte, writeBufferSize),
		manager:   manager,
		closeChan: make(chan struct{}),
	}
}

// Start регистрирует клиента и запускает горутины чтения и записи
func (c *Client) Start() {
	c.manager.AddClient(c)

	c.reply(EventConnected, "")

	go c.readPump()
	go c.writePump()
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump() {
	defer func() {
		c.manager.RemoveClient(c.ID)
		c.conn.Close()
		close(c.closeChan)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.log.WithError(err).Warn("неожиданное закрытие соединения")
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.manager.log.WithError(err).Warn("ошибка записи в соединение")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			return
		}
	}
}

// handleIncomingMessage обрабатывает входящие события клиента
func (c *Client) handleIncomingMessage(message []byte) {
	log := c.manager.log.WithFields(logrus.Fields{"client_id": c.ID, "user_id": c.UserID})

	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.WithError(err).Debug("некорректное событие")
		return
	}

	// Клиент не может действовать от имени другого пользователя
	if event.UserID != "" && event.UserID != c.UserID.String() {
		log.WithField("claimed_user_id", event.UserID).Warn("userID в событии не совпадает с соединением")
		return
	}

	switch event.Type {
	case EventNotificationRead:
		notificationID, err := uuid.Parse(event.NotificationID)
		if err != nil {
			c.reply(EventError, event.NotificationID)
			return
		}
		if err := c.manager.markRead(c.UserID, notificationID); err != nil {
			log.WithError(err).WithField("notification_id", notificationID).Debug("не удалось отметить уведомление")
			c.reply(EventError, event.NotificationID)
			return
		}
		c.reply(EventNotificationRead, event.NotificationID)
	default:
		log.WithField("type", event.Type).Debug("необработанный тип события")
	}
}

// reply отправляет ответ только в это соединение
func (c *Client) reply(eventType EventType, notificationID string) {
	data, err := json.Marshal(Event{
		Type:           eventType,
		NotificationID: notificationID,
		UserID:         c.UserID.String(),
		Timestamp:      time.Now(),
	})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
