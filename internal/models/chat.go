package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType определяет тип сообщения
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageSystem MessageType = "system"
)

// Conversation представляет переписку двух пользователей.
// Пара участников хранится упорядоченной, поэтому на пару (и обмен) существует одна запись.
type Conversation struct {
	ID             uuid.UUID  `json:"id"`
	Participant1ID uuid.UUID  `json:"participant_1_id"`
	Participant2ID uuid.UUID  `json:"participant_2_id"`
	ExchangeID     *uuid.UUID `json:"exchange_id,omitempty"`
	LastMessageID  *uuid.UUID `json:"last_message_id,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Дополнительные поля для API
	LastMessageText string `json:"last_message_text,omitempty"`
	UnreadCount     int    `json:"unread_count"`
}

// HasParticipant сообщает, участвует ли пользователь в переписке
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

// Message представляет сообщение
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	ReceiverID     uuid.UUID   `json:"receiver_id"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"message_type"`
	ExchangeID     *uuid.UUID  `json:"exchange_id"`
	IsRead         bool        `json:"is_read"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderedPair возвращает пару пользователей в каноническом порядке
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
