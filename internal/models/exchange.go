package models

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeStatus описывает состояние обмена
type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeAccepted  ExchangeStatus = "accepted"
	ExchangeRejected  ExchangeStatus = "rejected"
	ExchangeCompleted ExchangeStatus = "completed"
	// ExchangeCancelled зарезервирован схемой, переходов в него нет
	ExchangeCancelled ExchangeStatus = "cancelled"
)

// exchangeTransitions перечисляет все допустимые переходы
var exchangeTransitions = map[ExchangeStatus][]ExchangeStatus{
	ExchangePending:  {ExchangeAccepted, ExchangeRejected},
	ExchangeAccepted: {ExchangeCompleted},
}

// CanTransitionTo проверяет, разрешен ли переход из текущего статуса в next
func (s ExchangeStatus) CanTransitionTo(next ExchangeStatus) bool {
	for _, allowed := range exchangeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive сообщает, удерживает ли обмен предметы
func (s ExchangeStatus) IsActive() bool {
	return s == ExchangePending || s == ExchangeAccepted
}

// Exchange представляет предложение обмена между инициатором и владельцем предмета
type Exchange struct {
	ID              uuid.UUID      `json:"id"`
	RequesterID     uuid.UUID      `json:"requester_id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	OwnerItemID     uuid.UUID      `json:"owner_item_id"`
	RequesterItemID *uuid.UUID     `json:"requester_item_id"`
	Message         string         `json:"message"`
	Status          ExchangeStatus `json:"status"`
	CompletionNotes string         `json:"completion_notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsParticipant сообщает, является ли пользователь стороной обмена
func (e *Exchange) IsParticipant(userID uuid.UUID) bool {
	return e.RequesterID == userID || e.OwnerID == userID
}

// Counterparty возвращает вторую сторону обмена для участника userID
func (e *Exchange) Counterparty(userID uuid.UUID) uuid.UUID {
	if e.RequesterID == userID {
		return e.OwnerID
	}
	return e.RequesterID
}

// ItemIDs возвращает предметы, участвующие в обмене
func (e *Exchange) ItemIDs() []uuid.UUID {
	ids := []uuid.UUID{e.OwnerItemID}
	if e.RequesterItemID != nil {
		ids = append(ids, *e.RequesterItemID)
	}
	return ids
}
