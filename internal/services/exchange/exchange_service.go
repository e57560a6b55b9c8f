package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/cascade"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/events"
	"github.com/rajivgeraev/barterhub/internal/metrics"
	"github.com/rajivgeraev/barterhub/internal/models"
	"github.com/rajivgeraev/barterhub/internal/validation"
)

const aggregateType = "exchange"

// Store методы хранилища, которые использует сервис обменов
type Store interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	CreateExchange(ctx context.Context, e *models.Exchange) error
	GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error)
	ListExchanges(ctx context.Context, f db.ExchangeFilter) ([]models.Exchange, error)
	TransitionExchange(ctx context.Context, t db.Transition) (*models.Exchange, error)
	RecomputeUserStats(ctx context.Context, userID uuid.UUID) error
	GetOrCreateConversation(ctx context.Context, userA, userB uuid.UUID, exchangeID *uuid.UUID) (uuid.UUID, error)
	CreateMessage(ctx context.Context, m *models.Message) error
}

// ExchangeService ведет жизненный цикл обмена: запрос, ответ, завершение
type ExchangeService struct {
	store     Store
	notifier  cascade.Notifier
	publisher events.Publisher
	cascade   *cascade.Runner
	log       logrus.FieldLogger
}

// NewExchangeService создает новый экземпляр ExchangeService
func NewExchangeService(store Store, notifier cascade.Notifier, publisher events.Publisher, runner *cascade.Runner, log logrus.FieldLogger) *ExchangeService {
	return &ExchangeService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		cascade:   runner,
		log:       log,
	}
}

// Request создает предложение обмена от requesterID владельцу предмета
func (s *ExchangeService) Request(ctx context.Context, requesterID uuid.UUID, req CreateRequest) (*models.Exchange, error) {
	req.normalize()
	if err := validation.Validate(req); err != nil {
		return nil, apperrors.InvalidRequest(err.Error())
	}

	ownerItemID := uuid.MustParse(req.OwnerItemID)
	ownerItem, err := s.store.GetItem(ctx, ownerItemID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("item not found")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}

	if ownerItem.OwnerID == requesterID {
		return nil, apperrors.InvalidRequest("cannot exchange with your own item")
	}

	var requesterItemID *uuid.UUID
	if req.RequesterItemID != "" {
		id := uuid.MustParse(req.RequesterItemID)
		offered, err := s.store.GetItem(ctx, id)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.Store(err)
		}
		if offered == nil || offered.OwnerID != requesterID {
			return nil, apperrors.Forbidden("you can only offer your own items")
		}
		if !offered.IsAvailable() {
			return nil, apperrors.InvalidState("offered item is not available for exchange")
		}
		requesterItemID = &id
	}

	if !ownerItem.IsAvailable() {
		return nil, apperrors.InvalidState("item is not available for exchange")
	}

	exchange := &models.Exchange{
		RequesterID:     requesterID,
		OwnerID:         ownerItem.OwnerID,
		OwnerItemID:     ownerItemID,
		RequesterItemID: requesterItemID,
		Message:         req.Message,
		Status:          models.ExchangePending,
	}

	if err := s.store.CreateExchange(ctx, exchange); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperrors.Conflict("an active exchange request for these items already exists")
		}
		return nil, apperrors.Store(err)
	}
	metrics.ExchangeTransitions.WithLabelValues(string(models.ExchangePending)).Inc()

	s.cascade.Go(s.fields(exchange, requesterID),
		cascade.Notify(s.notifier, exchange.OwnerID, models.NotificationExchangeRequest,
			"New exchange request",
			fmt.Sprintf("You have a new exchange request for %q", ownerItem.Title),
			exchange.ID),
		cascade.Publish(s.publisher, events.ExchangeRequested, aggregateType, exchange.ID, requesterID, exchange),
	)

	return exchange, nil
}

// Respond принимает или отклоняет ожидающий запрос; вызывать может только владелец
func (s *ExchangeService) Respond(ctx context.Context, ownerID uuid.UUID, req RespondRequest) (*models.Exchange, error) {
	req.normalize()
	if err := validation.Validate(req); err != nil {
		return nil, apperrors.InvalidRequest(err.Error())
	}

	exchange, err := s.store.GetExchange(ctx, uuid.MustParse(req.ExchangeID))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.Store(err)
	}
	// Чужой и несуществующий обмен неразличимы для вызывающего
	if exchange == nil || exchange.OwnerID != ownerID {
		return nil, apperrors.NotFound("exchange not found or unauthorized")
	}

	next := models.ExchangeRejected
	if req.Action == ActionAccept {
		next = models.ExchangeAccepted
	}
	if !exchange.Status.CanTransitionTo(next) {
		return nil, apperrors.InvalidState("request is no longer pending")
	}

	transition := db.Transition{
		ExchangeID: exchange.ID,
		From:       models.ExchangePending,
		To:         next,
		Message:    req.Message,
	}
	if next == models.ExchangeAccepted {
		transition.ItemStatus = models.ItemPendingExchange
		transition.RequireItemStatus = models.ItemAvailable
	}

	updated, err := s.store.TransitionExchange(ctx, transition)
	switch {
	case errors.Is(err, db.ErrStaleState):
		return nil, apperrors.InvalidState("request is no longer pending")
	case errors.Is(err, db.ErrItemUnavailable):
		return nil, apperrors.InvalidState("item is no longer available for exchange")
	case err != nil:
		return nil, apperrors.Store(err)
	}
	metrics.ExchangeTransitions.WithLabelValues(string(next)).Inc()

	var steps []cascade.Step
	if next == models.ExchangeAccepted {
		steps = append(steps,
			cascade.Notify(s.notifier, updated.RequesterID, models.NotificationExchangeAccepted,
				"Exchange accepted", "Your exchange request was accepted", updated.ID),
			s.openConversation(updated),
			cascade.Publish(s.publisher, events.ExchangeAccepted, aggregateType, updated.ID, ownerID, updated),
		)
	} else {
		steps = append(steps,
			cascade.Notify(s.notifier, updated.RequesterID, models.NotificationExchangeRejected,
				"Exchange rejected", "Your exchange request was declined", updated.ID),
			cascade.Publish(s.publisher, events.ExchangeRejected, aggregateType, updated.ID, ownerID, updated),
		)
	}
	s.cascade.Go(s.fields(updated, ownerID), steps...)

	return updated, nil
}

// Complete завершает принятый обмен; вызывать может любая из сторон
func (s *ExchangeService) Complete(ctx context.Context, userID uuid.UUID, req CompleteRequest) (*models.Exchange, error) {
	req.normalize()
	if err := validation.Validate(req); err != nil {
		return nil, apperrors.InvalidRequest(err.Error())
	}

	exchange, err := s.store.GetExchange(ctx, uuid.MustParse(req.ExchangeID))
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("exchange not found")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}

	if !exchange.IsParticipant(userID) {
		return nil, apperrors.Forbidden("you are not a participant in this exchange")
	}
	if !exchange.Status.CanTransitionTo(models.ExchangeCompleted) {
		return nil, apperrors.InvalidState("exchange must be accepted before completion")
	}

	updated, err := s.store.TransitionExchange(ctx, db.Transition{
		ExchangeID:      exchange.ID,
		From:            models.ExchangeAccepted,
		To:              models.ExchangeCompleted,
		CompletionNotes: req.CompletionNotes,
		ItemStatus:      models.ItemCompleted,
	})
	if errors.Is(err, db.ErrStaleState) {
		return nil, apperrors.InvalidState("exchange must be accepted before completion")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}
	metrics.ExchangeTransitions.WithLabelValues(string(models.ExchangeCompleted)).Inc()

	s.cascade.Go(s.fields(updated, userID),
		cascade.RecomputeStats(s.store.RecomputeUserStats, updated.RequesterID),
		cascade.RecomputeStats(s.store.RecomputeUserStats, updated.OwnerID),
		cascade.Notify(s.notifier, updated.Counterparty(userID), models.NotificationExchangeCompleted,
			"Exchange completed", "Your exchange was marked as completed. Don't forget to rate it!", updated.ID),
		cascade.Publish(s.publisher, events.ExchangeCompleted, aggregateType, updated.ID, userID, updated),
	)

	return updated, nil
}

// Get возвращает обмен участнику
func (s *ExchangeService) Get(ctx context.Context, userID, exchangeID uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.store.GetExchange(ctx, exchangeID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.Store(err)
	}
	if exchange == nil || !exchange.IsParticipant(userID) {
		return nil, apperrors.NotFound("exchange not found")
	}
	return exchange, nil
}

// List возвращает обмены пользователя по роли и статусу
func (s *ExchangeService) List(ctx context.Context, filter db.ExchangeFilter) ([]models.Exchange, error) {
	switch filter.Role {
	case "":
		filter.Role = db.RoleAll
	case db.RoleAll, db.RoleIncoming, db.RoleOutgoing:
	default:
		return nil, apperrors.InvalidRequest("role must be one of: all incoming outgoing")
	}

	switch filter.Status {
	case "", "all":
		filter.Status = ""
	case models.ExchangePending, models.ExchangeAccepted, models.ExchangeRejected,
		models.ExchangeCompleted, models.ExchangeCancelled:
	default:
		return nil, apperrors.InvalidRequest("unknown exchange status")
	}

	exchanges, err := s.store.ListExchanges(ctx, filter)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return exchanges, nil
}

// openConversation создает чат обмена с системным сообщением
func (s *ExchangeService) openConversation(e *models.Exchange) cascade.Step {
	return cascade.Step{
		Name: "open_conversation",
		Run: func(ctx context.Context) error {
			conversationID, err := s.store.GetOrCreateConversation(ctx, e.RequesterID, e.OwnerID, &e.ID)
			if err != nil {
				return err
			}
			return s.store.CreateMessage(ctx, &models.Message{
				ConversationID: conversationID,
				SenderID:       e.OwnerID,
				ReceiverID:     e.RequesterID,
				Content:        "Exchange accepted. You can discuss the details here.",
				MessageType:    models.MessageSystem,
				ExchangeID:     &e.ID,
			})
		},
	}
}

func (s *ExchangeService) fields(e *models.Exchange, actorID uuid.UUID) logrus.Fields {
	return logrus.Fields{"exchange_id": e.ID, "user_id": actorID}
}
