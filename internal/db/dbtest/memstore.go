// Package dbtest содержит хранилище в памяти с той же семантикой условных обновлений,
// что и db.Store. Используется в тестах сервисов и HTTP-обработчиков.
package dbtest

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/models"
)

// MemStore хранилище в памяти
type MemStore struct {
	mu sync.Mutex

	profiles      map[uuid.UUID]*models.Profile
	items         map[uuid.UUID]*models.Item
	exchanges     map[uuid.UUID]*models.Exchange
	respondedAt   map[uuid.UUID]time.Time
	ratings       []*models.Rating
	notifications []*models.Notification
	conversations map[uuid.UUID]*models.Conversation
	messages      []*models.Message
	favorites     []*models.Favorite

	calls int

	// Ошибки, которые возвращают соответствующие методы
	NotificationErr error
	RecomputeErr    error
	PingErr         error
}

// New создает пустое хранилище
func New() *MemStore {
	return &MemStore{
		profiles:      make(map[uuid.UUID]*models.Profile),
		items:         make(map[uuid.UUID]*models.Item),
		exchanges:     make(map[uuid.UUID]*models.Exchange),
		respondedAt:   make(map[uuid.UUID]time.Time),
		conversations: make(map[uuid.UUID]*models.Conversation),
	}
}

func (m *MemStore) lock() {
	m.mu.Lock()
	m.calls++
}

// Calls возвращает число обращений к хранилищу
func (m *MemStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// AddProfile создает профиль пользователя
func (m *MemStore) AddProfile(username string) *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := &models.Profile{ID: uuid.New(), Username: username, CreatedAt: time.Now().UTC()}
	m.profiles[p.ID] = p
	cp := *p
	return &cp
}

// AddItem создает предмет владельца в статусе status
func (m *MemStore) AddItem(ownerID uuid.UUID, title string, status models.ItemStatus) *models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	item := &models.Item{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Images:    []string{},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.items[item.ID] = item
	cp := *item
	return &cp
}

// Item возвращает снимок предмета
func (m *MemStore) Item(id uuid.UUID) models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

// Profile возвращает снимок профиля
func (m *MemStore) Profile(id uuid.UUID) models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.profiles[id]
}

// Notifications возвращает все уведомления в порядке создания
func (m *MemStore) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, *n)
	}
	return out
}

// Ratings возвращает все оценки
func (m *MemStore) Ratings() []models.Rating {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Rating, 0, len(m.ratings))
	for _, r := range m.ratings {
		out = append(out, *r)
	}
	return out
}

// Ping проверяет доступность хранилища
func (m *MemStore) Ping(context.Context) error {
	m.lock()
	defer m.mu.Unlock()
	return m.PingErr
}

// --- items ---

func (m *MemStore) GetItem(_ context.Context, id uuid.UUID) (*models.Item, error) {
	m.lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *MemStore) RemoveItem(_ context.Context, id, ownerID uuid.UUID) error {
	m.lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok || item.OwnerID != ownerID || item.Status != models.ItemAvailable {
		return db.ErrStaleState
	}
	item.Status = models.ItemRemoved
	item.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemStore) IncrementItemViews(_ context.Context, id uuid.UUID) error {
	m.lock()
	defer m.mu.Unlock()

	if item, ok := m.items[id]; ok {
		item.ViewsCount++
	}
	return nil
}

// --- exchanges ---

func sameItem(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MemStore) CreateExchange(_ context.Context, e *models.Exchange) error {
	m.lock()
	defer m.mu.Unlock()

	for _, existing := range m.exchanges {
		if existing.Status.IsActive() &&
			existing.RequesterID == e.RequesterID &&
			existing.OwnerItemID == e.OwnerItemID &&
			sameItem(existing.RequesterItemID, e.RequesterItemID) {
			return db.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	e.ID = uuid.New()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	m.exchanges[e.ID] = &cp
	return nil
}

func (m *MemStore) GetExchange(_ context.Context, id uuid.UUID) (*models.Exchange, error) {
	m.lock()
	defer m.mu.Unlock()

	e, ok := m.exchanges[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemStore) ListExchanges(_ context.Context, f db.ExchangeFilter) ([]models.Exchange, error) {
	m.lock()
	defer m.mu.Unlock()

	out := []models.Exchange{}
	for _, e := range m.exchanges {
		switch f.Role {
		case db.RoleIncoming:
			if e.OwnerID != f.UserID {
				continue
			}
		case db.RoleOutgoing:
			if e.RequesterID != f.UserID {
				continue
			}
		default:
			if !e.IsParticipant(f.UserID) {
				continue
			}
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, *e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}

func (m *MemStore) TransitionExchange(_ context.Context, t db.Transition) (*models.Exchange, error) {
	m.lock()
	defer m.mu.Unlock()

	e, ok := m.exchanges[t.ExchangeID]
	if !ok || e.Status != t.From {
		return nil, db.ErrStaleState
	}

	if t.ItemStatus != "" && t.RequireItemStatus != "" {
		for _, id := range e.ItemIDs() {
			if item, ok := m.items[id]; !ok || item.Status != t.RequireItemStatus {
				return nil, db.ErrItemUnavailable
			}
		}
	}

	now := time.Now().UTC()
	if e.Status == models.ExchangePending {
		m.respondedAt[e.ID] = now
	}
	e.Status = t.To
	if t.Message != nil {
		e.Message = *t.Message
	}
	if t.CompletionNotes != nil {
		e.CompletionNotes = *t.CompletionNotes
	}
	e.UpdatedAt = now

	if t.ItemStatus != "" {
		for _, id := range e.ItemIDs() {
			if item, ok := m.items[id]; ok {
				item.Status = t.ItemStatus
				item.UpdatedAt = now
			}
		}
	}

	cp := *e
	return &cp, nil
}

// --- ratings ---

func (m *MemStore) HasRated(_ context.Context, exchangeID, raterID uuid.UUID) (bool, error) {
	m.lock()
	defer m.mu.Unlock()
	return m.hasRated(exchangeID, raterID), nil
}

func (m *MemStore) hasRated(exchangeID, raterID uuid.UUID) bool {
	for _, r := range m.ratings {
		if r.ExchangeID == exchangeID && r.RaterID == raterID {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateRating(_ context.Context, r *models.Rating) error {
	m.lock()
	defer m.mu.Unlock()

	if m.hasRated(r.ExchangeID, r.RaterID) {
		return db.ErrDuplicate
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	cp := *r
	m.ratings = append(m.ratings, &cp)
	return nil
}

func (m *MemStore) ListRatingsForUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	m.lock()
	defer m.mu.Unlock()

	out := []models.Rating{}
	for i := len(m.ratings) - 1; i >= 0; i-- {
		if m.ratings[i].RatedID == userID {
			out = append(out, *m.ratings[i])
		}
	}
	return page(out, limit, offset), nil
}

// RecomputeUserStats повторяет логику процедуры update_user_rating_stats
func (m *MemStore) RecomputeUserStats(_ context.Context, userID uuid.UUID) error {
	m.lock()
	defer m.mu.Unlock()

	if m.RecomputeErr != nil {
		return m.RecomputeErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil
	}

	var sum, count int
	for _, r := range m.ratings {
		if r.RatedID == userID {
			sum += r.Rating
			count++
		}
	}
	p.Rating = 0
	if count > 0 {
		p.Rating = math.Round(float64(sum)/float64(count)*100) / 100
	}

	p.TotalExchanges = 0
	var responseHours float64
	var responded int
	for _, e := range m.exchanges {
		if e.Status == models.ExchangeCompleted && e.IsParticipant(userID) {
			p.TotalExchanges++
		}
		if at, ok := m.respondedAt[e.ID]; ok && e.OwnerID == userID {
			responseHours += at.Sub(e.CreatedAt).Hours()
			responded++
		}
	}
	p.ResponseTimeHours = 0
	if responded > 0 {
		p.ResponseTimeHours = math.Round(responseHours/float64(responded)*100) / 100
	}
	return nil
}

// --- notifications ---

func (m *MemStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.lock()
	defer m.mu.Unlock()

	if m.NotificationErr != nil {
		return m.NotificationErr
	}
	n.ID = uuid.New()
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *MemStore) ListNotifications(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	m.lock()
	defer m.mu.Unlock()

	out := []models.Notification{}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	return page(out, limit, offset), nil
}

func (m *MemStore) MarkNotificationRead(_ context.Context, id, userID uuid.UUID) error {
	m.lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *MemStore) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	m.lock()
	defer m.mu.Unlock()

	var n int64
	for _, notification := range m.notifications {
		if notification.UserID == userID && !notification.IsRead {
			notification.IsRead = true
			n++
		}
	}
	return n, nil
}

// --- conversations ---

func (m *MemStore) GetOrCreateConversation(_ context.Context, userA, userB uuid.UUID, exchangeID *uuid.UUID) (uuid.UUID, error) {
	m.lock()
	defer m.mu.Unlock()

	first, second := models.OrderedPair(userA, userB)
	for _, c := range m.conversations {
		if c.Participant1ID == first && c.Participant2ID == second && sameItem(c.ExchangeID, exchangeID) {
			return c.ID, nil
		}
	}

	c := &models.Conversation{
		ID:             uuid.New(),
		Participant1ID: first,
		Participant2ID: second,
		ExchangeID:     exchangeID,
		CreatedAt:      time.Now().UTC(),
	}
	m.conversations[c.ID] = c
	return c.ID, nil
}

func (m *MemStore) CreateMessage(_ context.Context, msg *models.Message) error {
	m.lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[msg.ConversationID]
	if !ok {
		return db.ErrNotFound
	}

	msg.ID = uuid.New()
	msg.IsRead = false
	msg.CreatedAt = time.Now().UTC()
	cp := *msg
	m.messages = append(m.messages, &cp)

	id, at := msg.ID, msg.CreatedAt
	c.LastMessageID = &id
	c.LastMessageAt = &at
	return nil
}

func (m *MemStore) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	m.lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) ListConversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	m.lock()
	defer m.mu.Unlock()

	out := []models.Conversation{}
	for _, c := range m.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		cp := *c
		for _, msg := range m.messages {
			if msg.ConversationID != c.ID {
				continue
			}
			if c.LastMessageID != nil && msg.ID == *c.LastMessageID {
				cp.LastMessageText = msg.Content
			}
			if msg.ReceiverID == userID && !msg.IsRead {
				cp.UnreadCount++
			}
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out, nil
}

func (m *MemStore) ListMessages(_ context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error) {
	m.lock()
	defer m.mu.Unlock()

	cutoff := -1
	if before != nil {
		for i, msg := range m.messages {
			if msg.ID == *before && msg.ConversationID == conversationID {
				cutoff = i
			}
		}
		if cutoff < 0 {
			return nil, db.ErrNotFound
		}
	}

	out := []models.Message{}
	for i := len(m.messages) - 1; i >= 0; i-- {
		if cutoff >= 0 && i >= cutoff {
			continue
		}
		if m.messages[i].ConversationID == conversationID {
			out = append(out, *m.messages[i])
		}
	}
	return page(out, limit, 0), nil
}

func (m *MemStore) MarkMessagesRead(_ context.Context, conversationID, readerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	m.lock()
	defer m.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var n int64
	for _, msg := range m.messages {
		if wanted[msg.ID] && msg.ConversationID == conversationID && msg.ReceiverID == readerID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

// --- profiles ---

func (m *MemStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// --- favorites ---

func (m *MemStore) AddFavorite(_ context.Context, userID, itemID uuid.UUID) (*models.Favorite, error) {
	m.lock()
	defer m.mu.Unlock()

	for _, f := range m.favorites {
		if f.UserID == userID && f.ItemID == itemID {
			return nil, db.ErrDuplicate
		}
	}
	f := &models.Favorite{ID: uuid.New(), UserID: userID, ItemID: itemID, CreatedAt: time.Now().UTC()}
	m.favorites = append(m.favorites, f)
	cp := *f
	return &cp, nil
}

func (m *MemStore) RemoveFavorite(_ context.Context, userID, itemID uuid.UUID) error {
	m.lock()
	defer m.mu.Unlock()

	for i, f := range m.favorites {
		if f.UserID == userID && f.ItemID == itemID {
			m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *MemStore) IsFavorite(_ context.Context, userID, itemID uuid.UUID) (bool, error) {
	m.lock()
	defer m.mu.Unlock()

	for _, f := range m.favorites {
		if f.UserID == userID && f.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) ListFavorites(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Favorite, int, error) {
	m.lock()
	defer m.mu.Unlock()

	out := []models.Favorite{}
	for i := len(m.favorites) - 1; i >= 0; i-- {
		f := m.favorites[i]
		if f.UserID != userID {
			continue
		}
		cp := *f
		if item, ok := m.items[f.ItemID]; ok {
			itemCopy := *item
			cp.Item = &itemCopy
		}
		out = append(out, cp)
	}
	return page(out, limit, offset), len(out), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
