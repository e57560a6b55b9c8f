package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExchangeStatus_CanTransitionTo(t *testing.T) {
	statuses := []ExchangeStatus{
		ExchangePending, ExchangeAccepted, ExchangeRejected, ExchangeCompleted, ExchangeCancelled,
	}
	allowed := map[[2]ExchangeStatus]bool{
		{ExchangePending, ExchangeAccepted}:   true,
		{ExchangePending, ExchangeRejected}:   true,
		{ExchangeAccepted, ExchangeCompleted}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]ExchangeStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestExchangeStatus_IsActive(t *testing.T) {
	assert.True(t, ExchangePending.IsActive())
	assert.True(t, ExchangeAccepted.IsActive())
	assert.False(t, ExchangeRejected.IsActive())
	assert.False(t, ExchangeCompleted.IsActive())
	assert.False(t, ExchangeCancelled.IsActive())
}

func TestExchange_Participants(t *testing.T) {
	requester, owner, stranger := uuid.New(), uuid.New(), uuid.New()
	e := &Exchange{RequesterID: requester, OwnerID: owner}

	assert.True(t, e.IsParticipant(requester))
	assert.True(t, e.IsParticipant(owner))
	assert.False(t, e.IsParticipant(stranger))

	assert.Equal(t, owner, e.Counterparty(requester))
	assert.Equal(t, requester, e.Counterparty(owner))
}

func TestExchange_ItemIDs(t *testing.T) {
	ownerItem, requesterItem := uuid.New(), uuid.New()

	e := &Exchange{OwnerItemID: ownerItem}
	assert.Equal(t, []uuid.UUID{ownerItem}, e.ItemIDs())

	e.RequesterItemID = &requesterItem
	assert.Equal(t, []uuid.UUID{ownerItem, requesterItem}, e.ItemIDs())
}

func TestOrderedPair(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	p1, p2 := OrderedPair(b, a)
	assert.Equal(t, a, p1)
	assert.Equal(t, b, p2)

	p1, p2 = OrderedPair(a, b)
	assert.Equal(t, a, p1)
	assert.Equal(t, b, p2)
}
