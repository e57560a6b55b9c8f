package exchange

import "strings"

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// CreateRequest тело create-exchange-request
type CreateRequest struct {
	OwnerItemID     string `json:"owner_item_id" validate:"required,uuid"`
	RequesterItemID string `json:"requester_item_id" validate:"omitempty,uuid"`
	Message         string `json:"message" validate:"max=1000"`
}

// RespondRequest тело respond-to-exchange
type RespondRequest struct {
	ExchangeID string  `json:"exchange_id" validate:"required,uuid"`
	Action     string  `json:"action" validate:"required,oneof=accept reject"`
	Message    *string `json:"message" validate:"omitempty,max=1000"`
}

// CompleteRequest тело complete-exchange
type CompleteRequest struct {
	ExchangeID      string  `json:"exchange_id" validate:"required,uuid"`
	CompletionNotes *string `json:"completion_notes" validate:"omitempty,max=500"`
}

func (r *CreateRequest) normalize() {
	r.OwnerItemID = strings.TrimSpace(r.OwnerItemID)
	r.RequesterItemID = strings.TrimSpace(r.RequesterItemID)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *RespondRequest) normalize() {
	r.ExchangeID = strings.TrimSpace(r.ExchangeID)
	r.Message = trimOptional(r.Message)
}

func (r *CompleteRequest) normalize() {
	r.ExchangeID = strings.TrimSpace(r.ExchangeID)
	r.CompletionNotes = trimOptional(r.CompletionNotes)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
