package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateBody struct {
	ExchangeID string `json:"exchange_id" validate:"required,uuid"`
	Rating     int    `json:"rating" validate:"gte=1,lte=5"`
	Comment    string `json:"comment" validate:"max=500"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(rateBody{ExchangeID: "4f8a2b3c-1d2e-4f5a-8b9c-0d1e2f3a4b5c", Rating: 5})
	assert.NoError(t, err)
}

func TestValidate_FieldMessages(t *testing.T) {
	err := Validate(rateBody{Rating: 6, Comment: strings.Repeat("я", 501)})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := verr.Fields()
	assert.Equal(t, "is required", fields["exchange_id"])
	assert.Equal(t, "must be less than or equal to 5", fields["rating"])
	assert.Equal(t, "must be at most 500 characters", fields["comment"])
	assert.Contains(t, err.Error(), "rating must be less than or equal to 5")
}

func TestValidate_MaxCountsRunes(t *testing.T) {
	err := Validate(rateBody{
		ExchangeID: "4f8a2b3c-1d2e-4f5a-8b9c-0d1e2f3a4b5c",
		Rating:     3,
		Comment:    strings.Repeat("я", 500),
	})
	assert.NoError(t, err)
}
