package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuggestDeadlines(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	t.Run("far-out date gets the standard offsets", func(t *testing.T) {
		date := time.Date(2025, 12, 25, 15, 0, 0, 0, time.UTC)
		got := SuggestDeadlines(date, now)
		assert.True(t, got.Registration.Equal(date.Add(-3*24*time.Hour)))
		assert.True(t, got.Payment.Equal(date.Add(-24*time.Hour)))
	})

	t.Run("near date clamps to one hour from now", func(t *testing.T) {
		date := now.Add(26 * time.Hour)
		got := SuggestDeadlines(date, now)
		assert.True(t, got.Registration.Equal(now.Add(time.Hour)))
		assert.True(t, got.Payment.Equal(now.Add(time.Hour)))
	})

	t.Run("imminent date collapses to the date itself", func(t *testing.T) {
		date := now.Add(30 * time.Minute)
		got := SuggestDeadlines(date, now)
		assert.True(t, got.Registration.Equal(date))
		assert.True(t, got.Payment.Equal(date))
	})

	t.Run("suggestions always satisfy the correlation rules", func(t *testing.T) {
		for _, lead := range []time.Duration{2 * time.Hour, 26 * time.Hour, 10 * 24 * time.Hour} {
			date := now.Add(lead)
			got := SuggestDeadlines(date, now)
			reg, pay := got.Registration, got.Payment
			facts := EventFacts{
				Date:                 date,
				Fee:                  500,
				PaymentMethods:       []PaymentMethod{MethodStripe},
				RegistrationDeadline: &reg,
				PaymentDeadline:      &pay,
			}
			assert.Empty(t, ValidateCorrelations(facts, now), "lead %v", lead)
		}
	})
}
