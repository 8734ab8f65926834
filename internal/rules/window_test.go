package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePaymentDeadline(t *testing.T) {
	date := time.Date(2025, 12, 25, 15, 0, 0, 0, time.UTC)
	deadline := date.Add(-24 * time.Hour)

	t.Run("no deadline configured", func(t *testing.T) {
		facts := EventFacts{Date: date}
		assert.Nil(t, EffectivePaymentDeadline(facts))
	})

	t.Run("grace disabled returns the deadline unchanged", func(t *testing.T) {
		facts := EventFacts{Date: date, PaymentDeadline: &deadline, GracePeriodDays: 10}
		got := EffectivePaymentDeadline(facts)
		require.NotNil(t, got)
		assert.True(t, got.Equal(deadline))
	})

	t.Run("grace extends the deadline", func(t *testing.T) {
		facts := EventFacts{
			Date:                      date,
			PaymentDeadline:           &deadline,
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           5,
		}
		got := EffectivePaymentDeadline(facts)
		require.NotNil(t, got)
		assert.True(t, got.Equal(deadline.Add(5*24*time.Hour)))
	})

	t.Run("ceiling holds even with maximal grace on a deadline at the date", func(t *testing.T) {
		atDate := date
		facts := EventFacts{
			Date:                      date,
			PaymentDeadline:           &atDate,
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           30,
		}
		got := EffectivePaymentDeadline(facts)
		require.NotNil(t, got)
		assert.True(t, got.Equal(date.Add(30*24*time.Hour)))
	})

	t.Run("grace never pushes past 30 days after the date", func(t *testing.T) {
		for _, daysBefore := range []int{0, 1, 5, 20} {
			for grace := 0; grace <= 30; grace++ {
				d := date.Add(-time.Duration(daysBefore) * 24 * time.Hour)
				facts := EventFacts{
					Date:                      date,
					PaymentDeadline:           &d,
					AllowPaymentAfterDeadline: true,
					GracePeriodDays:           grace,
				}
				got := EffectivePaymentDeadline(facts)
				require.NotNil(t, got)
				assert.False(t, got.After(date.Add(30*24*time.Hour)),
					"deadline %d days before date with %d grace days", daysBefore, grace)
			}
		}
	})
}

func TestPaymentWindowOpen(t *testing.T) {
	date := time.Date(2025, 12, 25, 15, 0, 0, 0, time.UTC)
	deadline := date.Add(-24 * time.Hour)
	facts := EventFacts{Date: date, PaymentDeadline: &deadline}

	assert.True(t, PaymentWindowOpen(facts, deadline.Add(-time.Hour)))
	assert.True(t, PaymentWindowOpen(facts, deadline), "deadline instant itself is open")
	assert.False(t, PaymentWindowOpen(facts, deadline.Add(time.Second)))

	t.Run("no deadline means always open", func(t *testing.T) {
		open := EventFacts{Date: date}
		assert.True(t, PaymentWindowOpen(open, date.Add(365*24*time.Hour)))
	})

	t.Run("grace keeps the window open past the nominal deadline", func(t *testing.T) {
		graced := EventFacts{
			Date:                      date,
			PaymentDeadline:           &deadline,
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           2,
		}
		assert.True(t, PaymentWindowOpen(graced, deadline.Add(47*time.Hour)))
		assert.False(t, PaymentWindowOpen(graced, deadline.Add(49*time.Hour)))
	})
}
