package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldCodes(errs []FieldError) map[Field][]string {
	out := make(map[Field][]string)
	for _, e := range errs {
		out[e.Field] = append(out[e.Field], e.Code)
	}
	return out
}

func TestValidateCorrelations(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	date := time.Date(2025, 12, 25, 15, 0, 0, 0, time.UTC)
	ptr := func(t time.Time) *time.Time { return &t }

	t.Run("consistent paid event passes", func(t *testing.T) {
		facts := EventFacts{
			Title:                "Winter Gala",
			Date:                 date,
			Fee:                  1000,
			PaymentMethods:       []PaymentMethod{MethodStripe},
			RegistrationDeadline: ptr(time.Date(2025, 12, 24, 20, 0, 0, 0, time.UTC)),
			PaymentDeadline:      ptr(time.Date(2025, 12, 24, 23, 45, 0, 0, time.UTC)),
		}
		assert.Empty(t, ValidateCorrelations(facts, now))
	})

	t.Run("date in the past", func(t *testing.T) {
		facts := EventFacts{Date: now.Add(-time.Hour)}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldDate], CodeDateNotFuture)
	})

	t.Run("date equal to now is rejected", func(t *testing.T) {
		facts := EventFacts{Date: now}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldDate], CodeDateNotFuture)
	})

	t.Run("registration deadline after the event date", func(t *testing.T) {
		facts := EventFacts{Date: date, RegistrationDeadline: ptr(date.Add(time.Minute))}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldRegistrationDeadline], CodeRegistrationAfterEvent)
	})

	t.Run("registration deadline exactly at the event date is valid", func(t *testing.T) {
		facts := EventFacts{Date: date, RegistrationDeadline: ptr(date)}
		assert.Empty(t, ValidateCorrelations(facts, now))
	})

	t.Run("paid gateway event requires a payment deadline", func(t *testing.T) {
		facts := EventFacts{
			Date:           date,
			Fee:            500,
			PaymentMethods: []PaymentMethod{MethodStripe},
		}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldPaymentDeadline], CodePaymentDeadlineRequired)
	})

	t.Run("cash-only paid event needs no payment deadline", func(t *testing.T) {
		facts := EventFacts{
			Date:           date,
			Fee:            500,
			PaymentMethods: []PaymentMethod{MethodCash},
		}
		assert.Empty(t, ValidateCorrelations(facts, now))
	})

	t.Run("payment deadline before registration deadline", func(t *testing.T) {
		facts := EventFacts{
			Date:                 date,
			RegistrationDeadline: ptr(date.Add(-24 * time.Hour)),
			PaymentDeadline:      ptr(date.Add(-48 * time.Hour)),
		}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldPaymentDeadline], CodePaymentBeforeRegistration)
	})

	t.Run("equal deadlines are valid", func(t *testing.T) {
		d := date.Add(-24 * time.Hour)
		facts := EventFacts{
			Date:                 date,
			RegistrationDeadline: &d,
			PaymentDeadline:      &d,
		}
		assert.Empty(t, ValidateCorrelations(facts, now))
	})

	t.Run("gateway payment deadline past the 30 day ceiling", func(t *testing.T) {
		facts := EventFacts{
			Date:            date,
			PaymentMethods:  []PaymentMethod{MethodStripe},
			PaymentDeadline: ptr(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)),
		}
		errs := ValidateCorrelations(facts, now)
		require.Len(t, errs, 1)
		assert.Equal(t, FieldPaymentDeadline, errs[0].Field)
		assert.Equal(t, CodePaymentPastCeiling, errs[0].Code)
	})

	t.Run("paid event with no payment methods", func(t *testing.T) {
		facts := EventFacts{Date: date, Fee: 100}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldPaymentMethods], CodePaymentMethodsRequired)
	})

	t.Run("grace period out of range", func(t *testing.T) {
		facts := EventFacts{
			Date:                      date,
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           31,
		}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldGracePeriodDays], CodeGraceOutOfRange)
	})

	t.Run("grace period pushing past the ceiling", func(t *testing.T) {
		facts := EventFacts{
			Date:                      date,
			PaymentDeadline:           ptr(date.Add(10 * 24 * time.Hour)),
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           25,
		}
		codes := fieldCodes(ValidateCorrelations(facts, now))
		assert.Contains(t, codes[FieldGracePeriodDays], CodeGracePastCeiling)
	})

	t.Run("grace exactly at the ceiling is valid", func(t *testing.T) {
		facts := EventFacts{
			Date:                      date,
			PaymentDeadline:           ptr(date),
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           30,
		}
		assert.Empty(t, ValidateCorrelations(facts, now))
	})

	t.Run("all applicable errors are collected together", func(t *testing.T) {
		facts := EventFacts{
			Date:                      now.Add(-time.Hour),
			Fee:                       100,
			RegistrationDeadline:      ptr(now.Add(time.Hour)),
			AllowPaymentAfterDeadline: true,
			GracePeriodDays:           -1,
		}
		errs := ValidateCorrelations(facts, now)
		codes := fieldCodes(errs)
		assert.Contains(t, codes[FieldDate], CodeDateNotFuture)
		assert.Contains(t, codes[FieldRegistrationDeadline], CodeRegistrationAfterEvent)
		assert.Contains(t, codes[FieldPaymentMethods], CodePaymentMethodsRequired)
		assert.Contains(t, codes[FieldGracePeriodDays], CodeGraceOutOfRange)
		assert.Len(t, errs, 4)
	})
}
