package rules

import (
	"fmt"
	"time"
)

// FieldError describes one broken temporal correlation, tagged with the
// field a form should highlight. Code is stable and machine-readable;
// Message is a default English rendering presentation layers may replace.
type FieldError struct {
	Field   Field  `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Correlation error codes.
const (
	CodeDateNotFuture             = "date_not_in_future"
	CodeRegistrationAfterEvent    = "registration_deadline_after_event"
	CodePaymentDeadlineRequired   = "payment_deadline_required"
	CodePaymentBeforeRegistration = "payment_deadline_before_registration"
	CodePaymentPastCeiling        = "payment_deadline_past_ceiling"
	CodePaymentMethodsRequired    = "payment_methods_required"
	CodeGraceOutOfRange           = "grace_period_out_of_range"
	CodeGracePastCeiling          = "grace_period_past_ceiling"
)

// ValidateCorrelations checks the cross-field temporal constraints of a full
// create or update payload. Every violated constraint yields its own entry;
// checks are independent and never short-circuit, so a form can surface all
// broken correlations at once. Boundary equality is always permitted: a
// registration deadline exactly on the event date is valid.
//
// An empty result means the payload is temporally consistent and may be
// persisted (subject to the edit restrictions in EvaluateViolations).
func ValidateCorrelations(facts EventFacts, now time.Time) []FieldError {
	var errs []FieldError

	if !facts.Date.After(now) {
		errs = append(errs, FieldError{
			Field:   FieldDate,
			Code:    CodeDateNotFuture,
			Message: "event date must be in the future",
		})
	}

	if facts.RegistrationDeadline != nil && facts.RegistrationDeadline.After(facts.Date) {
		errs = append(errs, FieldError{
			Field:   FieldRegistrationDeadline,
			Code:    CodeRegistrationAfterEvent,
			Message: "registration deadline must not be after the event date",
		})
	}

	if facts.Fee > 0 && facts.HasGatewayMethod() && facts.PaymentDeadline == nil {
		errs = append(errs, FieldError{
			Field:   FieldPaymentDeadline,
			Code:    CodePaymentDeadlineRequired,
			Message: "a payment deadline is required for paid events with online payment",
		})
	}

	if facts.PaymentDeadline != nil && facts.RegistrationDeadline != nil &&
		facts.PaymentDeadline.Before(*facts.RegistrationDeadline) {
		errs = append(errs, FieldError{
			Field:   FieldPaymentDeadline,
			Code:    CodePaymentBeforeRegistration,
			Message: "payment deadline must not be before the registration deadline",
		})
	}

	if facts.HasGatewayMethod() && facts.PaymentDeadline != nil &&
		facts.PaymentDeadline.After(paymentCeiling(facts.Date)) {
		errs = append(errs, FieldError{
			Field:   FieldPaymentDeadline,
			Code:    CodePaymentPastCeiling,
			Message: fmt.Sprintf("payment deadline must be within %d days of the event date", paymentCeilingDays),
		})
	}

	if facts.Fee > 0 && len(facts.PaymentMethods) == 0 {
		errs = append(errs, FieldError{
			Field:   FieldPaymentMethods,
			Code:    CodePaymentMethodsRequired,
			Message: "paid events need at least one payment method",
		})
	}

	if facts.AllowPaymentAfterDeadline {
		if facts.GracePeriodDays < 0 || facts.GracePeriodDays > graceMaxDays {
			errs = append(errs, FieldError{
				Field:   FieldGracePeriodDays,
				Code:    CodeGraceOutOfRange,
				Message: fmt.Sprintf("grace period must be between 0 and %d days", graceMaxDays),
			})
		}
		if facts.PaymentDeadline != nil &&
			addDays(*facts.PaymentDeadline, facts.GracePeriodDays).After(paymentCeiling(facts.Date)) {
			errs = append(errs, FieldError{
				Field:   FieldGracePeriodDays,
				Code:    CodeGracePastCeiling,
				Message: fmt.Sprintf("payment deadline plus grace period must stay within %d days of the event date", paymentCeilingDays),
			})
		}
	}

	return errs
}
