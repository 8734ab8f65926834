package rules

import "time"

// EffectivePaymentDeadline derives the instant until which payments are
// accepted. Returns nil when no payment deadline is configured.
//
// With the grace option off this is the configured deadline itself. With it
// on, the deadline stretches by the grace period but never past 30 days
// after the event date; the ceiling holds regardless of how large a grace
// period is configured.
//
// Inputs are assumed to have passed ValidateCorrelations already; this
// function does not re-check ranges.
func EffectivePaymentDeadline(facts EventFacts) *time.Time {
	if facts.PaymentDeadline == nil {
		return nil
	}
	if !facts.AllowPaymentAfterDeadline {
		d := *facts.PaymentDeadline
		return &d
	}
	d := minTime(addDays(*facts.PaymentDeadline, facts.GracePeriodDays), paymentCeiling(facts.Date))
	return &d
}

// PaymentWindowOpen reports whether a payment made at now would still be
// accepted. An event without a payment deadline accepts payments
// indefinitely; the deadline instant itself is still open.
func PaymentWindowOpen(facts EventFacts, now time.Time) bool {
	deadline := EffectivePaymentDeadline(facts)
	if deadline == nil {
		return true
	}
	return !now.After(*deadline)
}
