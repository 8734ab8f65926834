package rules

import "time"

const (
	// ongoingWindow is how long after its start an event counts as ongoing.
	ongoingWindow = 24 * time.Hour

	// paymentCeilingDays caps how far past the event date any payment
	// deadline may reach, grace period included.
	paymentCeilingDays = 30

	// graceMaxDays is the largest grace period an organizer may configure.
	graceMaxDays = 30
)

func addDays(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}

// paymentCeiling is the absolute latest instant payments may be accepted
// for an event starting at date.
func paymentCeiling(date time.Time) time.Time {
	return addDays(date, paymentCeilingDays)
}

// clampTime constrains t to the inclusive interval [lo, hi].
// lo must not be after hi.
func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
