package rules

import "time"

// SuggestedDeadlines are default deadline values offered when an organizer
// picks an event date. They are a convenience only: the caller decides
// whether to apply them (never overriding a value the organizer already
// set), and applied values still go through ValidateCorrelations.
type SuggestedDeadlines struct {
	Registration time.Time `json:"registration_deadline"`
	Payment      time.Time `json:"payment_deadline"`
}

// SuggestDeadlines proposes a registration deadline three days before the
// event and a payment deadline one day before it, both clamped to fall
// between one hour from now and the event date itself. For dates in the
// very near future both suggestions collapse toward the event date.
func SuggestDeadlines(eventDate, now time.Time) SuggestedDeadlines {
	earliest := now.Add(time.Hour)
	if earliest.After(eventDate) {
		earliest = eventDate
	}
	return SuggestedDeadlines{
		Registration: clampTime(addDays(eventDate, -3), earliest, eventDate),
		Payment:      clampTime(addDays(eventDate, -1), earliest, eventDate),
	}
}
