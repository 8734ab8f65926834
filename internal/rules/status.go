package rules

import "time"

// Status is an event's lifecycle state. It is never stored; it is derived
// from the event date and the supplied clock on every read.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusPast     Status = "past"
	StatusCanceled Status = "canceled"
)

// DeriveStatus maps an event's date and cancellation mark to its lifecycle
// status at the given instant. Cancellation wins over everything else. An
// event stays ongoing for 24 hours after its start, then becomes past.
func DeriveStatus(date time.Time, canceledAt *time.Time, now time.Time) Status {
	switch {
	case canceledAt != nil:
		return StatusCanceled
	case now.Before(date):
		return StatusUpcoming
	case now.Before(date.Add(ongoingWindow)):
		return StatusOngoing
	default:
		return StatusPast
	}
}
