package domain

import "time"

// Attendance links a user to an event they registered for.
type Attendance struct {
	ID        uint      `json:"id"`
	EventID   uint      `json:"event_id"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceSummary aggregates the facts the edit-restriction rules need:
// how many attendees an event has and whether any of them completed an
// online payment.
type AttendanceSummary struct {
	AttendeeCount  int
	HasGatewayPaid bool
}

// HasAttendees reports whether anyone has registered.
func (s AttendanceSummary) HasAttendees() bool { return s.AttendeeCount > 0 }
