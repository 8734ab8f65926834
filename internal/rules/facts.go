// Package rules implements the temporal-constraint and edit-restriction
// engine for events. It is pure and stateless: every entry point receives
// its complete input, including the current time, and returns a freshly
// computed result. Nothing here touches the database or the network.
package rules

import "time"

// PaymentMethod identifies how attendees can pay the event fee.
type PaymentMethod string

const (
	// MethodStripe is the online gateway method. Payments made with it are
	// processed by the external payment processor.
	MethodStripe PaymentMethod = "stripe"
	// MethodCash is settled in person at the event.
	MethodCash PaymentMethod = "cash"
)

// Field names events' mutable attributes. Violations and field errors carry
// these so the caller can map them back to form inputs.
type Field string

const (
	FieldTitle                     Field = "title"
	FieldDescription               Field = "description"
	FieldLocation                  Field = "location"
	FieldDate                      Field = "date"
	FieldFee                       Field = "fee"
	FieldCapacity                  Field = "capacity"
	FieldPaymentMethods            Field = "payment_methods"
	FieldRegistrationDeadline      Field = "registration_deadline"
	FieldPaymentDeadline           Field = "payment_deadline"
	FieldAllowPaymentAfterDeadline Field = "allow_payment_after_deadline"
	FieldGracePeriodDays           Field = "grace_period_days"
)

// EventFacts is the engine's view of an event record. The engine never owns
// or persists these values; callers copy them in from storage or from a
// submitted form.
type EventFacts struct {
	Title                     string
	Description               string
	Location                  string
	Date                      time.Time
	Fee                       int
	Capacity                  *int // nil means unlimited
	PaymentMethods            []PaymentMethod
	RegistrationDeadline      *time.Time
	PaymentDeadline           *time.Time
	AllowPaymentAfterDeadline bool
	GracePeriodDays           int
	CanceledAt                *time.Time
}

// HasMethod reports whether m is among the enabled payment methods.
func (f EventFacts) HasMethod(m PaymentMethod) bool {
	for _, pm := range f.PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// HasGatewayMethod reports whether any enabled method requires the online
// payment processor.
func (f EventFacts) HasGatewayMethod() bool {
	return f.HasMethod(MethodStripe)
}

// AttendanceInfo carries the attendance and payment facts the restriction
// rules depend on. The caller derives it from storage aggregates.
type AttendanceInfo struct {
	HasAttendees   bool
	AttendeeCount  int
	HasGatewayPaid bool // at least one gateway payment with status "paid"
}
