package domain

import (
	"time"

	"github.com/eventra-app/eventra-api/internal/rules"
)

// Event is an organizer-owned happening people can register for. Fee is in
// cents; zero means free. A nil Capacity means unlimited seats. Status is
// never stored: it is derived from Date and CanceledAt on every read.
type Event struct {
	ID                        uint       `json:"id"`
	Title                     string     `json:"title"`
	Description               string     `json:"description,omitempty"`
	Location                  string     `json:"location,omitempty"`
	Date                      time.Time  `json:"date"`
	Fee                       int        `json:"fee"`
	Capacity                  *int       `json:"capacity"`
	PaymentMethods            []string   `json:"payment_methods"`
	RegistrationDeadline      *time.Time `json:"registration_deadline,omitempty"`
	PaymentDeadline           *time.Time `json:"payment_deadline,omitempty"`
	AllowPaymentAfterDeadline bool       `json:"allow_payment_after_deadline"`
	GracePeriodDays           int        `json:"grace_period_days"`
	CanceledAt                *time.Time `json:"canceled_at,omitempty"`
	OrganizerID               uint       `json:"organizer_id"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// Facts projects the event into the rules engine's input shape.
func (e Event) Facts() rules.EventFacts {
	methods := make([]rules.PaymentMethod, 0, len(e.PaymentMethods))
	for _, m := range e.PaymentMethods {
		methods = append(methods, rules.PaymentMethod(m))
	}
	return rules.EventFacts{
		Title:                     e.Title,
		Description:               e.Description,
		Location:                  e.Location,
		Date:                      e.Date,
		Fee:                       e.Fee,
		Capacity:                  e.Capacity,
		PaymentMethods:            methods,
		RegistrationDeadline:      e.RegistrationDeadline,
		PaymentDeadline:           e.PaymentDeadline,
		AllowPaymentAfterDeadline: e.AllowPaymentAfterDeadline,
		GracePeriodDays:           e.GracePeriodDays,
		CanceledAt:                e.CanceledAt,
	}
}

// Status derives the lifecycle status at the given instant.
func (e Event) Status(now time.Time) rules.Status {
	return rules.DeriveStatus(e.Date, e.CanceledAt, now)
}

// OptionalTime marks a nullable timestamp field of a patch as changed.
// Set distinguishes "leave alone" from "set to null" (Time == nil).
type OptionalTime struct {
	Set  bool
	Time *time.Time
}

// OptionalCapacity marks the capacity field of a patch as changed.
// A nil Limit clears the capacity back to unlimited.
type OptionalCapacity struct {
	Set   bool
	Limit *int
}

// EventPatch is a partial update to an event. Nil (or unset) fields are
// left untouched; the engine's restriction rules only run for the fields a
// patch actually changes.
type EventPatch struct {
	Title                     *string
	Description               *string
	Location                  *string
	Date                      *time.Time
	Fee                       *int
	Capacity                  OptionalCapacity
	PaymentMethods            []string // nil means unchanged
	RegistrationDeadline      OptionalTime
	PaymentDeadline           OptionalTime
	AllowPaymentAfterDeadline *bool
	GracePeriodDays           *int
}

// Fields lists the engine field names this patch touches.
func (p EventPatch) Fields() []rules.Field {
	var fields []rules.Field
	if p.Title != nil {
		fields = append(fields, rules.FieldTitle)
	}
	if p.Description != nil {
		fields = append(fields, rules.FieldDescription)
	}
	if p.Location != nil {
		fields = append(fields, rules.FieldLocation)
	}
	if p.Date != nil {
		fields = append(fields, rules.FieldDate)
	}
	if p.Fee != nil {
		fields = append(fields, rules.FieldFee)
	}
	if p.Capacity.Set {
		fields = append(fields, rules.FieldCapacity)
	}
	if p.PaymentMethods != nil {
		fields = append(fields, rules.FieldPaymentMethods)
	}
	if p.RegistrationDeadline.Set {
		fields = append(fields, rules.FieldRegistrationDeadline)
	}
	if p.PaymentDeadline.Set {
		fields = append(fields, rules.FieldPaymentDeadline)
	}
	if p.AllowPaymentAfterDeadline != nil {
		fields = append(fields, rules.FieldAllowPaymentAfterDeadline)
	}
	if p.GracePeriodDays != nil {
		fields = append(fields, rules.FieldGracePeriodDays)
	}
	return fields
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool { return len(p.Fields()) == 0 }

// ApplyTo returns a copy of e with the patch merged in.
func (p EventPatch) ApplyTo(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Fee != nil {
		e.Fee = *p.Fee
	}
	if p.Capacity.Set {
		e.Capacity = p.Capacity.Limit
	}
	if p.PaymentMethods != nil {
		e.PaymentMethods = append([]string(nil), p.PaymentMethods...)
	}
	if p.RegistrationDeadline.Set {
		e.RegistrationDeadline = p.RegistrationDeadline.Time
	}
	if p.PaymentDeadline.Set {
		e.PaymentDeadline = p.PaymentDeadline.Time
	}
	if p.AllowPaymentAfterDeadline != nil {
		e.AllowPaymentAfterDeadline = *p.AllowPaymentAfterDeadline
	}
	if p.GracePeriodDays != nil {
		e.GracePeriodDays = *p.GracePeriodDays
	}
	return e
}
