package response

import (
	"net/http"

	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/rules"
	"github.com/eventra-app/eventra-api/internal/service"
)

// Event decorates the stored record with its derived lifecycle status and
// the effective payment deadline, both computed at response time.
type Event struct {
	domain.Event
	Status                   rules.Status `json:"status"`
	EffectivePaymentDeadline interface{}  `json:"effective_payment_deadline"`
}

// NewEvent builds the response view of an event.
func NewEvent(event domain.Event, status rules.Status) Event {
	var effective interface{}
	if d := rules.EffectivePaymentDeadline(event.Facts()); d != nil {
		effective = *d
	}
	return Event{
		Event:                    event,
		Status:                   status,
		EffectivePaymentDeadline: effective,
	}
}

// NewEventList maps a slice of events to their response views.
func NewEventList(events []domain.Event, status func(domain.Event) rules.Status) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, NewEvent(e, status(e)))
	}
	return out
}

// UpdatedEvent is the success payload of an edit, carrying any advisory
// (non-blocking) violations for display.
type UpdatedEvent struct {
	Event      Event             `json:"event"`
	Advisories []rules.Violation `json:"advisories,omitempty"`
}

// ErrUnprocessableFields reports the temporal correlation failures of a
// submitted payload, one entry per broken field.
func ErrUnprocessableFields(fields []rules.FieldError) *Err {
	return &Err{
		StatusCode: http.StatusUnprocessableEntity,
		ErrorMsg:   "event fields failed validation",
		Details:    map[string]interface{}{"fields": fields},
	}
}

// ErrEditRestricted reports the blocking restriction violations of a
// proposed edit.
func ErrEditRestricted(violations []rules.Violation) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		ErrorMsg:   "event edit is restricted by its attendance or payment state",
		Details:    map[string]interface{}{"violations": violations},
	}
}

// Evaluation is the dry-run payload of the validate endpoint.
type Evaluation = service.EvaluationResult
