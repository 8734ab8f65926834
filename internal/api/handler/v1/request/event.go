package request

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/eventra-app/eventra-api/internal/domain"
)

// Optional distinguishes a JSON key that is absent (leave the field alone)
// from one explicitly set to null (clear the field). Patch endpoints need
// the three-way distinction for nullable columns.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

type CreateEventRequest struct {
	Title                     string     `json:"title"`
	Description               string     `json:"description"`
	Location                  string     `json:"location"`
	Date                      time.Time  `json:"date"`
	Fee                       int        `json:"fee"`
	Capacity                  *int       `json:"capacity"`
	PaymentMethods            []string   `json:"payment_methods"`
	RegistrationDeadline      *time.Time `json:"registration_deadline"`
	PaymentDeadline           *time.Time `json:"payment_deadline"`
	AllowPaymentAfterDeadline bool       `json:"allow_payment_after_deadline"`
	GracePeriodDays           int        `json:"grace_period_days"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Location, validation.Length(0, 200)),
		validation.Field(&req.Date, validation.Required),
		validation.Field(&req.Fee, validation.Min(0)),
		validation.Field(&req.Capacity, validation.Min(1)),
		validation.Field(&req.PaymentMethods, validation.Each(validation.In("stripe", "cash"))),
		validation.Field(&req.GracePeriodDays, validation.Min(0), validation.Max(30)),
	)
}

func (req *CreateEventRequest) ToDomain(organizerID uint) domain.Event {
	return domain.Event{
		Title:                     req.Title,
		Description:               req.Description,
		Location:                  req.Location,
		Date:                      req.Date,
		Fee:                       req.Fee,
		Capacity:                  req.Capacity,
		PaymentMethods:            req.PaymentMethods,
		RegistrationDeadline:      req.RegistrationDeadline,
		PaymentDeadline:           req.PaymentDeadline,
		AllowPaymentAfterDeadline: req.AllowPaymentAfterDeadline,
		GracePeriodDays:           req.GracePeriodDays,
		OrganizerID:               organizerID,
	}
}

// UpdateEventRequest is a partial edit. Absent keys leave fields untouched;
// explicit nulls clear the nullable ones. It doubles as the dry-run payload
// of the validate endpoint.
type UpdateEventRequest struct {
	Title                     *string             `json:"title"`
	Description               *string             `json:"description"`
	Location                  *string             `json:"location"`
	Date                      *time.Time          `json:"date"`
	Fee                       *int                `json:"fee"`
	Capacity                  Optional[int]       `json:"capacity"`
	PaymentMethods            *[]string           `json:"payment_methods"`
	RegistrationDeadline      Optional[time.Time] `json:"registration_deadline"`
	PaymentDeadline           Optional[time.Time] `json:"payment_deadline"`
	AllowPaymentAfterDeadline *bool               `json:"allow_payment_after_deadline"`
	GracePeriodDays           *int                `json:"grace_period_days"`
}

func (req *UpdateEventRequest) Validate() error {
	if err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Location, validation.Length(0, 200)),
		validation.Field(&req.Fee, validation.Min(0)),
		validation.Field(&req.GracePeriodDays, validation.Min(0), validation.Max(30)),
	); err != nil {
		return err
	}

	if req.Capacity.Set && req.Capacity.Valid {
		if err := validation.Validate(req.Capacity.Value, validation.Min(1)); err != nil {
			return validation.Errors{"capacity": err}
		}
	}
	if req.PaymentMethods != nil {
		if err := validation.Validate(*req.PaymentMethods, validation.Each(validation.In("stripe", "cash"))); err != nil {
			return validation.Errors{"payment_methods": err}
		}
	}

	return nil
}

func (req *UpdateEventRequest) ToPatch() domain.EventPatch {
	patch := domain.EventPatch{
		Title:                     req.Title,
		Description:               req.Description,
		Location:                  req.Location,
		Date:                      req.Date,
		Fee:                       req.Fee,
		AllowPaymentAfterDeadline: req.AllowPaymentAfterDeadline,
		GracePeriodDays:           req.GracePeriodDays,
	}

	if req.Capacity.Set {
		patch.Capacity = domain.OptionalCapacity{Set: true}
		if req.Capacity.Valid {
			v := req.Capacity.Value
			patch.Capacity.Limit = &v
		}
	}
	if req.PaymentMethods != nil {
		patch.PaymentMethods = *req.PaymentMethods
	}
	if req.RegistrationDeadline.Set {
		patch.RegistrationDeadline = domain.OptionalTime{Set: true}
		if req.RegistrationDeadline.Valid {
			v := req.RegistrationDeadline.Value
			patch.RegistrationDeadline.Time = &v
		}
	}
	if req.PaymentDeadline.Set {
		patch.PaymentDeadline = domain.OptionalTime{Set: true}
		if req.PaymentDeadline.Valid {
			v := req.PaymentDeadline.Value
			patch.PaymentDeadline.Time = &v
		}
	}

	return patch
}
