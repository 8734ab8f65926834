package rules

import "time"

// RestrictionContext is an immutable snapshot of the facts restriction rules
// evaluate against: the event's current field values, its attendance and
// payment state, and its derived status. Build one with
// NewRestrictionContext; the evaluator rejects zero-value contexts.
type RestrictionContext struct {
	Title                     string
	Location                  string
	Date                      time.Time
	Fee                       int
	Capacity                  *int
	PaymentMethods            map[PaymentMethod]bool
	RegistrationDeadline      *time.Time
	PaymentDeadline           *time.Time
	AllowPaymentAfterDeadline bool
	GracePeriodDays           int

	HasAttendees   bool
	AttendeeCount  int
	HasGatewayPaid bool
	Status         Status

	built bool
}

// NewRestrictionContext assembles a restriction context from the stored
// event facts, the attendance aggregates, and the status derived for the
// evaluation instant. It copies everything it keeps, so later mutation of
// the inputs cannot leak into an evaluation.
func NewRestrictionContext(facts EventFacts, attendance AttendanceInfo, status Status) RestrictionContext {
	return RestrictionContext{
		Title:                     facts.Title,
		Location:                  facts.Location,
		Date:                      facts.Date,
		Fee:                       facts.Fee,
		Capacity:                  copyIntPtr(facts.Capacity),
		PaymentMethods:            methodSet(facts.PaymentMethods),
		RegistrationDeadline:      copyTimePtr(facts.RegistrationDeadline),
		PaymentDeadline:           copyTimePtr(facts.PaymentDeadline),
		AllowPaymentAfterDeadline: facts.AllowPaymentAfterDeadline,
		GracePeriodDays:           facts.GracePeriodDays,
		HasAttendees:              attendance.HasAttendees,
		AttendeeCount:             attendance.AttendeeCount,
		HasGatewayPaid:            attendance.HasGatewayPaid,
		Status:                    status,
		built:                     true,
	}
}

// FormSnapshot is the normalized view of the values a save would produce,
// i.e. the current record with the proposed patch merged in. It mirrors
// EventFacts but carries payment methods as a set.
type FormSnapshot struct {
	Title                     string
	Location                  string
	Date                      time.Time
	Fee                       int
	Capacity                  *int
	PaymentMethods            map[PaymentMethod]bool
	RegistrationDeadline      *time.Time
	PaymentDeadline           *time.Time
	AllowPaymentAfterDeadline bool
	GracePeriodDays           int
}

// NewFormSnapshot normalizes candidate facts for restriction evaluation.
func NewFormSnapshot(candidate EventFacts) FormSnapshot {
	return FormSnapshot{
		Title:                     candidate.Title,
		Location:                  candidate.Location,
		Date:                      candidate.Date,
		Fee:                       candidate.Fee,
		Capacity:                  copyIntPtr(candidate.Capacity),
		PaymentMethods:            methodSet(candidate.PaymentMethods),
		RegistrationDeadline:      copyTimePtr(candidate.RegistrationDeadline),
		PaymentDeadline:           copyTimePtr(candidate.PaymentDeadline),
		AllowPaymentAfterDeadline: candidate.AllowPaymentAfterDeadline,
		GracePeriodDays:           candidate.GracePeriodDays,
	}
}

// Patch is the set of fields a proposed edit actually changes. Rules only
// fire for fields present in the patch; untouched fields are never
// evaluated, even when the context would otherwise lock them.
type Patch map[Field]bool

// NewPatch builds a patch from the listed fields.
func NewPatch(fields ...Field) Patch {
	p := make(Patch, len(fields))
	for _, f := range fields {
		p[f] = true
	}
	return p
}

// Has reports whether the patch touches f.
func (p Patch) Has(f Field) bool { return p[f] }

func methodSet(methods []PaymentMethod) map[PaymentMethod]bool {
	set := make(map[PaymentMethod]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTimePtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
