package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/repository"
	"github.com/eventra-app/eventra-api/internal/repository/filter"
	"github.com/eventra-app/eventra-api/internal/rules"
)

var (
	ErrEventNotFound      = repository.ErrEventNotFound
	ErrEventFull          = repository.ErrEventFull
	ErrAlreadyRegistered  = repository.ErrAlreadyRegistered
	ErrEventCanceled      = errors.New("event is canceled")
	ErrEventNotUpcoming   = errors.New("event is no longer open for registration")
	ErrRegistrationClosed = errors.New("registration deadline has passed")
	ErrEmptyPatch         = errors.New("no fields to update")
	ErrNotOrganizer       = errors.New("user does not own this event")
)

// CorrelationError carries the per-field temporal constraint failures of a
// create or update payload. It always blocks persistence.
type CorrelationError struct {
	Fields []rules.FieldError
}

func (e *CorrelationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, string(f.Field))
	}
	return fmt.Sprintf("invalid temporal fields: %s", strings.Join(names, ", "))
}

// RestrictionError carries blocking edit-restriction violations.
type RestrictionError struct {
	Violations []rules.Violation
}

func (e *RestrictionError) Error() string {
	ids := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		ids = append(ids, v.RuleID)
	}
	return fmt.Sprintf("edit restricted: %s", strings.Join(ids, ", "))
}

// EvaluationResult is the outcome of a speculative (dry-run) edit check.
type EvaluationResult struct {
	FieldErrors []rules.FieldError `json:"field_errors"`
	Violations  []rules.Violation  `json:"violations"`
	Allowed     bool               `json:"allowed"`
}

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	List(ctx context.Context, conds []filter.Condition) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	Cancel(ctx context.Context, id uint, at time.Time) error
	AddAttendance(ctx context.Context, eventID, userID uint) (domain.Attendance, error)
	AttendanceSummary(ctx context.Context, eventID uint) (domain.AttendanceSummary, error)
}

type EventService struct {
	repo  EventRepository
	clock func() time.Time
}

type EventOption func(*EventService)

// WithClock overrides the service clock; tests use it to pin "now".
func WithClock(clock func() time.Time) EventOption {
	return func(s *EventService) {
		s.clock = clock
	}
}

func NewEventService(repo EventRepository, opts ...EventOption) *EventService {
	s := &EventService{
		repo:  repo,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent validates the full payload's temporal correlations and
// persists it. A *CorrelationError reports every broken constraint at once.
func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if fieldErrs := rules.ValidateCorrelations(event.Facts(), s.clock()); len(fieldErrs) > 0 {
		return domain.Event{}, &CorrelationError{Fields: fieldErrs}
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, conds []filter.Condition) ([]domain.Event, error) {
	events, err := s.repo.List(ctx, conds)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return events, nil
}

// UpdateEvent applies a partial edit to an existing event. The merged record
// must pass the temporal correlation checks, and the patched fields must
// clear the edit-restriction rules given the event's attendance and payment
// state. Blocking violations abort with *RestrictionError; advisory ones are
// returned alongside the updated event for display.
func (s *EventService) UpdateEvent(ctx context.Context, eventID uint, organizerID uint, patch domain.EventPatch) (domain.Event, []rules.Violation, error) {
	if patch.IsEmpty() {
		return domain.Event{}, nil, ErrEmptyPatch
	}

	current, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if current.OrganizerID != organizerID {
		return domain.Event{}, nil, ErrNotOrganizer
	}

	now := s.clock()
	merged := patch.ApplyTo(current)

	if fieldErrs := rules.ValidateCorrelations(merged.Facts(), now); len(fieldErrs) > 0 {
		return domain.Event{}, nil, &CorrelationError{Fields: fieldErrs}
	}

	violations, err := s.evaluateRestrictions(ctx, current, merged, patch, now)
	if err != nil {
		return domain.Event{}, nil, err
	}
	if rules.HasBlocking(violations) {
		return domain.Event{}, nil, &RestrictionError{Violations: violations}
	}

	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		return domain.Event{}, nil, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, violations, nil
}

// PreviewUpdate runs the same checks as UpdateEvent without persisting
// anything, so a form can show live feedback while the organizer types.
func (s *EventService) PreviewUpdate(ctx context.Context, eventID uint, organizerID uint, patch domain.EventPatch) (EvaluationResult, error) {
	current, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if current.OrganizerID != organizerID {
		return EvaluationResult{}, ErrNotOrganizer
	}

	now := s.clock()
	merged := patch.ApplyTo(current)

	fieldErrs := rules.ValidateCorrelations(merged.Facts(), now)

	violations, err := s.evaluateRestrictions(ctx, current, merged, patch, now)
	if err != nil {
		return EvaluationResult{}, err
	}

	return EvaluationResult{
		FieldErrors: fieldErrs,
		Violations:  violations,
		Allowed:     len(fieldErrs) == 0 && !rules.HasBlocking(violations),
	}, nil
}

func (s *EventService) evaluateRestrictions(ctx context.Context, current, merged domain.Event, patch domain.EventPatch, now time.Time) ([]rules.Violation, error) {
	summary, err := s.repo.AttendanceSummary(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.AttendanceSummary -> %w", err)
	}

	restrictionCtx := rules.NewRestrictionContext(
		current.Facts(),
		rules.AttendanceInfo{
			HasAttendees:   summary.HasAttendees(),
			AttendeeCount:  summary.AttendeeCount,
			HasGatewayPaid: summary.HasGatewayPaid,
		},
		current.Status(now),
	)

	form := rules.NewFormSnapshot(merged.Facts())
	return rules.EvaluateViolations(restrictionCtx, form, rules.NewPatch(patch.Fields()...)), nil
}

// CancelEvent marks the event canceled. Cancellation is terminal; canceling
// an already-canceled event reports not found because no cancelable row
// remains.
func (s *EventService) CancelEvent(ctx context.Context, eventID uint, organizerID uint) error {
	current, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if current.OrganizerID != organizerID {
		return ErrNotOrganizer
	}

	if err := s.repo.Cancel(ctx, eventID, s.clock()); err != nil {
		return fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	return nil
}

// RegisterAttendee books a spot for the user. The event must still be
// upcoming and its registration deadline must not have passed; capacity is
// enforced atomically by the repository.
func (s *EventService) RegisterAttendee(ctx context.Context, eventID, userID uint) (domain.Attendance, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	now := s.clock()
	switch event.Status(now) {
	case rules.StatusCanceled:
		return domain.Attendance{}, ErrEventCanceled
	case rules.StatusUpcoming:
		// open for registration
	default:
		return domain.Attendance{}, ErrEventNotUpcoming
	}

	if event.RegistrationDeadline != nil && now.After(*event.RegistrationDeadline) {
		return domain.Attendance{}, ErrRegistrationClosed
	}

	attendance, err := s.repo.AddAttendance(ctx, eventID, userID)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("s.repo.AddAttendance -> %w", err)
	}

	return attendance, nil
}

// SuggestDeadlines proposes default registration and payment deadlines for
// a prospective event date. The values are conveniences: they never
// overwrite anything the organizer already set, and they go through the
// same validation as manual input when applied.
func (s *EventService) SuggestDeadlines(eventDate time.Time) rules.SuggestedDeadlines {
	return rules.SuggestDeadlines(eventDate, s.clock())
}

// EventStatus derives the lifecycle status with the service clock.
func (s *EventService) EventStatus(event domain.Event) rules.Status {
	return event.Status(s.clock())
}
