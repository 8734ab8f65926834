package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/repository"
	"github.com/eventra-app/eventra-api/internal/repository/filter"
	"github.com/eventra-app/eventra-api/internal/rules"
)

type fakeEventRepo struct {
	events    map[uint]domain.Event
	summaries map[uint]domain.AttendanceSummary
	nextID    uint
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:    make(map[uint]domain.Event),
		summaries: make(map[uint]domain.AttendanceSummary),
		nextID:    1,
	}
}

func (f *fakeEventRepo) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	event.ID = f.nextID
	f.nextID++
	f.events[event.ID] = event
	return event, nil
}

func (f *fakeEventRepo) FindByID(_ context.Context, id uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeEventRepo) List(_ context.Context, _ []filter.Condition) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) Update(_ context.Context, event domain.Event) (domain.Event, error) {
	if _, ok := f.events[event.ID]; !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	f.events[event.ID] = event
	return event, nil
}

func (f *fakeEventRepo) Cancel(_ context.Context, id uint, at time.Time) error {
	event, ok := f.events[id]
	if !ok || event.CanceledAt != nil {
		return repository.ErrEventNotFound
	}
	event.CanceledAt = &at
	f.events[id] = event
	return nil
}

func (f *fakeEventRepo) AddAttendance(_ context.Context, eventID, userID uint) (domain.Attendance, error) {
	event, ok := f.events[eventID]
	if !ok {
		return domain.Attendance{}, repository.ErrEventNotFound
	}
	summary := f.summaries[eventID]
	if event.Capacity != nil && summary.AttendeeCount >= *event.Capacity {
		return domain.Attendance{}, repository.ErrEventFull
	}
	summary.AttendeeCount++
	f.summaries[eventID] = summary
	return domain.Attendance{ID: 1, EventID: eventID, UserID: userID}, nil
}

func (f *fakeEventRepo) AttendanceSummary(_ context.Context, eventID uint) (domain.AttendanceSummary, error) {
	return f.summaries[eventID], nil
}

var testNow = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo *fakeEventRepo) *EventService {
	return NewEventService(repo, WithClock(func() time.Time { return testNow }))
}

func intPtr(v int) *int { return &v }

func seedEvent(repo *fakeEventRepo) domain.Event {
	deadline := testNow.Add(20 * 24 * time.Hour)
	event, _ := repo.Create(context.Background(), domain.Event{
		Title:                "Winter Gala",
		Location:             "Town Hall",
		Date:                 testNow.Add(24 * 24 * time.Hour),
		Fee:                  1000,
		Capacity:             intPtr(50),
		PaymentMethods:       []string{"stripe"},
		RegistrationDeadline: &deadline,
		PaymentDeadline:      &deadline,
		OrganizerID:          7,
	})
	return event
}

func TestCreateEvent(t *testing.T) {
	t.Run("valid event is persisted", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)

		created, err := svc.CreateEvent(context.Background(), domain.Event{
			Title:       "Meetup",
			Date:        testNow.Add(48 * time.Hour),
			OrganizerID: 7,
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
	})

	t.Run("temporally broken event returns every field error", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)

		_, err := svc.CreateEvent(context.Background(), domain.Event{
			Title:       "Yesterday's Meetup",
			Date:        testNow.Add(-time.Hour),
			Fee:         500,
			OrganizerID: 7,
		})
		var corrErr *CorrelationError
		require.ErrorAs(t, err, &corrErr)
		assert.Len(t, corrErr.Fields, 2) // past date, no payment methods
		assert.Empty(t, repo.events)
	})
}

func TestUpdateEvent(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("editing the title of a busy event is fine", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)
		repo.summaries[event.ID] = domain.AttendanceSummary{AttendeeCount: 30, HasGatewayPaid: true}

		updated, advisories, err := svc.UpdateEvent(context.Background(), event.ID, 7, domain.EventPatch{
			Title: strPtr("Winter Gala 2025"),
		})
		require.NoError(t, err)
		assert.Empty(t, advisories)
		assert.Equal(t, "Winter Gala 2025", updated.Title)
	})

	t.Run("fee change after a gateway payment is blocked", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)
		repo.summaries[event.ID] = domain.AttendanceSummary{AttendeeCount: 1, HasGatewayPaid: true}

		newFee := 2000
		_, _, err := svc.UpdateEvent(context.Background(), event.ID, 7, domain.EventPatch{
			Fee: &newFee,
		})
		var restErr *RestrictionError
		require.ErrorAs(t, err, &restErr)
		require.Len(t, restErr.Violations, 1)
		assert.Equal(t, rules.RuleFeeLockedAfterGatewayPayment, restErr.Violations[0].RuleID)

		unchanged, _ := repo.FindByID(context.Background(), event.ID)
		assert.Equal(t, 1000, unchanged.Fee)
	})

	t.Run("capacity below headcount is blocked, above is not", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)
		repo.summaries[event.ID] = domain.AttendanceSummary{AttendeeCount: 10}

		_, _, err := svc.UpdateEvent(context.Background(), event.ID, 7, domain.EventPatch{
			Capacity: domain.OptionalCapacity{Set: true, Limit: intPtr(9)},
		})
		var restErr *RestrictionError
		require.ErrorAs(t, err, &restErr)

		updated, _, err := svc.UpdateEvent(context.Background(), event.ID, 7, domain.EventPatch{
			Capacity: domain.OptionalCapacity{Set: true, Limit: intPtr(10)},
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Capacity)
		assert.Equal(t, 10, *updated.Capacity)
	})

	t.Run("merged record must still pass correlation checks", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)

		badDeadline := event.Date.Add(40 * 24 * time.Hour)
		_, _, err := svc.UpdateEvent(context.Background(), event.ID, 7, domain.EventPatch{
			PaymentDeadline: domain.OptionalTime{Set: true, Time: &badDeadline},
		})
		var corrErr *CorrelationError
		require.ErrorAs(t, err, &corrErr)
		require.Len(t, corrErr.Fields, 1)
		assert.Equal(t, rules.FieldPaymentDeadline, corrErr.Fields[0].Field)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)

		_, _, err := svc.UpdateEvent(context.Background(), event.ID, 7, domain.EventPatch{})
		assert.ErrorIs(t, err, ErrEmptyPatch)
	})

	t.Run("only the owning organizer may edit", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)

		_, _, err := svc.UpdateEvent(context.Background(), event.ID, 99, domain.EventPatch{
			Title: strPtr("Hijacked"),
		})
		assert.ErrorIs(t, err, ErrNotOrganizer)
	})
}

func TestPreviewUpdate(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo)
	event := seedEvent(repo)
	repo.summaries[event.ID] = domain.AttendanceSummary{AttendeeCount: 10, HasGatewayPaid: true}

	newFee := 50
	result, err := svc.PreviewUpdate(context.Background(), event.ID, 7, domain.EventPatch{
		Fee:      &newFee,
		Capacity: domain.OptionalCapacity{Set: true, Limit: intPtr(2)},
	})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Len(t, result.Violations, 2)
	assert.Empty(t, result.FieldErrors)

	// Nothing was persisted.
	unchanged, _ := repo.FindByID(context.Background(), event.ID)
	assert.Equal(t, 1000, unchanged.Fee)
}

func TestRegisterAttendee(t *testing.T) {
	t.Run("registers for an upcoming event", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)

		attendance, err := svc.RegisterAttendee(context.Background(), event.ID, 42)
		require.NoError(t, err)
		assert.Equal(t, uint(42), attendance.UserID)
	})

	t.Run("canceled event rejects registration", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)
		require.NoError(t, svc.CancelEvent(context.Background(), event.ID, 7))

		_, err := svc.RegisterAttendee(context.Background(), event.ID, 42)
		assert.ErrorIs(t, err, ErrEventCanceled)
	})

	t.Run("past registration deadline rejects registration", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)
		passed := testNow.Add(-time.Hour)
		event.RegistrationDeadline = &passed
		repo.events[event.ID] = event

		_, err := svc.RegisterAttendee(context.Background(), event.ID, 42)
		assert.ErrorIs(t, err, ErrRegistrationClosed)
	})

	t.Run("full event surfaces the repository error", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestService(repo)
		event := seedEvent(repo)
		repo.summaries[event.ID] = domain.AttendanceSummary{AttendeeCount: 50}

		_, err := svc.RegisterAttendee(context.Background(), event.ID, 42)
		assert.True(t, errors.Is(err, ErrEventFull))
	})
}

func TestCancelEvent(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo)
	event := seedEvent(repo)

	require.NoError(t, svc.CancelEvent(context.Background(), event.ID, 7))

	canceled, err := svc.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.StatusCanceled, svc.EventStatus(canceled))

	t.Run("second cancel reports not found", func(t *testing.T) {
		err := svc.CancelEvent(context.Background(), event.ID, 7)
		assert.True(t, errors.Is(err, ErrEventNotFound))
	})
}

func TestSuggestDeadlines(t *testing.T) {
	svc := newTestService(newFakeEventRepo())
	date := testNow.Add(20 * 24 * time.Hour)

	got := svc.SuggestDeadlines(date)
	assert.True(t, got.Registration.Equal(date.Add(-3*24*time.Hour)))
	assert.True(t, got.Payment.Equal(date.Add(-24*time.Hour)))
}
