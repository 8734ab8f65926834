package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/repository/dao"
	"github.com/eventra-app/eventra-api/internal/repository/filter"
)

var (
	ErrEventNotFound      = dao.ErrEventNotFound
	ErrEventFull          = dao.ErrEventFull
	ErrAlreadyRegistered  = dao.ErrAlreadyRegistered
	ErrAttendanceNotFound = dao.ErrAttendanceNotFound
	ErrPaymentNotFound    = dao.ErrPaymentNotFound
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	List(ctx context.Context, conds []filter.Condition) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	Cancel(ctx context.Context, id uint, at time.Time) error
	InsertAttendance(ctx context.Context, eventID, userID uint) (dao.Attendance, error)
	FindAttendance(ctx context.Context, eventID, userID uint) (dao.Attendance, error)
	AttendanceSummary(ctx context.Context, eventID uint) (int, bool, error)
	InsertPayment(ctx context.Context, payment dao.Payment) (dao.Payment, error)
	FindPaymentBySessionID(ctx context.Context, sessionID string) (dao.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID uint, status string) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

// NewEventFilter builds a list condition over the filterable event columns.
func NewEventFilter(field string, op filter.Operator, value interface{}) (filter.Condition, error) {
	return filter.New(field, op, value, dao.EventColumns)
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *EventRepository) List(ctx context.Context, conds []filter.Condition) ([]domain.Event, error) {
	found, err := r.dao.List(ctx, conds)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, r.daoToDomain(e))
	}

	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) Cancel(ctx context.Context, id uint, at time.Time) error {
	if err := r.dao.Cancel(ctx, id, at); err != nil {
		return fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return nil
}

func (r *EventRepository) AddAttendance(ctx context.Context, eventID, userID uint) (domain.Attendance, error) {
	created, err := r.dao.InsertAttendance(ctx, eventID, userID)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("r.dao.InsertAttendance -> %w", err)
	}

	return domain.Attendance{
		ID:        created.ID,
		EventID:   created.EventID,
		UserID:    created.UserID,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (r *EventRepository) FindAttendance(ctx context.Context, eventID, userID uint) (domain.Attendance, error) {
	found, err := r.dao.FindAttendance(ctx, eventID, userID)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("r.dao.FindAttendance -> %w", err)
	}

	return domain.Attendance{
		ID:        found.ID,
		EventID:   found.EventID,
		UserID:    found.UserID,
		CreatedAt: found.CreatedAt,
	}, nil
}

func (r *EventRepository) AttendanceSummary(ctx context.Context, eventID uint) (domain.AttendanceSummary, error) {
	count, hasPaid, err := r.dao.AttendanceSummary(ctx, eventID)
	if err != nil {
		return domain.AttendanceSummary{}, fmt.Errorf("r.dao.AttendanceSummary -> %w", err)
	}

	return domain.AttendanceSummary{
		AttendeeCount:  count,
		HasGatewayPaid: hasPaid,
	}, nil
}

func (r *EventRepository) CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	created, err := r.dao.InsertPayment(ctx, dao.Payment{
		AttendanceID:    payment.AttendanceID,
		Method:          payment.Method,
		Amount:          payment.Amount,
		Status:          string(payment.Status),
		StripeSessionID: payment.StripeSessionID,
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.InsertPayment -> %w", err)
	}

	return r.paymentToDomain(created), nil
}

func (r *EventRepository) FindPaymentBySessionID(ctx context.Context, sessionID string) (domain.Payment, error) {
	found, err := r.dao.FindPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.FindPaymentBySessionID -> %w", err)
	}

	return r.paymentToDomain(found), nil
}

func (r *EventRepository) UpdatePaymentStatus(ctx context.Context, paymentID uint, status domain.PaymentStatus) error {
	if err := r.dao.UpdatePaymentStatus(ctx, paymentID, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdatePaymentStatus -> %w", err)
	}

	return nil
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:                        e.ID,
		Title:                     e.Title,
		Description:               e.Description,
		Location:                  e.Location,
		Date:                      e.Date,
		Fee:                       e.Fee,
		Capacity:                  e.Capacity,
		PaymentMethods:            e.PaymentMethods,
		RegistrationDeadline:      e.RegistrationDeadline,
		PaymentDeadline:           e.PaymentDeadline,
		AllowPaymentAfterDeadline: e.AllowPaymentAfterDeadline,
		GracePeriodDays:           e.GracePeriodDays,
		CanceledAt:                e.CanceledAt,
		OrganizerID:               e.OrganizerID,
		CreatedAt:                 e.CreatedAt,
		UpdatedAt:                 e.UpdatedAt,
	}
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:                        e.ID,
		Title:                     e.Title,
		Description:               e.Description,
		Location:                  e.Location,
		Date:                      e.Date,
		Fee:                       e.Fee,
		Capacity:                  e.Capacity,
		PaymentMethods:            e.PaymentMethods,
		RegistrationDeadline:      e.RegistrationDeadline,
		PaymentDeadline:           e.PaymentDeadline,
		AllowPaymentAfterDeadline: e.AllowPaymentAfterDeadline,
		GracePeriodDays:           e.GracePeriodDays,
		CanceledAt:                e.CanceledAt,
		OrganizerID:               e.OrganizerID,
		CreatedAt:                 e.CreatedAt,
		UpdatedAt:                 e.UpdatedAt,
	}
}

func (r *EventRepository) paymentToDomain(p dao.Payment) domain.Payment {
	return domain.Payment{
		ID:              p.ID,
		AttendanceID:    p.AttendanceID,
		Method:          p.Method,
		Amount:          p.Amount,
		Status:          domain.PaymentStatus(p.Status),
		StripeSessionID: p.StripeSessionID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
