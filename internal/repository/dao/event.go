package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/repository/filter"
	"github.com/eventra-app/eventra-api/internal/rules"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventFull          = errors.New("event is at capacity")
	ErrAlreadyRegistered  = errors.New("user is already registered for this event")
	ErrAttendanceNotFound = errors.New("attendance not found")
	ErrPaymentNotFound    = errors.New("payment not found")
)

type Event struct {
	ID uint `gorm:"primaryKey"`

	Title       string `gorm:"not null"`
	Description string
	Location    string

	Date time.Time `gorm:"not null;index"`
	Fee  int       `gorm:"not null;default:0"`

	Capacity       *int
	PaymentMethods []string `gorm:"serializer:json"`

	RegistrationDeadline      *time.Time
	PaymentDeadline           *time.Time
	AllowPaymentAfterDeadline bool `gorm:"not null;default:false"`
	GracePeriodDays           int  `gorm:"not null;default:0"`

	CanceledAt  *time.Time
	OrganizerID uint `gorm:"not null;index"`
	Organizer   User `gorm:"foreignKey:OrganizerID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Attendance struct {
	ID uint `gorm:"primaryKey"`

	EventID uint  `gorm:"not null;uniqueIndex:idx_attendances_event_user"`
	Event   Event `gorm:"foreignKey:EventID"`
	UserID  uint  `gorm:"not null;uniqueIndex:idx_attendances_event_user"`
	User    User  `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"not null"`
}

type Payment struct {
	ID uint `gorm:"primaryKey"`

	AttendanceID uint       `gorm:"not null;index"`
	Attendance   Attendance `gorm:"foreignKey:AttendanceID"`

	Method          string `gorm:"not null"`
	Amount          int    `gorm:"not null"`
	Status          string `gorm:"not null;default:pending"`
	StripeSessionID string `gorm:"index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// EventColumns maps the filterable external field names of an event to
// their database columns.
var EventColumns = map[string]string{
	"date":         "date",
	"fee":          "fee",
	"location":     "location",
	"organizer_id": "organizer_id",
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) List(ctx context.Context, conds []filter.Condition) ([]Event, error) {
	var events []Event

	tx := filter.ApplyAll(d.db.WithContext(ctx).Model(&Event{}), conds)
	if result := tx.Order("date ASC").Find(&events); result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).
		Model(&Event{ID: event.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) Cancel(ctx context.Context, id uint, at time.Time) error {
	result := d.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND canceled_at IS NULL", id).
		Update("canceled_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// InsertAttendance registers a user while holding a lock on the event row,
// so concurrent registrations cannot oversell a capacity-limited event.
func (d *EventDAO) InsertAttendance(ctx context.Context, eventID, userID uint) (Attendance, error) {
	var attendance Attendance

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&Attendance{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		if event.Capacity != nil {
			var count int64
			if err := tx.Model(&Attendance{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(*event.Capacity) {
				return ErrEventFull
			}
		}

		attendance = Attendance{EventID: eventID, UserID: userID}
		return tx.Create(&attendance).Error
	})
	if err != nil {
		return Attendance{}, err
	}

	return attendance, nil
}

func (d *EventDAO) FindAttendance(ctx context.Context, eventID, userID uint) (Attendance, error) {
	var attendance Attendance

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&attendance)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Attendance{}, ErrAttendanceNotFound
		}

		return Attendance{}, result.Error
	}

	return attendance, nil
}

// AttendanceSummary aggregates the facts the edit restrictions depend on:
// the attendee count and whether any attendance carries a paid gateway
// payment.
func (d *EventDAO) AttendanceSummary(ctx context.Context, eventID uint) (int, bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return 0, false, err
	}

	var paid int64
	if err := d.db.WithContext(ctx).
		Model(&Payment{}).
		Joins("JOIN attendances ON attendances.id = payments.attendance_id").
		Where("attendances.event_id = ? AND payments.method = ? AND payments.status = ?",
			eventID, string(rules.MethodStripe), string(domain.PaymentPaid)).
		Count(&paid).Error; err != nil {
		return 0, false, err
	}

	return int(count), paid > 0, nil
}

func (d *EventDAO) InsertPayment(ctx context.Context, payment Payment) (Payment, error) {
	result := d.db.WithContext(ctx).Create(&payment)
	if result.Error != nil {
		return Payment{}, result.Error
	}

	return payment, nil
}

func (d *EventDAO) FindPaymentBySessionID(ctx context.Context, sessionID string) (Payment, error) {
	var payment Payment

	result := d.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&payment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}

		return Payment{}, result.Error
	}

	return payment, nil
}

func (d *EventDAO) UpdatePaymentStatus(ctx context.Context, paymentID uint, status string) error {
	result := d.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ?", paymentID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}
