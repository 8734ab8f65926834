package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/eventra-app/eventra-api/internal/config"
	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/repository"
	"github.com/eventra-app/eventra-api/internal/rules"
)

var (
	ErrPaymentNotFound     = repository.ErrPaymentNotFound
	ErrNotRegistered       = repository.ErrAttendanceNotFound
	ErrPaymentWindowClosed = errors.New("payment window has closed")
	ErrMethodNotEnabled    = errors.New("payment method is not enabled for this event")
	ErrNothingToPay        = errors.New("event is free")
)

type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindAttendance(ctx context.Context, eventID, userID uint) (domain.Attendance, error)
	CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	FindPaymentBySessionID(ctx context.Context, sessionID string) (domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID uint, status domain.PaymentStatus) error
}

// Checkout is the handle returned to a client starting a gateway payment.
type Checkout struct {
	Payment domain.Payment `json:"payment"`
	URL     string         `json:"url"`
}

type PaymentService struct {
	repo  PaymentRepository
	conf  *config.StripeConfig
	sc    *client.API
	clock func() time.Time
}

type PaymentOption func(*PaymentService)

// WithPaymentClock overrides the service clock for tests.
func WithPaymentClock(clock func() time.Time) PaymentOption {
	return func(s *PaymentService) {
		s.clock = clock
	}
}

func NewPaymentService(repo PaymentRepository, conf *config.StripeConfig, opts ...PaymentOption) *PaymentService {
	sc := &client.API{}
	sc.Init(conf.SecretKey, nil)

	s := &PaymentService{
		repo:  repo,
		conf:  conf,
		sc:    sc,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartCheckout opens a Stripe checkout session for the attendee's fee.
// The payment window, including any grace period, must still be open.
func (s *PaymentService) StartCheckout(ctx context.Context, eventID, userID uint) (Checkout, error) {
	event, attendance, err := s.preparePayment(ctx, eventID, userID, string(rules.MethodStripe))
	if err != nil {
		return Checkout{}, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyEUR)),
					UnitAmount: stripe.Int64(int64(event.Fee)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Registration fee: %s", event.Title)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.conf.SuccessURL),
		CancelURL:  stripe.String(s.conf.CancelURL),
	}

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("stripe checkout session -> %w", err)
	}

	payment, err := s.repo.CreatePayment(ctx, domain.Payment{
		AttendanceID:    attendance.ID,
		Method:          string(rules.MethodStripe),
		Amount:          event.Fee,
		Status:          domain.PaymentPending,
		StripeSessionID: sess.ID,
	})
	if err != nil {
		return Checkout{}, fmt.Errorf("s.repo.CreatePayment -> %w", err)
	}

	return Checkout{Payment: payment, URL: sess.URL}, nil
}

// RecordCashPayment registers an intent to pay at the door. It stays
// pending until the organizer confirms it.
func (s *PaymentService) RecordCashPayment(ctx context.Context, eventID, userID uint) (domain.Payment, error) {
	event, attendance, err := s.preparePayment(ctx, eventID, userID, string(rules.MethodCash))
	if err != nil {
		return domain.Payment{}, err
	}

	payment, err := s.repo.CreatePayment(ctx, domain.Payment{
		AttendanceID: attendance.ID,
		Method:       string(rules.MethodCash),
		Amount:       event.Fee,
		Status:       domain.PaymentPending,
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.repo.CreatePayment -> %w", err)
	}

	return payment, nil
}

func (s *PaymentService) preparePayment(ctx context.Context, eventID, userID uint, method string) (domain.Event, domain.Attendance, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, domain.Attendance{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	now := s.clock()

	// Cancellation closes the window immediately. A past event still
	// settles while its window is open; grace periods exist for that.
	if event.Status(now) == rules.StatusCanceled {
		return domain.Event{}, domain.Attendance{}, ErrEventCanceled
	}

	if event.Fee == 0 {
		return domain.Event{}, domain.Attendance{}, ErrNothingToPay
	}

	facts := event.Facts()
	if !facts.HasMethod(rules.PaymentMethod(method)) {
		return domain.Event{}, domain.Attendance{}, ErrMethodNotEnabled
	}
	if !rules.PaymentWindowOpen(facts, now) {
		return domain.Event{}, domain.Attendance{}, ErrPaymentWindowClosed
	}

	attendance, err := s.repo.FindAttendance(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAttendanceNotFound) {
			return domain.Event{}, domain.Attendance{}, ErrNotRegistered
		}
		return domain.Event{}, domain.Attendance{}, fmt.Errorf("s.repo.FindAttendance -> %w", err)
	}

	return event, attendance, nil
}

// CompleteCheckout flips the payment matching a finished checkout session
// to paid. Called from the verified Stripe webhook.
func (s *PaymentService) CompleteCheckout(ctx context.Context, sessionID string) error {
	payment, err := s.repo.FindPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("s.repo.FindPaymentBySessionID -> %w", err)
	}

	if payment.Status == domain.PaymentPaid {
		// Stripe retries webhooks; a second delivery is a no-op.
		return nil
	}

	payment.MarkPaid()
	if err := s.repo.UpdatePaymentStatus(ctx, payment.ID, payment.Status); err != nil {
		return fmt.Errorf("s.repo.UpdatePaymentStatus -> %w", err)
	}

	return nil
}

// ExpireCheckout marks the payment of an expired checkout session canceled.
func (s *PaymentService) ExpireCheckout(ctx context.Context, sessionID string) error {
	payment, err := s.repo.FindPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("s.repo.FindPaymentBySessionID -> %w", err)
	}

	if payment.Status != domain.PaymentPending {
		return nil
	}

	payment.MarkCanceled()
	if err := s.repo.UpdatePaymentStatus(ctx, payment.ID, payment.Status); err != nil {
		return fmt.Errorf("s.repo.UpdatePaymentStatus -> %w", err)
	}

	return nil
}
