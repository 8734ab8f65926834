package domain

import "time"

// PaymentStatus tracks a payment through its lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentCanceled PaymentStatus = "canceled"
)

// Payment records one attendee's fee payment for an event. Stripe payments
// carry the checkout session ID so the webhook can find them; cash payments
// are confirmed by the organizer at the door.
type Payment struct {
	ID              uint          `json:"id"`
	AttendanceID    uint          `json:"attendance_id"`
	Method          string        `json:"method"` // "stripe" or "cash"
	Amount          int           `json:"amount"` // cents
	Status          PaymentStatus `json:"status"`
	StripeSessionID string        `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// MarkPaid transitions a pending payment to paid.
func (p *Payment) MarkPaid() {
	if p.Status == PaymentPending {
		p.Status = PaymentPaid
	}
}

// MarkCanceled transitions a pending payment to canceled.
func (p *Payment) MarkCanceled() {
	if p.Status == PaymentPending {
		p.Status = PaymentCanceled
	}
}
