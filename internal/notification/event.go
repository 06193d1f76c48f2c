package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBookingCreated   Type = "booking.created"
	TypePaymentSubmitted Type = "booking.payment_submitted"
	TypeBookingApproved  Type = "booking.approved"
	TypeBookingRejected  Type = "booking.rejected"
	TypeBookingExpired   Type = "booking.expired"
	TypeBookingCancelled Type = "booking.cancelled"
	TypeBookingCompleted Type = "booking.completed"
	TypeFundsUnlocked    Type = "wallet.funds_unlocked"
	TypePayoutRequested  Type = "payout.requested"
	TypePayoutProcessed  Type = "payout.processed"
	TypeReviewPosted     Type = "review.posted"
	TypeStudioSuspended  Type = "studio.suspended"
)

// Event is addressed to a single user. Studio events go to the studio owner.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      Type           `json:"type"`
	UserID    int64          `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	BookingID *int64         `json:"booking_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewEvent(t Type, userID int64, title, body string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

func (e Event) ForBooking(id int64) Event {
	e.BookingID = &id
	return e
}

func (e Event) With(key string, value any) Event {
	data := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}
