package review

import (
	"errors"
	"time"

	"studiomarket/internal/domain/account"
)

var (
	ErrAlreadyReviewed = errors.New("already reviewed")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

// Review is one party's rating of another party of the same booking.
type Review struct {
	ID         int64       `json:"id"`
	BookingID  int64       `json:"booking_id"`
	ReviewerID int64       `json:"reviewer_id"`
	Reviewee   account.Ref `json:"reviewee"`
	Rating     int         `json:"rating"`
	Comment    string      `json:"comment,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Listed is a stored review plus whether another reviewer has already
// reviewed within the same booking.
type Listed struct {
	Review
	Corroborated bool `json:"-"`
}

// VisibleAt applies the double-blind rule: a review is public once the blind
// window has passed or as soon as the other side of the booking has reviewed.
func (l Listed) VisibleAt(now time.Time, blindWindow time.Duration) bool {
	return l.Corroborated || now.Sub(l.CreatedAt) > blindWindow
}
