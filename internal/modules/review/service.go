package review

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/profile"
	domain "studiomarket/internal/domain/review"
	"studiomarket/internal/notification"
	"studiomarket/internal/pkg/logger"
)

type Service struct {
	db          *gorm.DB
	reviews     *domain.Repository
	bookings    *booking.Repository
	profiles    *profile.Repository
	notifs      notification.Notifier
	log         *logrus.Logger
	blindWindow time.Duration
	now         func() time.Time
}

func NewService(
	db *gorm.DB,
	reviews *domain.Repository,
	bookings *booking.Repository,
	profiles *profile.Repository,
	notifs notification.Notifier,
	log *logrus.Logger,
	blindWindow time.Duration,
) *Service {
	if notifs == nil {
		notifs = notification.Nop{}
	}
	if blindWindow <= 0 {
		blindWindow = 48 * time.Hour
	}
	return &Service{
		db:          db,
		reviews:     reviews,
		bookings:    bookings,
		profiles:    profiles,
		notifs:      notifs,
		log:         logger.OrDiscard(log),
		blindWindow: blindWindow,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the wall clock. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type SubmitInput struct {
	BookingID  int64
	ReviewerID int64
	Reviewee   account.Ref
	Rating     int
	Comment    string
	Tags       []string
}

func (s *Service) SubmitReview(ctx context.Context, in SubmitInput) (*domain.Review, error) {
	if in.BookingID <= 0 || in.ReviewerID <= 0 || !in.Reviewee.Valid() || in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRequest
	}

	b, err := s.bookings.GetByID(ctx, in.BookingID)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	studio, err := s.profiles.GetStudio(ctx, b.StudioID)
	if err != nil {
		return nil, err
	}

	flag, ok := reviewerFlag(b, studio, in.ReviewerID)
	if !ok {
		return nil, ErrForbidden
	}
	if !isCounterparty(b, studio, in.ReviewerID, in.Reviewee) {
		return nil, ErrInvalidReviewee
	}

	now := s.now()
	if !sessionFinished(b, now) {
		return nil, ErrSessionNotFinished
	}

	rv := &domain.Review{
		BookingID:  b.ID,
		ReviewerID: in.ReviewerID,
		Reviewee:   in.Reviewee,
		Rating:     in.Rating,
		Comment:    in.Comment,
		Tags:       in.Tags,
		CreatedAt:  now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reviews.WithTx(tx).Create(ctx, rv); err != nil {
			return err
		}
		return s.bookings.WithTx(tx).MarkReviewed(ctx, b.ID, flag)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"reviewer_id": in.ReviewerID,
		"reviewee":    in.Reviewee.String(),
	}).Info("review submitted")

	recipient := in.Reviewee.ID
	if in.Reviewee.Kind == account.KindStudio {
		recipient = studio.OwnerID
	}
	s.notifs.Notify(ctx, notification.NewEvent(notification.TypeReviewPosted, recipient,
		"New review", "You received a review; it becomes public once both sides have reviewed or after the blind period").
		ForBooking(b.ID))
	return rv, nil
}

type PublicReviews struct {
	Reviews       []domain.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	Count         int             `json:"count"`
}

// GetPublicReviews returns only the reviews that pass the double-blind gate
// right now. Hidden reviews do not count toward the average.
func (s *Service) GetPublicReviews(ctx context.Context, reviewee account.Ref) (*PublicReviews, error) {
	if !reviewee.Valid() {
		return nil, ErrInvalidRequest
	}
	items, err := s.reviews.ListForReviewee(ctx, reviewee)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &PublicReviews{Reviews: []domain.Review{}}
	sum := 0
	for _, item := range items {
		if !item.VisibleAt(now, s.blindWindow) {
			continue
		}
		out.Reviews = append(out.Reviews, item.Review)
		sum += item.Rating
	}
	out.Count = len(out.Reviews)
	if out.Count > 0 {
		out.AverageRating = math.Round(float64(sum)/float64(out.Count)*100) / 100
	}
	return out, nil
}

func sessionFinished(b *booking.Booking, now time.Time) bool {
	switch b.Status {
	case booking.StatusCompleted, booking.StatusCancelledCharged:
		return true
	case booking.StatusApproved:
		return b.SessionEnded(now)
	}
	return false
}

// reviewerFlag names the booking flag a reviewer sets. A rental's client is
// also its instructor and reviews as the customer.
func reviewerFlag(b *booking.Booking, studio *profile.Studio, reviewerID int64) (string, bool) {
	switch {
	case reviewerID == b.ClientID:
		return "customer_reviewed", true
	case reviewerID == b.InstructorID:
		return "instructor_reviewed", true
	case reviewerID == studio.OwnerID:
		return "studio_reviewed", true
	}
	return "", false
}

func isCounterparty(b *booking.Booking, studio *profile.Studio, reviewerID int64, reviewee account.Ref) bool {
	switch reviewee.Kind {
	case account.KindStudio:
		return reviewee.ID == b.StudioID && reviewerID != studio.OwnerID
	case account.KindUser:
		if reviewee.ID == reviewerID {
			return false
		}
		return reviewee.ID == b.ClientID || reviewee.ID == b.InstructorID
	}
	return false
}
