package review

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/profile"
	domain "studiomarket/internal/domain/review"
)

type reviewFixture struct {
	svc      *Service
	bookings *booking.Repository
	now      time.Time

	clientID, instructorID, ownerID, studioID int64
}

func setupReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:review_svc_test_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&booking.Model{}, &profile.Profile{}, &profile.Studio{}, &domain.Model{}))

	profiles := profile.NewRepository(db)
	ctx := context.Background()
	client := &profile.Profile{Name: "Dana", Role: profile.RoleCustomer}
	instructor := &profile.Profile{Name: "Ira", Role: profile.RoleInstructor}
	owner := &profile.Profile{Name: "Oleg", Role: profile.RoleStudioOwner}
	for _, p := range []*profile.Profile{client, instructor, owner} {
		require.NoError(t, profiles.CreateProfile(ctx, p))
	}
	studio := &profile.Studio{OwnerID: owner.ID, Name: "Core Loft"}
	require.NoError(t, profiles.CreateStudio(ctx, studio))

	f := &reviewFixture{
		bookings:     booking.NewRepository(db),
		now:          time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		clientID:     client.ID,
		instructorID: instructor.ID,
		ownerID:      owner.ID,
		studioID:     studio.ID,
	}
	f.svc = NewService(db, domain.NewRepository(db), f.bookings, profiles, nil, nil, 48*time.Hour)
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func (f *reviewFixture) booking(t *testing.T, status booking.Status, slotEnd time.Time) *booking.Booking {
	t.Helper()
	b := &booking.Booking{
		ClientID:         f.clientID,
		InstructorID:     f.instructorID,
		StudioID:         f.studioID,
		SlotGroupID:      1,
		SlotUnitID:       1,
		ReservationToken: uuid.New(),
		EquipmentType:    "reformer",
		Quantity:         1,
		SlotStart:        slotEnd.Add(-time.Hour),
		SlotEnd:          slotEnd,
		Status:           status,
		PaymentStatus:    booking.PaymentSubmitted,
		Price: booking.PriceBreakdown{
			StudioFee:     decimal.NewFromInt(500),
			InstructorFee: decimal.NewFromInt(300),
			PlatformFee:   decimal.NewFromInt(160),
		},
		ExpiresAt: slotEnd.Add(-72 * time.Hour),
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func TestSubmitReview_Eligibility(t *testing.T) {
	f := setupReviewFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		status  booking.Status
		slotEnd time.Time
		wantErr error
	}{
		{"completed", booking.StatusCompleted, f.now.Add(-time.Hour), nil},
		{"cancelled charged", booking.StatusCancelledCharged, f.now.Add(time.Hour), nil},
		{"approved and ended", booking.StatusApproved, f.now.Add(-time.Minute), nil},
		{"approved not ended", booking.StatusApproved, f.now.Add(time.Hour), ErrSessionNotFinished},
		{"pending", booking.StatusPending, f.now.Add(-time.Hour), ErrSessionNotFinished},
		{"cancelled refunded", booking.StatusCancelledRefunded, f.now.Add(-time.Hour), ErrSessionNotFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := f.booking(t, tt.status, tt.slotEnd)
			_, err := f.svc.SubmitReview(ctx, SubmitInput{
				BookingID: b.ID, ReviewerID: f.clientID, Reviewee: account.Studio(f.studioID), Rating: 5,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, err := f.bookings.GetByID(ctx, b.ID)
			require.NoError(t, err)
			assert.True(t, got.CustomerReviewed)
		})
	}
}

func TestSubmitReview_PartiesAndDuplicates(t *testing.T) {
	f := setupReviewFixture(t)
	ctx := context.Background()
	b := f.booking(t, booking.StatusCompleted, f.now.Add(-time.Hour))

	_, err := f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: 999, Reviewee: account.Studio(f.studioID), Rating: 4})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.clientID, Reviewee: account.User(f.clientID), Rating: 4})
	assert.ErrorIs(t, err, ErrInvalidReviewee)

	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.ownerID, Reviewee: account.Studio(f.studioID), Rating: 4})
	assert.ErrorIs(t, err, ErrInvalidReviewee)

	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.clientID, Reviewee: account.User(f.instructorID), Rating: 4, Tags: []string{"precise"}})
	require.NoError(t, err)

	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.clientID, Reviewee: account.User(f.instructorID), Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.ownerID, Reviewee: account.User(f.instructorID), Rating: 3})
	require.NoError(t, err)

	got, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.CustomerReviewed)
	assert.True(t, got.StudioReviewed)
	assert.False(t, got.InstructorReviewed)
}

func TestGetPublicReviews_DoubleBlind(t *testing.T) {
	f := setupReviewFixture(t)
	ctx := context.Background()
	b := f.booking(t, booking.StatusCompleted, f.now.Add(-time.Hour))
	instructor := account.User(f.instructorID)

	_, err := f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.clientID, Reviewee: instructor, Rating: 4})
	require.NoError(t, err)

	// Only one side has reviewed: hidden.
	out, err := f.svc.GetPublicReviews(ctx, instructor)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
	assert.Empty(t, out.Reviews)
	assert.Zero(t, out.AverageRating)

	// The instructor reviews back: both become visible immediately.
	f.now = f.now.Add(time.Hour)
	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: b.ID, ReviewerID: f.instructorID, Reviewee: account.User(f.clientID), Rating: 5})
	require.NoError(t, err)

	out, err = f.svc.GetPublicReviews(ctx, instructor)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 4.0, out.AverageRating)

	out, err = f.svc.GetPublicReviews(ctx, account.User(f.clientID))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
}

func TestGetPublicReviews_BlindWindowElapses(t *testing.T) {
	f := setupReviewFixture(t)
	ctx := context.Background()
	studio := account.Studio(f.studioID)

	first := f.booking(t, booking.StatusCompleted, f.now.Add(-time.Hour))
	_, err := f.svc.SubmitReview(ctx, SubmitInput{BookingID: first.ID, ReviewerID: f.clientID, Reviewee: studio, Rating: 5})
	require.NoError(t, err)

	f.now = f.now.Add(24 * time.Hour)
	second := f.booking(t, booking.StatusCompleted, f.now.Add(-time.Hour))
	_, err = f.svc.SubmitReview(ctx, SubmitInput{BookingID: second.ID, ReviewerID: f.instructorID, Reviewee: studio, Rating: 2})
	require.NoError(t, err)

	f.now = f.now.Add(24*time.Hour + time.Minute)
	out, err := f.svc.GetPublicReviews(ctx, studio)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count, "only the first review is past the blind window")
	assert.Equal(t, 5.0, out.AverageRating)

	f.now = f.now.Add(24 * time.Hour)
	out, err = f.svc.GetPublicReviews(ctx, studio)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 3.5, out.AverageRating)
}
