package penalty

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/booking"
)

const window = 24 * time.Hour

func approvedBooking(start time.Time) *booking.Booking {
	return &booking.Booking{
		ID:           1,
		ClientID:     10,
		InstructorID: 20,
		StudioID:     30,
		SlotStart:    start,
		SlotEnd:      start.Add(time.Hour),
		Status:       booking.StatusApproved,
		Price: booking.PriceBreakdown{
			StudioFee:     decimal.NewFromInt(500),
			InstructorFee: decimal.NewFromInt(300),
			PlatformFee:   decimal.NewFromInt(160),
		},
	}
}

func TestDecide_EarlyCancellationIsFree(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	b := approvedBooking(now.Add(48 * time.Hour))

	for _, who := range []Initiator{InitiatorInstructor, InitiatorStudio} {
		d := Decide(b, who, now, window)
		assert.False(t, d.Late)
		assert.Equal(t, booking.StatusCancelledRefunded, d.Status)
		assert.True(t, d.Refund.Equal(decimal.NewFromInt(960)))
		assert.True(t, d.PenaltyAmount.IsZero())
		assert.False(t, d.PenaltyProcessed)
		assert.Nil(t, d.Penalty)
	}
}

func TestDecide_ExactlyAtWindowIsNotLate(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	d := Decide(approvedBooking(now.Add(window)), InitiatorInstructor, now, window)
	assert.False(t, d.Late)
}

func TestDecide_LateInstructorPaysStudio(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	d := Decide(approvedBooking(now.Add(2*time.Hour)), InitiatorInstructor, now, window)

	assert.True(t, d.Late)
	assert.Equal(t, booking.StatusCancelledCharged, d.Status)
	assert.True(t, d.Refund.Equal(decimal.NewFromInt(960)))
	assert.True(t, d.PenaltyAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, d.PenaltyProcessed)
	assert.Equal(t, booking.RefundInitiatorInstructor, d.RefundInitiator)
	require.NotNil(t, d.Penalty)
	assert.Equal(t, account.User(20), d.Penalty.From)
	assert.Equal(t, account.Studio(30), d.Penalty.To)
}

func TestDecide_PenaltyIsSymmetric(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	b := approvedBooking(now.Add(5 * time.Hour))

	byInstructor := Decide(b, InitiatorInstructor, now, window)
	byStudio := Decide(b, InitiatorStudio, now, window)

	require.NotNil(t, byInstructor.Penalty)
	require.NotNil(t, byStudio.Penalty)
	assert.True(t, byInstructor.Penalty.Amount.Equal(byStudio.Penalty.Amount))
	assert.Equal(t, byInstructor.Penalty.From, byStudio.Penalty.To)
	assert.Equal(t, byInstructor.Penalty.To, byStudio.Penalty.From)
	assert.Equal(t, booking.RefundInitiatorStudio, byStudio.RefundInitiator)
	assert.True(t, byInstructor.Refund.Equal(byStudio.Refund))
}

func TestDecide_ZeroStudioFeeHasNoTransfer(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	b := approvedBooking(now.Add(time.Hour))
	b.Price.StudioFee = decimal.Zero

	d := Decide(b, InitiatorStudio, now, window)
	assert.True(t, d.Late)
	assert.Nil(t, d.Penalty)
}
