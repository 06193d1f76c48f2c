// Package penalty decides how a cancelled booking is settled. It is a pure
// function of the booking, who cancelled and when; it never looks at wallet
// balances.
package penalty

import (
	"time"

	"github.com/shopspring/decimal"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/booking"
)

type Initiator string

const (
	InitiatorInstructor Initiator = "instructor"
	InitiatorStudio     Initiator = "studio"
)

// Transfer moves Amount from one account's available balance to another's.
type Transfer struct {
	From   account.Ref
	To     account.Ref
	Amount decimal.Decimal
}

type Decision struct {
	Late             bool
	Status           booking.Status
	Refund           decimal.Decimal
	PenaltyAmount    decimal.Decimal
	PenaltyProcessed bool
	RefundInitiator  booking.RefundInitiator
	Penalty          *Transfer
}

// Decide computes the settlement for a cancellation at now. The client is
// always refunded the full escrow. A cancellation inside window is late and
// costs the initiator the studio fee, paid to the other provider.
func Decide(b *booking.Booking, initiator Initiator, now time.Time, window time.Duration) Decision {
	d := Decision{
		Late:          b.SlotStart.Sub(now) < window,
		Status:        booking.StatusCancelledRefunded,
		Refund:        b.Price.Total(),
		PenaltyAmount: decimal.Zero,
	}
	if !d.Late {
		return d
	}

	studio := account.Studio(b.StudioID)
	instructor := account.User(b.InstructorID)

	d.Status = booking.StatusCancelledCharged
	d.PenaltyAmount = b.Price.StudioFee
	d.PenaltyProcessed = true

	switch initiator {
	case InitiatorStudio:
		d.RefundInitiator = booking.RefundInitiatorStudio
		d.Penalty = &Transfer{From: studio, To: instructor, Amount: b.Price.StudioFee}
	default:
		d.RefundInitiator = booking.RefundInitiatorInstructor
		d.Penalty = &Transfer{From: instructor, To: studio, Amount: b.Price.StudioFee}
	}

	if !d.PenaltyAmount.IsPositive() {
		d.Penalty = nil
	}
	return d
}
