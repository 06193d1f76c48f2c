package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending           Status = "pending"
	StatusExpired           Status = "expired"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusCompleted         Status = "completed"
	StatusCancelledCharged  Status = "cancelled_charged"
	StatusCancelledRefunded Status = "cancelled_refunded"
)

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentSubmitted PaymentStatus = "submitted"
	PaymentRefunded  PaymentStatus = "refunded"
)

// RefundInitiator records which party caused a late-cancellation penalty.
type RefundInitiator string

const (
	RefundInitiatorNone       RefundInitiator = ""
	RefundInitiatorInstructor RefundInitiator = "instructor"
	RefundInitiatorStudio     RefundInitiator = "studio"
)

type PriceBreakdown struct {
	StudioFee        decimal.Decimal `json:"studio_fee"`
	InstructorFee    decimal.Decimal `json:"instructor_fee"`
	PlatformFee      decimal.Decimal `json:"platform_fee"`
	PenaltyAmount    decimal.Decimal `json:"penalty_amount"`
	PenaltyProcessed bool            `json:"penalty_processed"`
	RefundInitiator  RefundInitiator `json:"refund_initiator,omitempty"`
}

// Total is what the client pays into escrow.
func (p PriceBreakdown) Total() decimal.Decimal {
	return p.StudioFee.Add(p.InstructorFee).Add(p.PlatformFee)
}

type Booking struct {
	ID               int64          `json:"id"`
	ClientID         int64          `json:"client_id"`
	InstructorID     int64          `json:"instructor_id"`
	StudioID         int64          `json:"studio_id"`
	SlotGroupID      int64          `json:"slot_group_id"`
	SlotUnitID       int64          `json:"slot_unit_id"`
	ReservationToken uuid.UUID      `json:"-"`
	EquipmentType    string         `json:"equipment_type"`
	Quantity         int            `json:"quantity"`
	SlotStart        time.Time      `json:"slot_start"`
	SlotEnd          time.Time      `json:"slot_end"`
	Status           Status         `json:"status"`
	PaymentStatus    PaymentStatus  `json:"payment_status"`
	PaymentProofRef  string         `json:"payment_proof_ref,omitempty"`
	Price            PriceBreakdown `json:"price_breakdown"`
	ExpiresAt        time.Time      `json:"expires_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	CancelledAt      *time.Time     `json:"cancelled_at,omitempty"`
	StatusReason     string         `json:"status_reason,omitempty"`
	FundsUnlocked    bool           `json:"funds_unlocked"`

	CustomerReviewed   bool `json:"customer_reviewed"`
	InstructorReviewed bool `json:"instructor_reviewed"`
	StudioReviewed     bool `json:"studio_reviewed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRental is true when an instructor books studio equipment for themselves.
func (b *Booking) IsRental() bool {
	return b.ClientID == b.InstructorID
}

// SessionEnded reports whether the slot window is over at now.
func (b *Booking) SessionEnded(now time.Time) bool {
	return !now.Before(b.SlotEnd)
}
