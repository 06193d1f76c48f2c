package profile

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleInstructor  Role = "instructor"
	RoleStudioOwner Role = "studio_owner"
	RoleAdmin       Role = "admin"
)

// Profile is the marketplace view of an identity-provider user. Onboarding
// fills it in; the booking core only reads it.
type Profile struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	Name           string          `json:"name" gorm:"not null"`
	Role           Role            `json:"role" gorm:"type:varchar(20);not null;index"`
	SessionFee     decimal.Decimal `json:"session_fee" gorm:"type:numeric(14,2);not null;default:0"`
	PayoutApproved bool            `json:"payout_approved" gorm:"not null;default:false"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

type Studio struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	OwnerID        int64      `json:"owner_id" gorm:"not null;index"`
	Name           string     `json:"name" gorm:"not null"`
	PayoutApproved bool       `json:"payout_approved" gorm:"not null;default:false"`
	SuspendedAt    *time.Time `json:"suspended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Studio) TableName() string {
	return "studios"
}

func (s *Studio) Suspended() bool {
	return s.SuspendedAt != nil
}

// LateCancellation counts toward automatic studio suspension.
type LateCancellation struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	StudioID  int64     `json:"studio_id" gorm:"not null;index"`
	BookingID int64     `json:"booking_id" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (LateCancellation) TableName() string {
	return "studio_late_cancellations"
}
