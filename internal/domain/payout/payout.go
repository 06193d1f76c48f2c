package payout

import (
	"time"

	"github.com/shopspring/decimal"

	"studiomarket/internal/domain/account"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// Request is a withdrawal from a wallet's available balance. The money leaves
// the wallet when the request is created; rejecting it puts the money back.
type Request struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	OwnerKind   account.Kind    `json:"owner_kind" gorm:"type:varchar(16);not null;index:idx_payout_owner,priority:1"`
	OwnerID     int64           `json:"owner_id" gorm:"not null;index:idx_payout_owner,priority:2"`
	RequestedBy int64           `json:"requested_by" gorm:"not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Status      Status          `json:"status" gorm:"type:varchar(16);not null;index"`
	Method      string          `json:"method" gorm:"type:varchar(32);not null"`
	Details     string          `json:"details,omitempty" gorm:"type:text"`
	Note        string          `json:"note,omitempty" gorm:"type:text"`
	ProcessedBy *int64          `json:"processed_by,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Request) TableName() string { return "payout_requests" }

func (r *Request) Owner() account.Ref {
	return account.Ref{Kind: r.OwnerKind, ID: r.OwnerID}
}
