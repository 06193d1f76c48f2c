package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studiomarket/internal/domain/account"
)

type Bucket string

const (
	BucketAvailable Bucket = "available"
	BucketPending   Bucket = "pending"
)

type Reason string

const (
	ReasonBookingEscrow   Reason = "booking_escrow"
	ReasonBookingRefund   Reason = "booking_refund"
	ReasonPenaltyDebit    Reason = "penalty_debit"
	ReasonPenaltyCredit   Reason = "penalty_credit"
	ReasonSessionEarning  Reason = "session_earning"
	ReasonFundsUnlocked   Reason = "funds_unlocked"
	ReasonDebtRecovery    Reason = "debt_recovery"
	ReasonPayoutRequest   Reason = "payout_request"
	ReasonPayoutReversal  Reason = "payout_reversal"
	ReasonAdminAdjustment Reason = "admin_adjustment"
)

// Wallet holds one account's balances. AvailableBalance may be negative
// (debt owed to the platform); PendingBalance never is.
type Wallet struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerKind        account.Kind    `json:"owner_kind" gorm:"type:varchar(16);not null;uniqueIndex:idx_wallet_owner,priority:1"`
	OwnerID          int64           `json:"owner_id" gorm:"not null;uniqueIndex:idx_wallet_owner,priority:2"`
	AvailableBalance decimal.Decimal `json:"available_balance" gorm:"type:numeric(14,2);not null;default:0"`
	PendingBalance   decimal.Decimal `json:"pending_balance" gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *Wallet) Owner() account.Ref {
	return account.Ref{Kind: w.OwnerKind, ID: w.OwnerID}
}

// InDebt reports whether the account owes the platform money.
func (w *Wallet) InDebt() bool {
	return w.AvailableBalance.IsNegative()
}

// Movement is an append-only record of a single bucket change.
type Movement struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	WalletID     uuid.UUID       `json:"wallet_id" gorm:"type:uuid;not null;index"`
	Bucket       Bucket          `json:"bucket" gorm:"type:varchar(16);not null"`
	Delta        decimal.Decimal `json:"delta" gorm:"type:numeric(14,2);not null"`
	BalanceAfter decimal.Decimal `json:"balance_after" gorm:"type:numeric(14,2);not null"`
	Reason       Reason          `json:"reason" gorm:"type:varchar(32);not null;index"`
	Reference    string          `json:"reference,omitempty" gorm:"type:varchar(64);index"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime;index"`
}

func (Movement) TableName() string {
	return "wallet_movements"
}

func (m *Movement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
