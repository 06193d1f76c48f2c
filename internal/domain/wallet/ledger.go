package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/pkg/dberr"
)

var (
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrInvalidOwner             = errors.New("invalid wallet owner")
	ErrInsufficientBalance      = errors.New("insufficient available balance")
	ErrInsufficientPendingFunds = errors.New("insufficient pending funds")
)

// Entry describes one ledger mutation.
type Entry struct {
	Owner     account.Ref
	Amount    decimal.Decimal
	Reason    Reason
	Reference string
}

// Ledger implements the balance primitives. It knows nothing about bookings;
// callers pass a Reference string for the audit trail.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx binds the ledger to an outer transaction so balance changes commit
// or roll back together with the caller's writes.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func (l *Ledger) Get(ctx context.Context, owner account.Ref) (*Wallet, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	var w Wallet
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return lockWallet(tx, owner, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Credit adds to the available bucket. Outstanding debt is paid down first
// and recorded as a separate debt_recovery movement.
func (l *Ledger) Credit(ctx context.Context, e Entry) (*Wallet, error) {
	return l.apply(ctx, e, func(tx *gorm.DB, w *Wallet) error {
		return creditAvailable(tx, w, e)
	})
}

// Debit always succeeds and may drive the available balance negative.
func (l *Ledger) Debit(ctx context.Context, e Entry) (*Wallet, error) {
	return l.apply(ctx, e, func(tx *gorm.DB, w *Wallet) error {
		w.AvailableBalance = w.AvailableBalance.Sub(e.Amount)
		return appendMovement(tx, w, BucketAvailable, e.Amount.Neg(), e.Reason, e.Reference)
	})
}

// Withdraw is a Debit that refuses to overdraw.
func (l *Ledger) Withdraw(ctx context.Context, e Entry) (*Wallet, error) {
	return l.apply(ctx, e, func(tx *gorm.DB, w *Wallet) error {
		if w.AvailableBalance.LessThan(e.Amount) {
			return ErrInsufficientBalance
		}
		w.AvailableBalance = w.AvailableBalance.Sub(e.Amount)
		return appendMovement(tx, w, BucketAvailable, e.Amount.Neg(), e.Reason, e.Reference)
	})
}

// HoldToPending places funds released from escrow into the pending bucket
// for the security hold.
func (l *Ledger) HoldToPending(ctx context.Context, e Entry) (*Wallet, error) {
	return l.apply(ctx, e, func(tx *gorm.DB, w *Wallet) error {
		w.PendingBalance = w.PendingBalance.Add(e.Amount)
		return appendMovement(tx, w, BucketPending, e.Amount, e.Reason, e.Reference)
	})
}

// UnlockFromPending moves held funds to available. Moving more than is held
// means the books are already wrong, so it fails instead of clamping.
func (l *Ledger) UnlockFromPending(ctx context.Context, e Entry) (*Wallet, error) {
	return l.apply(ctx, e, func(tx *gorm.DB, w *Wallet) error {
		if w.PendingBalance.LessThan(e.Amount) {
			return fmt.Errorf("%w: %s holds %s, unlock %s", ErrInsufficientPendingFunds, w.Owner(), w.PendingBalance, e.Amount)
		}
		w.PendingBalance = w.PendingBalance.Sub(e.Amount)
		if err := appendMovement(tx, w, BucketPending, e.Amount.Neg(), e.Reason, e.Reference); err != nil {
			return err
		}
		return creditAvailable(tx, w, e)
	})
}

func (l *Ledger) Movements(ctx context.Context, owner account.Ref, limit int) ([]Movement, error) {
	w, err := l.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var items []Movement
	err = l.db.WithContext(ctx).
		Where("wallet_id = ?", w.ID).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (l *Ledger) apply(ctx context.Context, e Entry, fn func(tx *gorm.DB, w *Wallet) error) (*Wallet, error) {
	if !e.Owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	e.Amount = e.Amount.Round(2)

	var w Wallet
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockWallet(tx, e.Owner, &w); err != nil {
			return err
		}
		if err := fn(tx, &w); err != nil {
			return err
		}
		return tx.Model(&Wallet{}).Where("id = ?", w.ID).Updates(map[string]any{
			"available_balance": w.AvailableBalance,
			"pending_balance":   w.PendingBalance,
			"updated_at":        tx.NowFunc(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func creditAvailable(tx *gorm.DB, w *Wallet, e Entry) error {
	remaining := e.Amount
	if w.InDebt() {
		recovered := decimal.Min(w.AvailableBalance.Neg(), remaining)
		w.AvailableBalance = w.AvailableBalance.Add(recovered)
		if err := appendMovement(tx, w, BucketAvailable, recovered, ReasonDebtRecovery, e.Reference); err != nil {
			return err
		}
		remaining = remaining.Sub(recovered)
	}
	if !remaining.IsPositive() {
		return nil
	}
	w.AvailableBalance = w.AvailableBalance.Add(remaining)
	return appendMovement(tx, w, BucketAvailable, remaining, e.Reason, e.Reference)
}

func appendMovement(tx *gorm.DB, w *Wallet, bucket Bucket, delta decimal.Decimal, reason Reason, ref string) error {
	after := w.AvailableBalance
	if bucket == BucketPending {
		after = w.PendingBalance
	}
	return tx.Create(&Movement{
		WalletID:     w.ID,
		Bucket:       bucket,
		Delta:        delta,
		BalanceAfter: after,
		Reason:       reason,
		Reference:    ref,
	}).Error
}

func lockWallet(tx *gorm.DB, owner account.Ref, w *Wallet) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID).
		First(w).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	*w = Wallet{OwnerKind: owner.Kind, OwnerID: owner.ID}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(w).Error
	})
	if err == nil {
		return nil
	}
	if dberr.IsUniqueViolation(err) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID).
			First(w).Error
	}
	return err
}
