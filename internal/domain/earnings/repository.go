// Package earnings is a read-only reporting view over bookings and wallet
// movements. It uses plain SQL through sqlx; nothing here writes.
package earnings

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"studiomarket/internal/domain/account"
)

type Summary struct {
	Account           account.Ref     `json:"account"`
	CompletedSessions int64           `json:"completed_sessions" db:"completed_sessions"`
	GrossEarned       decimal.Decimal `json:"gross_earned" db:"gross_earned"`
	UnlockedEarned    decimal.Decimal `json:"unlocked_earned" db:"unlocked_earned"`
	PendingHold       decimal.Decimal `json:"pending_hold" db:"pending_hold"`
	PenaltiesPaid     decimal.Decimal `json:"penalties_paid" db:"penalties_paid"`
	PenaltiesReceived decimal.Decimal `json:"penalties_received" db:"penalties_received"`
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type sessionRow struct {
	CompletedSessions int64           `db:"completed_sessions"`
	GrossEarned       decimal.Decimal `db:"gross_earned"`
	UnlockedEarned    decimal.Decimal `db:"unlocked_earned"`
}

type penaltyRow struct {
	PenaltiesPaid     decimal.Decimal `db:"penalties_paid"`
	PenaltiesReceived decimal.Decimal `db:"penalties_received"`
}

const instructorSessionsQuery = `
	SELECT COUNT(*) AS completed_sessions,
	       COALESCE(SUM(instructor_fee), 0) AS gross_earned,
	       COALESCE(SUM(CASE WHEN funds_unlocked THEN instructor_fee ELSE 0 END), 0) AS unlocked_earned
	FROM bookings
	WHERE status = 'completed' AND instructor_id = ? AND client_id <> instructor_id
`

const studioSessionsQuery = `
	SELECT COUNT(*) AS completed_sessions,
	       COALESCE(SUM(studio_fee), 0) AS gross_earned,
	       COALESCE(SUM(CASE WHEN funds_unlocked THEN studio_fee ELSE 0 END), 0) AS unlocked_earned
	FROM bookings
	WHERE status = 'completed' AND studio_id = ?
`

const penaltiesQuery = `
	SELECT COALESCE(SUM(CASE WHEN m.reason = 'penalty_debit' THEN -m.delta ELSE 0 END), 0) AS penalties_paid,
	       COALESCE(SUM(CASE WHEN m.reason = 'penalty_credit' THEN m.delta ELSE 0 END), 0) AS penalties_received
	FROM wallet_movements m
	JOIN wallets w ON w.id = m.wallet_id
	WHERE w.owner_kind = ? AND w.owner_id = ?
`

const pendingQuery = `
	SELECT COALESCE(MAX(pending_balance), 0)
	FROM wallets
	WHERE owner_kind = ? AND owner_id = ?
`

// Summary aggregates one account. Accounts without a wallet or bookings
// get a zero summary.
func (r *Repository) Summary(ctx context.Context, owner account.Ref) (*Summary, error) {
	query := instructorSessionsQuery
	if owner.Kind == account.KindStudio {
		query = studioSessionsQuery
	}

	var sessions sessionRow
	if err := r.db.GetContext(ctx, &sessions, r.db.Rebind(query), owner.ID); err != nil {
		return nil, err
	}

	var penalties penaltyRow
	if err := r.db.GetContext(ctx, &penalties, r.db.Rebind(penaltiesQuery), string(owner.Kind), owner.ID); err != nil {
		return nil, err
	}

	var pending decimal.Decimal
	if err := r.db.GetContext(ctx, &pending, r.db.Rebind(pendingQuery), string(owner.Kind), owner.ID); err != nil {
		return nil, err
	}

	return &Summary{
		Account:           owner,
		CompletedSessions: sessions.CompletedSessions,
		GrossEarned:       sessions.GrossEarned,
		UnlockedEarned:    sessions.UnlockedEarned,
		PendingHold:       pending,
		PenaltiesPaid:     penalties.PenaltiesPaid,
		PenaltiesReceived: penalties.PenaltiesReceived,
	}, nil
}
