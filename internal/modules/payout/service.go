package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studiomarket/internal/domain/account"
	domain "studiomarket/internal/domain/payout"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/notification"
	"studiomarket/internal/pkg/logger"
)

type Service struct {
	db       *gorm.DB
	payouts  *domain.Repository
	ledger   *wallet.Ledger
	profiles *profile.Repository
	notifs   notification.Notifier
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, payouts *domain.Repository, ledger *wallet.Ledger, profiles *profile.Repository, notifs notification.Notifier, log *logrus.Logger) *Service {
	if notifs == nil {
		notifs = notification.Nop{}
	}
	return &Service{
		db:       db,
		payouts:  payouts,
		ledger:   ledger,
		profiles: profiles,
		notifs:   notifs,
		log:      logger.OrDiscard(log),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RequestInput struct {
	ActorID int64
	// StudioID selects a studio wallet the actor owns; zero means the
	// actor's own wallet.
	StudioID int64
	Amount   decimal.Decimal
	Method   string
	Details  string
}

// RequestPayout debits the available balance right away. It never lets the
// balance go below zero.
func (s *Service) RequestPayout(ctx context.Context, in RequestInput) (*domain.Request, error) {
	if in.ActorID <= 0 || !in.Amount.IsPositive() || in.Method == "" {
		return nil, ErrValidation
	}

	owner, approved, err := s.resolveOwner(ctx, in.ActorID, in.StudioID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrApplicationNotApproved
	}

	p := &domain.Request{
		OwnerKind:   owner.Kind,
		OwnerID:     owner.ID,
		RequestedBy: in.ActorID,
		Amount:      in.Amount.Round(2),
		Status:      domain.StatusPending,
		Method:      in.Method,
		Details:     in.Details,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.payouts.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		_, err := s.ledger.WithTx(tx).Withdraw(ctx, wallet.Entry{
			Owner:     owner,
			Amount:    p.Amount,
			Reason:    wallet.ReasonPayoutRequest,
			Reference: payoutRef(p.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"payout_id": p.ID,
		"owner":     owner.String(),
		"amount":    p.Amount.String(),
	}).Info("payout requested")
	s.notifs.Notify(ctx, notification.NewEvent(notification.TypePayoutRequested, in.ActorID,
		"Payout requested", "Your payout request is waiting for review").With("payout_id", p.ID))
	return p, nil
}

// ListMine returns payout requests for the actor's wallet and every studio
// they own.
func (s *Service) ListMine(ctx context.Context, actorID int64) ([]domain.Request, error) {
	studioIDs, err := s.profiles.StudioIDsOwnedBy(ctx, actorID)
	if err != nil {
		return nil, err
	}
	owners := []account.Ref{account.User(actorID)}
	for _, id := range studioIDs {
		owners = append(owners, account.Studio(id))
	}
	return s.payouts.ListByOwners(ctx, owners, 50)
}

func (s *Service) Approve(ctx context.Context, id, adminID int64) (*domain.Request, error) {
	return s.transition(ctx, id, adminID, []domain.Status{domain.StatusPending}, domain.StatusApproved, "", nil)
}

func (s *Service) MarkPaid(ctx context.Context, id, adminID int64) (*domain.Request, error) {
	return s.transition(ctx, id, adminID, []domain.Status{domain.StatusApproved}, domain.StatusPaid, "", nil)
}

// Reject returns the withdrawn amount to the wallet it came from.
func (s *Service) Reject(ctx context.Context, id, adminID int64, reason string) (*domain.Request, error) {
	return s.transition(ctx, id, adminID,
		[]domain.Status{domain.StatusPending, domain.StatusApproved}, domain.StatusRejected, reason,
		func(tx *gorm.DB, p *domain.Request) error {
			_, err := s.ledger.WithTx(tx).Credit(ctx, wallet.Entry{
				Owner:     p.Owner(),
				Amount:    p.Amount,
				Reason:    wallet.ReasonPayoutReversal,
				Reference: payoutRef(p.ID),
			})
			return err
		})
}

func (s *Service) transition(
	ctx context.Context,
	id, adminID int64,
	from []domain.Status,
	to domain.Status,
	note string,
	after func(tx *gorm.DB, p *domain.Request) error,
) (*domain.Request, error) {
	p, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.payouts.WithTx(tx).Transition(ctx, id, from, to, adminID, note, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}
		if after != nil {
			return after(tx, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.Status = to
	p.ProcessedBy = &adminID
	p.ProcessedAt = &now
	if note != "" {
		p.Note = note
	}

	s.log.WithFields(logrus.Fields{"payout_id": p.ID, "status": to, "admin_id": adminID}).Info("payout processed")
	s.notifs.Notify(ctx, notification.NewEvent(notification.TypePayoutProcessed, p.RequestedBy,
		"Payout "+string(to), note).With("payout_id", p.ID).With("amount", p.Amount.String()))
	return p, nil
}

func (s *Service) resolveOwner(ctx context.Context, actorID, studioID int64) (account.Ref, bool, error) {
	if studioID > 0 {
		studio, err := s.profiles.GetOwnedStudio(ctx, studioID, actorID)
		if errors.Is(err, profile.ErrStudioNotFound) || errors.Is(err, profile.ErrNotStudioOwner) {
			return account.Ref{}, false, ErrForbidden
		}
		if err != nil {
			return account.Ref{}, false, err
		}
		return account.Studio(studio.ID), studio.PayoutApproved, nil
	}

	p, err := s.profiles.GetProfile(ctx, actorID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return account.Ref{}, false, ErrForbidden
	}
	if err != nil {
		return account.Ref{}, false, err
	}
	return account.User(p.ID), p.PayoutApproved, nil
}

func payoutRef(id int64) string {
	return fmt.Sprintf("payout:%d", id)
}
