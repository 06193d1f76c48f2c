package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studiomarket/internal/domain/account"
	domain "studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/inventory"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/modules/penalty"
	"studiomarket/internal/notification"
	"studiomarket/internal/pkg/logger"
)

type Config struct {
	PaymentWindow          time.Duration
	CancellationWindow     time.Duration
	SecurityHold           time.Duration
	PlatformFeeRate        decimal.Decimal
	PlatformFeeMin         decimal.Decimal
	StudioLateCancelLimit  int
	StudioLateCancelPeriod time.Duration
	SweepBatchSize         int
}

func DefaultConfig() Config {
	return Config{
		PaymentWindow:          15 * time.Minute,
		CancellationWindow:     24 * time.Hour,
		SecurityHold:           24 * time.Hour,
		PlatformFeeRate:        decimal.RequireFromString("0.20"),
		PlatformFeeMin:         decimal.NewFromInt(100),
		StudioLateCancelLimit:  3,
		StudioLateCancelPeriod: 30 * 24 * time.Hour,
		SweepBatchSize:         200,
	}
}

type Service struct {
	db       *gorm.DB
	bookings *domain.Repository
	slots    *inventory.Repository
	ledger   *wallet.Ledger
	profiles *profile.Repository
	notifs   notification.Notifier
	log      *logrus.Logger
	cfg      Config
	now      func() time.Time
}

func NewService(
	db *gorm.DB,
	bookings *domain.Repository,
	slots *inventory.Repository,
	ledger *wallet.Ledger,
	profiles *profile.Repository,
	notifs notification.Notifier,
	log *logrus.Logger,
	cfg Config,
) *Service {
	if notifs == nil {
		notifs = notification.Nop{}
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 200
	}
	return &Service{
		db:       db,
		bookings: bookings,
		slots:    slots,
		ledger:   ledger,
		profiles: profiles,
		notifs:   notifs,
		log:      logger.OrDiscard(log),
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the wall clock. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type CreateInput struct {
	ClientID      int64
	InstructorID  int64
	SlotGroupID   int64
	EquipmentType inventory.EquipmentType
	Quantity      int
}

// CreateBooking reserves inventory and moves the full price from the client
// into escrow in one transaction.
func (s *Service) CreateBooking(ctx context.Context, in CreateInput) (*domain.Booking, error) {
	if in.ClientID <= 0 || in.InstructorID <= 0 || in.SlotGroupID <= 0 || in.Quantity <= 0 || in.EquipmentType == "" {
		return nil, ErrValidation
	}
	now := s.now()

	clientWallet, err := s.ledger.Get(ctx, account.User(in.ClientID))
	if err != nil {
		return nil, err
	}
	if clientWallet.InDebt() {
		return nil, ErrNegativeBalance
	}

	group, err := s.slots.GetGroup(ctx, in.SlotGroupID)
	if errors.Is(err, inventory.ErrNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	if !group.StartTime.After(now) {
		return nil, ErrSlotInPast
	}
	unit, ok := group.Unit(in.EquipmentType)
	if !ok {
		return nil, ErrSlotUnavailable
	}

	studio, err := s.profiles.GetStudio(ctx, group.StudioID)
	if err != nil {
		return nil, err
	}
	if studio.Suspended() {
		return nil, ErrStudioSuspended
	}

	// A rental is an instructor booking space for themselves, so the
	// instructor_id must name an instructor either way.
	instructor, err := s.profiles.GetProfile(ctx, in.InstructorID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return nil, ErrInvalidInstructor
	}
	if err != nil {
		return nil, err
	}
	if instructor.Role != profile.RoleInstructor {
		return nil, ErrInvalidInstructor
	}
	instructorFee := decimal.Zero
	if in.ClientID != in.InstructorID {
		instructorFee = instructor.SessionFee
	}

	b := &domain.Booking{
		ClientID:      in.ClientID,
		InstructorID:  in.InstructorID,
		StudioID:      group.StudioID,
		SlotGroupID:   group.ID,
		SlotUnitID:    unit.ID,
		EquipmentType: string(unit.EquipmentType),
		Quantity:      in.Quantity,
		SlotStart:     group.StartTime,
		SlotEnd:       group.EndTime,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		Price:         s.quote(unit, in.Quantity, instructorFee),
		ExpiresAt:     now.Add(s.cfg.PaymentWindow),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.slots.WithTx(tx).Reserve(ctx, unit.ID, in.Quantity)
		if errors.Is(err, inventory.ErrInsufficientCapacity) {
			return ErrSlotUnavailable
		}
		if err != nil {
			return err
		}
		b.ReservationToken = res.Token

		if err := s.bookings.WithTx(tx).Create(ctx, b); err != nil {
			return err
		}

		_, err = s.ledger.WithTx(tx).Debit(ctx, wallet.Entry{
			Owner:     account.User(b.ClientID),
			Amount:    b.Price.Total(),
			Reason:    wallet.ReasonBookingEscrow,
			Reference: bookingRef(b.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"client_id":  b.ClientID,
		"studio_id":  b.StudioID,
		"total":      b.Price.Total().String(),
	}).Info("booking created")

	events := []notification.Event{
		notification.NewEvent(notification.TypeBookingCreated, studio.OwnerID, "New booking request",
			"A new booking is waiting for payment proof").ForBooking(b.ID),
	}
	if !b.IsRental() {
		events = append(events, notification.NewEvent(notification.TypeBookingCreated, b.InstructorID,
			"New session booked", "A client booked a session with you").ForBooking(b.ID))
	}
	s.notifs.Notify(ctx, events...)

	return b, nil
}

func (s *Service) quote(unit *inventory.SlotUnit, quantity int, instructorFee decimal.Decimal) domain.PriceBreakdown {
	studioFee := unit.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	instructorFee = instructorFee.Round(2)

	platformFee := studioFee.Add(instructorFee).Mul(s.cfg.PlatformFeeRate).Round(2)
	if platformFee.LessThan(s.cfg.PlatformFeeMin) {
		platformFee = s.cfg.PlatformFeeMin
	}

	return domain.PriceBreakdown{
		StudioFee:     studioFee,
		InstructorFee: instructorFee,
		PlatformFee:   platformFee,
		PenaltyAmount: decimal.Zero,
	}
}

// GetBooking returns the booking if actorID is one of its parties.
func (s *Service) GetBooking(ctx context.Context, id, actorID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClientID == actorID || b.InstructorID == actorID {
		return b, nil
	}
	if _, err := s.profiles.GetOwnedStudio(ctx, b.StudioID, actorID); err == nil {
		return b, nil
	}
	return nil, ErrForbidden
}

// SubmitPayment attaches the out-of-band payment proof. After the payment
// window it fails with ErrBookingExpired even if the expiry sweep has not
// run yet.
func (s *Service) SubmitPayment(ctx context.Context, id, actorID int64, proofRef string) (*domain.Booking, error) {
	if proofRef == "" {
		return nil, ErrValidation
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClientID != actorID {
		return nil, ErrForbidden
	}

	now := s.now()
	if b.Status == domain.StatusExpired || (b.Status == domain.StatusPending && !now.Before(b.ExpiresAt)) {
		return nil, ErrBookingExpired
	}
	if b.Status != domain.StatusPending || b.PaymentStatus != domain.PaymentUnpaid {
		return nil, ErrInvalidState
	}

	ok, err := s.bookings.Transition(ctx, id,
		domain.Guard{Status: domain.StatusPending, PaymentStatus: domain.PaymentUnpaid, ExpiresAfter: now},
		map[string]any{
			"payment_status":    string(domain.PaymentSubmitted),
			"payment_proof_ref": proofRef,
		}, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with the expiry sweep or a duplicate submission.
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.StatusExpired {
			return nil, ErrBookingExpired
		}
		return nil, ErrInvalidState
	}

	b.PaymentStatus = domain.PaymentSubmitted
	b.PaymentProofRef = proofRef

	s.notifs.Notify(ctx, s.approverEvents(ctx, b, notification.TypePaymentSubmitted,
		"Payment proof submitted", "Review the payment proof and approve the booking")...)
	return b, nil
}

// ApproveBooking confirms a booking whose payment proof was submitted. No
// money moves; the escrow stays in place until completion or cancellation.
func (s *Service) ApproveBooking(ctx context.Context, id, actorID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canApprove(ctx, b, actorID) {
		return nil, ErrForbidden
	}

	now := s.now()
	ok, err := s.bookings.Transition(ctx, id,
		domain.Guard{Status: domain.StatusPending, PaymentStatus: domain.PaymentSubmitted},
		map[string]any{"status": string(domain.StatusApproved)}, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}
	b.Status = domain.StatusApproved

	s.notifs.Notify(ctx, notification.NewEvent(notification.TypeBookingApproved, b.ClientID,
		"Booking approved", "Your booking is confirmed").ForBooking(b.ID))
	return b, nil
}

// RejectBooking declines a submitted payment: the reservation is released
// and the escrow refunded to the client.
func (s *Service) RejectBooking(ctx context.Context, id, actorID int64, reason string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canApprove(ctx, b, actorID) {
		return nil, ErrForbidden
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).Transition(ctx, id,
			domain.Guard{Status: domain.StatusPending, PaymentStatus: domain.PaymentSubmitted},
			map[string]any{
				"status":         string(domain.StatusRejected),
				"payment_status": string(domain.PaymentRefunded),
				"status_reason":  reason,
			}, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}
		return s.releaseAndRefund(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	b.Status = domain.StatusRejected
	b.PaymentStatus = domain.PaymentRefunded
	b.StatusReason = reason

	s.notifs.Notify(ctx, notification.NewEvent(notification.TypeBookingRejected, b.ClientID,
		"Booking rejected", reason).ForBooking(b.ID).With("refund", b.Price.Total().String()))
	return b, nil
}

// Expire closes an unpaid booking whose payment window elapsed. It reports
// false when the booking already left that state.
func (s *Service) Expire(ctx context.Context, id int64) (bool, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	now := s.now()
	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).Transition(ctx, id,
			domain.Guard{Status: domain.StatusPending, PaymentStatus: domain.PaymentUnpaid, ExpiredBy: now},
			map[string]any{
				"status":         string(domain.StatusExpired),
				"payment_status": string(domain.PaymentRefunded),
				"status_reason":  "payment window elapsed",
			}, now)
		if err != nil || !ok {
			return err
		}
		applied = true
		return s.releaseAndRefund(ctx, tx, b)
	})
	if err != nil || !applied {
		return false, err
	}

	s.notifs.Notify(ctx, notification.NewEvent(notification.TypeBookingExpired, b.ClientID,
		"Booking expired", "No payment proof was submitted in time").ForBooking(b.ID))
	return true, nil
}

type CancelResult struct {
	BookingID     int64           `json:"booking_id"`
	Status        domain.Status   `json:"status"`
	Late          bool            `json:"late"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	PenaltyAmount decimal.Decimal `json:"penalty_amount"`
}

// CancelBooking is the provider-side cancellation of an approved booking
// before it starts. The client always gets the whole escrow back; a late
// cancellation moves the studio fee from the initiator to the other provider.
func (s *Service) CancelBooking(ctx context.Context, id, actorID int64, reason string) (*CancelResult, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var initiator penalty.Initiator
	studio, err := s.profiles.GetStudio(ctx, b.StudioID)
	if err != nil && !errors.Is(err, profile.ErrStudioNotFound) {
		return nil, err
	}
	switch {
	case actorID == b.InstructorID:
		initiator = penalty.InitiatorInstructor
	case studio != nil && studio.OwnerID == actorID:
		initiator = penalty.InitiatorStudio
	default:
		return nil, ErrForbidden
	}

	now := s.now()
	if b.Status != domain.StatusApproved || !now.Before(b.SlotStart) {
		return nil, ErrInvalidState
	}

	d := penalty.Decide(b, initiator, now, s.cfg.CancellationWindow)
	suspended := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).Transition(ctx, id,
			domain.Guard{Status: domain.StatusApproved},
			map[string]any{
				"status":            string(d.Status),
				"payment_status":    string(domain.PaymentRefunded),
				"penalty_amount":    d.PenaltyAmount,
				"penalty_processed": d.PenaltyProcessed,
				"refund_initiator":  string(d.RefundInitiator),
				"cancelled_at":      now,
				"status_reason":     reason,
			}, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}

		if err := s.releaseAndRefund(ctx, tx, b); err != nil {
			return err
		}

		if d.Penalty != nil {
			ledger := s.ledger.WithTx(tx)
			if _, err := ledger.Debit(ctx, wallet.Entry{
				Owner: d.Penalty.From, Amount: d.Penalty.Amount,
				Reason: wallet.ReasonPenaltyDebit, Reference: bookingRef(b.ID),
			}); err != nil {
				return err
			}
			if _, err := ledger.Credit(ctx, wallet.Entry{
				Owner: d.Penalty.To, Amount: d.Penalty.Amount,
				Reason: wallet.ReasonPenaltyCredit, Reference: bookingRef(b.ID),
			}); err != nil {
				return err
			}
		}

		if d.Late && initiator == penalty.InitiatorStudio {
			profiles := s.profiles.WithTx(tx)
			count, err := profiles.RecordLateCancellation(ctx, b.StudioID, b.ID, now, s.cfg.StudioLateCancelPeriod)
			if err != nil {
				return err
			}
			if count >= int64(s.cfg.StudioLateCancelLimit) {
				suspended, err = profiles.SuspendStudio(ctx, b.StudioID, now)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"initiator":  initiator,
		"late":       d.Late,
		"refund":     d.Refund.String(),
		"penalty":    d.PenaltyAmount.String(),
	}).Info("booking cancelled")

	events := []notification.Event{
		notification.NewEvent(notification.TypeBookingCancelled, b.ClientID, "Booking cancelled",
			"Your session was cancelled and fully refunded").ForBooking(b.ID).With("refund", d.Refund.String()),
	}
	if initiator == penalty.InitiatorStudio && !b.IsRental() {
		events = append(events, notification.NewEvent(notification.TypeBookingCancelled, b.InstructorID,
			"Studio cancelled your session", reason).ForBooking(b.ID).With("penalty_credit", d.PenaltyAmount.String()))
	}
	if initiator == penalty.InitiatorInstructor && studio != nil {
		events = append(events, notification.NewEvent(notification.TypeBookingCancelled, studio.OwnerID,
			"Instructor cancelled a session", reason).ForBooking(b.ID).With("penalty_credit", d.PenaltyAmount.String()))
	}
	if suspended {
		s.log.WithField("studio_id", b.StudioID).Warn("studio suspended after repeated late cancellations")
		events = append(events, notification.NewEvent(notification.TypeStudioSuspended, studio.OwnerID,
			"Studio suspended", "Too many late cancellations; new bookings are blocked").With("studio_id", b.StudioID))
	}
	s.notifs.Notify(ctx, events...)

	return &CancelResult{
		BookingID:     b.ID,
		Status:        d.Status,
		Late:          d.Late,
		RefundAmount:  d.Refund,
		PenaltyAmount: d.PenaltyAmount,
	}, nil
}

// Complete settles an approved booking whose session is over: each payee's
// share leaves escrow and enters the security hold.
func (s *Service) Complete(ctx context.Context, id int64) (bool, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	now := s.now()
	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).Transition(ctx, id,
			domain.Guard{Status: domain.StatusApproved, SlotEndedBy: now},
			map[string]any{
				"status":       string(domain.StatusCompleted),
				"completed_at": now,
			}, now)
		if err != nil || !ok {
			return err
		}
		applied = true

		ledger := s.ledger.WithTx(tx)
		for _, share := range payees(b) {
			if _, err := ledger.HoldToPending(ctx, wallet.Entry{
				Owner: share.owner, Amount: share.amount,
				Reason: wallet.ReasonSessionEarning, Reference: bookingRef(b.ID),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || !applied {
		return false, err
	}

	events := []notification.Event{
		notification.NewEvent(notification.TypeBookingCompleted, b.ClientID, "Session completed",
			"Leave a review for your session").ForBooking(b.ID),
	}
	if !b.IsRental() {
		events = append(events, notification.NewEvent(notification.TypeBookingCompleted, b.InstructorID,
			"Session completed", "Your earnings are on a security hold").ForBooking(b.ID))
	}
	if owner := s.studioOwner(ctx, b.StudioID); owner != 0 {
		events = append(events, notification.NewEvent(notification.TypeBookingCompleted, owner,
			"Session completed", "Your earnings are on a security hold").ForBooking(b.ID))
	}
	s.notifs.Notify(ctx, events...)
	return true, nil
}

// Unlock releases matured holds to available balances. A hold smaller than
// the booking's share is an invariant violation: the item is rolled back and
// logged as an alarm.
func (s *Service) Unlock(ctx context.Context, id int64) (bool, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	now := s.now()
	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).Transition(ctx, id,
			domain.Guard{Status: domain.StatusCompleted, FundsNotUnlocked: true, CompletedBy: now.Add(-s.cfg.SecurityHold)},
			map[string]any{"funds_unlocked": true}, now)
		if err != nil || !ok {
			return err
		}
		applied = true

		ledger := s.ledger.WithTx(tx)
		for _, share := range payees(b) {
			if _, err := ledger.UnlockFromPending(ctx, wallet.Entry{
				Owner: share.owner, Amount: share.amount,
				Reason: wallet.ReasonFundsUnlocked, Reference: bookingRef(b.ID),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, wallet.ErrInsufficientPendingFunds) {
		s.log.WithFields(logrus.Fields{"booking_id": b.ID, "alarm": "ledger_invariant"}).WithError(err).
			Error("pending balance below booking share; unlock rolled back")
		return false, err
	}
	if err != nil || !applied {
		return false, err
	}

	var events []notification.Event
	for _, share := range payees(b) {
		recipient := share.owner.ID
		if share.owner.Kind == account.KindStudio {
			recipient = s.studioOwner(ctx, b.StudioID)
		}
		events = append(events, notification.NewEvent(notification.TypeFundsUnlocked, recipient,
			"Funds available", "Your session earnings are now available").ForBooking(b.ID).With("amount", share.amount.String()))
	}
	s.notifs.Notify(ctx, events...)
	return true, nil
}

// SweepExpiredBookings expires every unpaid booking past its payment window.
// Items fail independently; the count is the number actually expired.
func (s *Service) SweepExpiredBookings(ctx context.Context) (int, error) {
	ids, err := s.bookings.FindExpiredPending(ctx, s.now(), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired bookings: %w", err)
	}
	return s.sweep(ctx, "expire", ids, s.Expire), nil
}

func (s *Service) SweepAutoComplete(ctx context.Context) (int, error) {
	ids, err := s.bookings.FindCompletable(ctx, s.now(), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find completable bookings: %w", err)
	}
	return s.sweep(ctx, "complete", ids, s.Complete), nil
}

func (s *Service) SweepUnlockMaturedFunds(ctx context.Context) (int, error) {
	ids, err := s.bookings.FindUnlockable(ctx, s.now().Add(-s.cfg.SecurityHold), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find unlockable bookings: %w", err)
	}
	return s.sweep(ctx, "unlock", ids, s.Unlock), nil
}

func (s *Service) sweep(ctx context.Context, job string, ids []int64, step func(context.Context, int64) (bool, error)) int {
	count := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		ok, err := step(ctx, id)
		if err != nil {
			s.log.WithFields(logrus.Fields{"job": job, "booking_id": id}).WithError(err).Warn("sweep item failed")
			continue
		}
		if ok {
			count++
		}
	}
	if count > 0 {
		s.log.WithFields(logrus.Fields{"job": job, "count": count}).Info("sweep applied")
	}
	return count
}

type Dashboard struct {
	Wallets  []wallet.Wallet  `json:"wallets"`
	Bookings []domain.Booking `json:"bookings"`
}

// Dashboard shows the actor's own wallet, the wallets of studios they own
// and their recent bookings in any role.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	studioIDs, err := s.profiles.StudioIDsOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	owners := []account.Ref{account.User(userID)}
	for _, id := range studioIDs {
		owners = append(owners, account.Studio(id))
	}
	out := &Dashboard{}
	for _, owner := range owners {
		w, err := s.ledger.Get(ctx, owner)
		if err != nil {
			return nil, err
		}
		out.Wallets = append(out.Wallets, *w)
	}

	out.Bookings, err = s.bookings.ListForParty(ctx, userID, studioIDs, 20)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) releaseAndRefund(ctx context.Context, tx *gorm.DB, b *domain.Booking) error {
	if _, err := s.slots.WithTx(tx).Release(ctx, b.ReservationToken); err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	_, err := s.ledger.WithTx(tx).Credit(ctx, wallet.Entry{
		Owner:     account.User(b.ClientID),
		Amount:    b.Price.Total(),
		Reason:    wallet.ReasonBookingRefund,
		Reference: bookingRef(b.ID),
	})
	return err
}

// canApprove: the studio owner always; the instructor for non-rental bookings.
func (s *Service) canApprove(ctx context.Context, b *domain.Booking, actorID int64) bool {
	if !b.IsRental() && actorID == b.InstructorID {
		return true
	}
	_, err := s.profiles.GetOwnedStudio(ctx, b.StudioID, actorID)
	return err == nil
}

func (s *Service) approverEvents(ctx context.Context, b *domain.Booking, t notification.Type, title, body string) []notification.Event {
	var events []notification.Event
	if !b.IsRental() {
		events = append(events, notification.NewEvent(t, b.InstructorID, title, body).ForBooking(b.ID))
	}
	if owner := s.studioOwner(ctx, b.StudioID); owner != 0 {
		events = append(events, notification.NewEvent(t, owner, title, body).ForBooking(b.ID))
	}
	return events
}

func (s *Service) studioOwner(ctx context.Context, studioID int64) int64 {
	studio, err := s.profiles.GetStudio(ctx, studioID)
	if err != nil {
		s.log.WithField("studio_id", studioID).WithError(err).Warn("studio owner lookup failed")
		return 0
	}
	return studio.OwnerID
}

type share struct {
	owner  account.Ref
	amount decimal.Decimal
}

// payees lists who is paid out of escrow on completion. The platform fee
// stays with the platform; a rental has no instructor payee because the
// instructor is the client.
func payees(b *domain.Booking) []share {
	var out []share
	if b.Price.StudioFee.IsPositive() {
		out = append(out, share{owner: account.Studio(b.StudioID), amount: b.Price.StudioFee})
	}
	if !b.IsRental() && b.Price.InstructorFee.IsPositive() {
		out = append(out, share{owner: account.User(b.InstructorID), amount: b.Price.InstructorFee})
	}
	return out
}

func bookingRef(id int64) string {
	return fmt.Sprintf("booking:%d", id)
}
