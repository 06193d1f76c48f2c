package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Model is the storage row. Exported for migrations only.
type Model struct {
	ID               int64     `gorm:"column:id;primaryKey"`
	ClientID         int64     `gorm:"column:client_id;not null;index"`
	InstructorID     int64     `gorm:"column:instructor_id;not null;index"`
	StudioID         int64     `gorm:"column:studio_id;not null;index"`
	SlotGroupID      int64     `gorm:"column:slot_group_id;not null;index"`
	SlotUnitID       int64     `gorm:"column:slot_unit_id;not null"`
	ReservationToken uuid.UUID `gorm:"column:reservation_token;type:uuid;not null"`
	EquipmentType    string    `gorm:"column:equipment_type;type:varchar(32);not null"`
	Quantity         int       `gorm:"column:quantity;not null"`
	SlotStart        time.Time `gorm:"column:slot_start;not null"`
	SlotEnd          time.Time `gorm:"column:slot_end;not null;index"`
	Status           string    `gorm:"column:status;type:varchar(32);not null;index"`
	PaymentStatus    string    `gorm:"column:payment_status;type:varchar(16);not null"`
	PaymentProofRef  *string   `gorm:"column:payment_proof_ref"`

	StudioFee        decimal.Decimal `gorm:"column:studio_fee;type:numeric(14,2);not null"`
	InstructorFee    decimal.Decimal `gorm:"column:instructor_fee;type:numeric(14,2);not null"`
	PlatformFee      decimal.Decimal `gorm:"column:platform_fee;type:numeric(14,2);not null"`
	PenaltyAmount    decimal.Decimal `gorm:"column:penalty_amount;type:numeric(14,2);not null;default:0"`
	PenaltyProcessed bool            `gorm:"column:penalty_processed;not null;default:false"`
	RefundInitiator  string          `gorm:"column:refund_initiator;type:varchar(16);not null;default:''"`

	ExpiresAt     time.Time  `gorm:"column:expires_at;not null;index"`
	CompletedAt   *time.Time `gorm:"column:completed_at;index"`
	CancelledAt   *time.Time `gorm:"column:cancelled_at"`
	StatusReason  *string    `gorm:"column:status_reason"`
	FundsUnlocked bool       `gorm:"column:funds_unlocked;not null;default:false"`

	CustomerReviewed   bool `gorm:"column:customer_reviewed;not null;default:false"`
	InstructorReviewed bool `gorm:"column:instructor_reviewed;not null;default:false"`
	StudioReviewed     bool `gorm:"column:studio_reviewed;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Model) TableName() string { return "bookings" }

func toDomainBooking(m Model) *Booking {
	return &Booking{
		ID:               m.ID,
		ClientID:         m.ClientID,
		InstructorID:     m.InstructorID,
		StudioID:         m.StudioID,
		SlotGroupID:      m.SlotGroupID,
		SlotUnitID:       m.SlotUnitID,
		ReservationToken: m.ReservationToken,
		EquipmentType:    m.EquipmentType,
		Quantity:         m.Quantity,
		SlotStart:        m.SlotStart,
		SlotEnd:          m.SlotEnd,
		Status:           Status(m.Status),
		PaymentStatus:    PaymentStatus(m.PaymentStatus),
		PaymentProofRef:  deref(m.PaymentProofRef),
		Price: PriceBreakdown{
			StudioFee:        m.StudioFee,
			InstructorFee:    m.InstructorFee,
			PlatformFee:      m.PlatformFee,
			PenaltyAmount:    m.PenaltyAmount,
			PenaltyProcessed: m.PenaltyProcessed,
			RefundInitiator:  RefundInitiator(m.RefundInitiator),
		},
		ExpiresAt:          m.ExpiresAt,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		StatusReason:       deref(m.StatusReason),
		FundsUnlocked:      m.FundsUnlocked,
		CustomerReviewed:   m.CustomerReviewed,
		InstructorReviewed: m.InstructorReviewed,
		StudioReviewed:     m.StudioReviewed,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *Booking) Model {
	return Model{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		InstructorID:       b.InstructorID,
		StudioID:           b.StudioID,
		SlotGroupID:        b.SlotGroupID,
		SlotUnitID:         b.SlotUnitID,
		ReservationToken:   b.ReservationToken,
		EquipmentType:      b.EquipmentType,
		Quantity:           b.Quantity,
		SlotStart:          b.SlotStart,
		SlotEnd:            b.SlotEnd,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		PaymentProofRef:    ptr(b.PaymentProofRef),
		StudioFee:          b.Price.StudioFee,
		InstructorFee:      b.Price.InstructorFee,
		PlatformFee:        b.Price.PlatformFee,
		PenaltyAmount:      b.Price.PenaltyAmount,
		PenaltyProcessed:   b.Price.PenaltyProcessed,
		RefundInitiator:    string(b.Price.RefundInitiator),
		ExpiresAt:          b.ExpiresAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		StatusReason:       ptr(b.StatusReason),
		FundsUnlocked:      b.FundsUnlocked,
		CustomerReviewed:   b.CustomerReviewed,
		InstructorReviewed: b.InstructorReviewed,
		StudioReviewed:     b.StudioReviewed,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (r *Repository) Create(ctx context.Context, b *Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	b.ID = m.ID
	b.CreatedAt = m.CreatedAt
	b.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var m Model
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainBooking(m), nil
}

// Guard is the precondition of a compare-and-swap transition. Zero fields
// are not checked.
type Guard struct {
	Status           Status
	PaymentStatus    PaymentStatus
	ExpiresAfter     time.Time
	ExpiredBy        time.Time
	SlotEndedBy      time.Time
	CompletedBy      time.Time
	FundsNotUnlocked bool
}

// Transition applies updates only if the row still satisfies guard and
// reports whether it did. A false result means another caller got there
// first; the caller decides whether that is an error or a no-op.
func (r *Repository) Transition(ctx context.Context, id int64, guard Guard, updates map[string]any, now time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&Model{}).Where("id = ?", id)
	if guard.Status != "" {
		q = q.Where("status = ?", string(guard.Status))
	}
	if guard.PaymentStatus != "" {
		q = q.Where("payment_status = ?", string(guard.PaymentStatus))
	}
	if !guard.ExpiresAfter.IsZero() {
		q = q.Where("expires_at > ?", guard.ExpiresAfter)
	}
	if !guard.ExpiredBy.IsZero() {
		q = q.Where("expires_at <= ?", guard.ExpiredBy)
	}
	if !guard.SlotEndedBy.IsZero() {
		q = q.Where("slot_end <= ?", guard.SlotEndedBy)
	}
	if !guard.CompletedBy.IsZero() {
		q = q.Where("completed_at <= ?", guard.CompletedBy)
	}
	if guard.FundsNotUnlocked {
		q = q.Where("funds_unlocked = ?", false)
	}

	updates["updated_at"] = now
	result := q.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindExpiredPending lists unsubmitted pending bookings whose payment window closed.
func (r *Repository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&Model{}).
		Where("status = ? AND payment_status = ? AND expires_at <= ?", string(StatusPending), string(PaymentUnpaid), now).
		Order("expires_at asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// FindCompletable lists approved bookings whose session is over.
func (r *Repository) FindCompletable(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&Model{}).
		Where("status = ? AND slot_end <= ?", string(StatusApproved), now).
		Order("slot_end asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// FindUnlockable lists completed bookings whose security hold has matured.
func (r *Repository) FindUnlockable(ctx context.Context, completedBefore time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&Model{}).
		Where("status = ? AND funds_unlocked = ? AND completed_at <= ?", string(StatusCompleted), false, completedBefore).
		Order("completed_at asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ListForParty returns bookings where userID is client or instructor, or
// where the studio is one of studioIDs.
func (r *Repository) ListForParty(ctx context.Context, userID int64, studioIDs []int64, limit int) ([]Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Model(&Model{})
	if len(studioIDs) > 0 {
		q = q.Where("client_id = ? OR instructor_id = ? OR studio_id IN ?", userID, userID, studioIDs)
	} else {
		q = q.Where("client_id = ? OR instructor_id = ?", userID, userID)
	}

	var rows []Model
	if err := q.Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// MarkReviewed sets one of the per-party review flags.
func (r *Repository) MarkReviewed(ctx context.Context, id int64, flag string) error {
	switch flag {
	case "customer_reviewed", "instructor_reviewed", "studio_reviewed":
	default:
		return errors.New("unknown review flag: " + flag)
	}
	return r.db.WithContext(ctx).Model(&Model{}).Where("id = ?", id).Update(flag, true).Error
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
