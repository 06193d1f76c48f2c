package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("slot not found")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidWindow        = errors.New("slot end must be after start")
	ErrInvalidUnit          = errors.New("slot unit needs positive capacity, non-negative price and a unique equipment type")
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

func (r *Repository) CreateGroup(ctx context.Context, g *SlotGroup) error {
	if !g.EndTime.After(g.StartTime) {
		return ErrInvalidWindow
	}
	seen := make(map[EquipmentType]bool, len(g.Units))
	for _, u := range g.Units {
		if u.Capacity <= 0 || u.UnitPrice.IsNegative() || u.EquipmentType == "" || seen[u.EquipmentType] {
			return ErrInvalidUnit
		}
		seen[u.EquipmentType] = true
	}
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *Repository) GetGroup(ctx context.Context, id int64) (*SlotGroup, error) {
	var g SlotGroup
	err := r.db.WithContext(ctx).Preload("Units").First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) ListByStudio(ctx context.Context, studioID int64, from time.Time) ([]SlotGroup, error) {
	var groups []SlotGroup
	err := r.db.WithContext(ctx).
		Preload("Units").
		Where("studio_id = ? AND start_time >= ?", studioID, from).
		Order("start_time asc").
		Find(&groups).Error
	return groups, err
}

// Reserve claims quantity units with a single conditional increment, so of
// two concurrent attempts for the last unit exactly one succeeds.
func (r *Repository) Reserve(ctx context.Context, unitID int64, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var res Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SlotUnit{}).
			Where("id = ? AND reserved + ? <= capacity", unitID, quantity).
			Update("reserved", gorm.Expr("reserved + ?", quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientCapacity
		}

		res = Reservation{SlotUnitID: unitID, Quantity: quantity}
		return tx.Create(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Release returns the reserved units. Releasing an already released token is
// a no-op and reports false.
func (r *Repository) Release(ctx context.Context, token uuid.UUID) (bool, error) {
	released := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res Reservation
		if err := tx.First(&res, "token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		result := tx.Model(&Reservation{}).
			Where("token = ? AND released_at IS NULL", token).
			Update("released_at", tx.NowFunc())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&SlotUnit{}).
			Where("id = ? AND reserved >= ?", res.SlotUnitID, res.Quantity).
			Update("reserved", gorm.Expr("reserved - ?", res.Quantity)).Error; err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}
