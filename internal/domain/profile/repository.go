package profile

import (
	"context"
	"errors"
	"time"

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

func (r *Repository) CreateProfile(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreateStudio(ctx context.Context, s *Studio) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) GetStudio(ctx context.Context, id int64) (*Studio, error) {
	var s Studio
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudioNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetOwnedStudio returns the studio only when userID owns it.
func (r *Repository) GetOwnedStudio(ctx context.Context, studioID, userID int64) (*Studio, error) {
	s, err := r.GetStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if s.OwnerID != userID {
		return nil, ErrNotStudioOwner
	}
	return s, nil
}

func (r *Repository) StudioIDsOwnedBy(ctx context.Context, ownerID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&Studio{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error
	return ids, err
}

// RecordLateCancellation stores the event and returns how many late
// cancellations the studio has accumulated within the trailing period.
func (r *Repository) RecordLateCancellation(ctx context.Context, studioID, bookingID int64, at time.Time, period time.Duration) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Create(&LateCancellation{StudioID: studioID, BookingID: bookingID, CreatedAt: at}).Error; err != nil {
		return 0, err
	}

	var count int64
	err := db.Model(&LateCancellation{}).
		Where("studio_id = ? AND created_at > ?", studioID, at.Add(-period)).
		Count(&count).Error
	return count, err
}

// SuspendStudio is a no-op for an already suspended studio and reports
// whether this call applied the suspension.
func (r *Repository) SuspendStudio(ctx context.Context, studioID int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Studio{}).
		Where("id = ? AND suspended_at IS NULL", studioID).
		Updates(map[string]any{"suspended_at": at, "updated_at": at})
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) ListStudiosByOwner(ctx context.Context, ownerID int64) ([]Studio, error) {
	var out []Studio
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id asc").Find(&out).Error
	return out, err
}

// UpdateProfile writes the given columns and returns the fresh row.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, updates map[string]any) (*Profile, error) {
	res := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return r.GetProfile(ctx, id)
}

func (r *Repository) UpdateStudio(ctx context.Context, id int64, updates map[string]any) (*Studio, error) {
	res := r.db.WithContext(ctx).Model(&Studio{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStudioNotFound
	}
	return r.GetStudio(ctx, id)
}
