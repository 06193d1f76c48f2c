package payout

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"studiomarket/internal/domain/account"
)

var ErrNotFound = errors.New("payout request not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, p *Request) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	var p Request
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListByOwners(ctx context.Context, owners []account.Ref, limit int) ([]Request, error) {
	if len(owners) == 0 {
		return []Request{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&Request{})
	cond := r.db.Where("owner_kind = ? AND owner_id = ?", owners[0].Kind, owners[0].ID)
	for _, o := range owners[1:] {
		cond = cond.Or("owner_kind = ? AND owner_id = ?", o.Kind, o.ID)
	}

	var out []Request
	err := q.Where(cond).Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// Transition moves a request out of one of the from statuses. It reports
// false when the request is no longer in any of them.
func (r *Repository) Transition(ctx context.Context, id int64, from []Status, to Status, adminID int64, note string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":       to,
		"processed_by": adminID,
		"processed_at": at,
		"updated_at":   at,
	}
	if note != "" {
		updates["note"] = note
	}
	result := r.db.WithContext(ctx).Model(&Request{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}
