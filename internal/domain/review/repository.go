package review

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/pkg/dberr"
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
	ID           int64     `gorm:"column:id;primaryKey"`
	BookingID    int64     `gorm:"column:booking_id;not null;uniqueIndex:idx_review_once,priority:1"`
	ReviewerID   int64     `gorm:"column:reviewer_id;not null;uniqueIndex:idx_review_once,priority:2"`
	RevieweeKind string    `gorm:"column:reviewee_kind;type:varchar(16);not null;uniqueIndex:idx_review_once,priority:3;index:idx_review_target,priority:1"`
	RevieweeID   int64     `gorm:"column:reviewee_id;not null;uniqueIndex:idx_review_once,priority:4;index:idx_review_target,priority:2"`
	Rating       int       `gorm:"column:rating;not null"`
	Comment      *string   `gorm:"column:comment"`
	Tags         []string  `gorm:"column:tags;serializer:json"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (Model) TableName() string { return "reviews" }

func toDomainReview(m Model) Review {
	comment := ""
	if m.Comment != nil {
		comment = *m.Comment
	}
	return Review{
		ID:         m.ID,
		BookingID:  m.BookingID,
		ReviewerID: m.ReviewerID,
		Reviewee:   account.Ref{Kind: account.Kind(m.RevieweeKind), ID: m.RevieweeID},
		Rating:     m.Rating,
		Comment:    comment,
		Tags:       m.Tags,
		CreatedAt:  m.CreatedAt,
	}
}

func toReviewModel(rv *Review) Model {
	var comment *string
	if rv.Comment != "" {
		v := rv.Comment
		comment = &v
	}
	return Model{
		ID:           rv.ID,
		BookingID:    rv.BookingID,
		ReviewerID:   rv.ReviewerID,
		RevieweeKind: string(rv.Reviewee.Kind),
		RevieweeID:   rv.Reviewee.ID,
		Rating:       rv.Rating,
		Comment:      comment,
		Tags:         rv.Tags,
		CreatedAt:    rv.CreatedAt,
	}
}

// Create inserts the review. A second review of the same reviewee by the same
// reviewer for the same booking fails with ErrAlreadyReviewed.
func (r *Repository) Create(ctx context.Context, rv *Review) error {
	if rv.Rating < 1 || rv.Rating > 5 {
		return ErrInvalidRating
	}
	m := toReviewModel(rv)
	err := r.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(&m).Error
	})
	if dberr.IsUniqueViolation(err) {
		return ErrAlreadyReviewed
	}
	if err != nil {
		return err
	}
	*rv = toDomainReview(m)
	return nil
}

type listedRow struct {
	Model
	Corroborated bool `gorm:"column:corroborated"`
}

// ListForReviewee returns every stored review of the reviewee, newest first,
// with the corroboration flag computed at query time.
func (r *Repository) ListForReviewee(ctx context.Context, reviewee account.Ref) ([]Listed, error) {
	var rows []listedRow
	err := r.db.WithContext(ctx).
		Table("reviews AS r").
		Select(`r.*, EXISTS (
			SELECT 1 FROM reviews o
			WHERE o.booking_id = r.booking_id AND o.reviewer_id <> r.reviewer_id
		) AS corroborated`).
		Where("r.reviewee_kind = ? AND r.reviewee_id = ?", string(reviewee.Kind), reviewee.ID).
		Order("r.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Listed, 0, len(rows))
	for _, row := range rows {
		out = append(out, Listed{Review: toDomainReview(row.Model), Corroborated: row.Corroborated})
	}
	return out, nil
}
