package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is the in-app inbox row.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	Type      Type       `gorm:"type:varchar(48);not null" json:"type"`
	Title     string     `gorm:"not null" json:"title"`
	Body      string     `json:"body,omitempty"`
	BookingID *int64     `gorm:"index" json:"booking_id,omitempty"`
	Data      string     `gorm:"type:text" json:"-"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Store persists events to the inbox.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "inbox" }

func (s *Store) Send(ctx context.Context, e Event) error {
	data := ""
	if len(e.Data) > 0 {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return err
		}
		data = string(raw)
	}
	return s.db.WithContext(ctx).Create(&Notification{
		ID:        e.ID,
		UserID:    e.UserID,
		Type:      e.Type,
		Title:     e.Title,
		Body:      e.Body,
		BookingID: e.BookingID,
		Data:      data,
		CreatedAt: e.CreatedAt,
	}).Error
}

func (s *Store) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var items []Notification
	err := q.Order("created_at desc").Limit(limit).Find(&items).Error
	return items, err
}

func (s *Store) MarkRead(ctx context.Context, userID int64, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", time.Now().UTC()).Error
}
