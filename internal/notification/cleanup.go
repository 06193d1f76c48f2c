package notification

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"studiomarket/internal/pkg/logger"
)

// Cleanup trims the inbox. Read notifications go after readRetention,
// everything goes after retention.
type Cleanup struct {
	store         *Store
	log           *logrus.Logger
	retention     time.Duration
	readRetention time.Duration
	now           func() time.Time
}

func NewCleanup(store *Store, log *logrus.Logger, retention, readRetention time.Duration) *Cleanup {
	return &Cleanup{
		store:         store,
		log:           logger.OrDiscard(log),
		retention:     retention,
		readRetention: readRetention,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (c *Cleanup) Run(ctx context.Context) (int64, error) {
	start := c.now()

	read, err := c.store.deleteOlderThan(ctx, start.Add(-c.readRetention), true)
	if err != nil {
		return 0, err
	}
	all, err := c.store.deleteOlderThan(ctx, start.Add(-c.retention), false)
	if err != nil {
		return read, err
	}

	c.log.WithFields(logrus.Fields{
		"read_deleted": read,
		"old_deleted":  all,
		"took":         time.Since(start).String(),
	}).Info("notification cleanup completed")
	return read + all, nil
}

func (s *Store) deleteOlderThan(ctx context.Context, cutoff time.Time, readOnly bool) (int64, error) {
	q := s.db.WithContext(ctx).Where("created_at < ?", cutoff)
	if readOnly {
		q = q.Where("read_at IS NOT NULL")
	}
	res := q.Delete(&Notification{})
	return res.RowsAffected, res.Error
}
