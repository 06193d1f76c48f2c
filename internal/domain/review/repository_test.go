package review

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studiomarket/internal/domain/account"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:review_test_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Model{}))
	return db
}

func TestRepository_CreateOncePerReviewee(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	first := &Review{BookingID: 1, ReviewerID: 10, Reviewee: account.Studio(3), Rating: 5, Tags: []string{"clean", "friendly"}}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	dup := &Review{BookingID: 1, ReviewerID: 10, Reviewee: account.Studio(3), Rating: 1}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrAlreadyReviewed)

	// Same reviewer, different reviewee on the same booking is allowed.
	other := &Review{BookingID: 1, ReviewerID: 10, Reviewee: account.User(20), Rating: 4}
	require.NoError(t, repo.Create(ctx, other))

	assert.ErrorIs(t, repo.Create(ctx, &Review{BookingID: 2, ReviewerID: 10, Reviewee: account.User(20), Rating: 6}), ErrInvalidRating)
}

func TestRepository_ListForRevieweeCorroboration(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &Review{BookingID: 1, ReviewerID: 10, Reviewee: account.User(20), Rating: 4, Comment: "solid", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &Review{BookingID: 2, ReviewerID: 11, Reviewee: account.User(20), Rating: 2, CreatedAt: now.Add(time.Minute)}))
	// Booking 1's other side reviews back.
	require.NoError(t, repo.Create(ctx, &Review{BookingID: 1, ReviewerID: 20, Reviewee: account.User(10), Rating: 5, CreatedAt: now}))

	items, err := repo.ListForReviewee(ctx, account.User(20))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, int64(2), items[0].BookingID)
	assert.False(t, items[0].Corroborated)
	assert.Equal(t, int64(1), items[1].BookingID)
	assert.True(t, items[1].Corroborated)
	assert.Equal(t, "solid", items[1].Comment)
}

func TestListed_VisibleAt(t *testing.T) {
	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	l := Listed{Review: Review{CreatedAt: created}}

	assert.False(t, l.VisibleAt(created.Add(47*time.Hour), 48*time.Hour))
	assert.False(t, l.VisibleAt(created.Add(48*time.Hour), 48*time.Hour))
	assert.True(t, l.VisibleAt(created.Add(48*time.Hour+time.Second), 48*time.Hour))

	l.Corroborated = true
	assert.True(t, l.VisibleAt(created, 48*time.Hour))
}
