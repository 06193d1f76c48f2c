package notification

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:notification_test_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Notification{}))
	return NewStore(db)
}

func TestStoreSendListMarkRead(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	e := NewEvent(TypeBookingApproved, 7, "Booking approved", "See you there").ForBooking(3).With("studio", "Core Loft")
	require.NoError(t, store.Send(ctx, e))
	require.NoError(t, store.Send(ctx, NewEvent(TypeBookingApproved, 8, "Other user", "")))

	items, err := store.List(ctx, 7, false, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Booking approved", items[0].Title)
	assert.Equal(t, int64(3), *items[0].BookingID)
	assert.Contains(t, items[0].Data, "Core Loft")

	require.NoError(t, store.MarkRead(ctx, 7, e.ID))

	unread, err := store.List(ctx, 7, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
