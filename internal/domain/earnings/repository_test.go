package earnings

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/wallet"
)

func setupReport(t *testing.T) (*gorm.DB, *Repository) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:earnings_test_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&booking.Model{}, &wallet.Wallet{}, &wallet.Movement{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	return db, NewRepository(sqlx.NewDb(sqlDB, "sqlite3"))
}

func seedBooking(t *testing.T, repo *booking.Repository, clientID, instructorID, studioID int64, status booking.Status, unlocked bool) {
	t.Helper()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	b := &booking.Booking{
		ClientID: clientID, InstructorID: instructorID, StudioID: studioID,
		SlotGroupID: 1, SlotUnitID: 1, ReservationToken: uuid.New(),
		EquipmentType: "reformer", Quantity: 1,
		SlotStart: now, SlotEnd: now.Add(time.Hour),
		Status: status, PaymentStatus: booking.PaymentSubmitted,
		Price: booking.PriceBreakdown{
			StudioFee:     decimal.NewFromInt(500),
			InstructorFee: decimal.NewFromInt(300),
			PlatformFee:   decimal.NewFromInt(160),
		},
		ExpiresAt:     now,
		FundsUnlocked: unlocked,
	}
	require.NoError(t, repo.Create(context.Background(), b))
}

func TestSummary(t *testing.T) {
	db, report := setupReport(t)
	ctx := context.Background()
	bookings := booking.NewRepository(db)
	ledger := wallet.NewLedger(db)

	seedBooking(t, bookings, 1, 2, 7, booking.StatusCompleted, true)
	seedBooking(t, bookings, 1, 2, 7, booking.StatusCompleted, false)
	seedBooking(t, bookings, 1, 2, 7, booking.StatusApproved, false)
	// Rental: the instructor booked for themself and earns nothing.
	seedBooking(t, bookings, 2, 2, 7, booking.StatusCompleted, false)

	_, err := ledger.Debit(ctx, wallet.Entry{Owner: account.User(2), Amount: decimal.NewFromInt(500), Reason: wallet.ReasonPenaltyDebit})
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, wallet.Entry{Owner: account.Studio(7), Amount: decimal.NewFromInt(500), Reason: wallet.ReasonPenaltyCredit})
	require.NoError(t, err)
	_, err = ledger.HoldToPending(ctx, wallet.Entry{Owner: account.Studio(7), Amount: decimal.NewFromInt(500), Reason: wallet.ReasonSessionEarning})
	require.NoError(t, err)

	instructor, err := report.Summary(ctx, account.User(2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), instructor.CompletedSessions)
	assert.True(t, decimal.NewFromInt(600).Equal(instructor.GrossEarned))
	assert.True(t, decimal.NewFromInt(300).Equal(instructor.UnlockedEarned))
	assert.True(t, decimal.NewFromInt(500).Equal(instructor.PenaltiesPaid))
	assert.True(t, instructor.PenaltiesReceived.IsZero())

	studio, err := report.Summary(ctx, account.Studio(7))
	require.NoError(t, err)
	assert.Equal(t, int64(3), studio.CompletedSessions)
	assert.True(t, decimal.NewFromInt(1500).Equal(studio.GrossEarned))
	assert.True(t, decimal.NewFromInt(500).Equal(studio.PendingHold))
	assert.True(t, decimal.NewFromInt(500).Equal(studio.PenaltiesReceived))
}

func TestSummary_EmptyAccount(t *testing.T) {
	_, report := setupReport(t)

	s, err := report.Summary(context.Background(), account.User(42))
	require.NoError(t, err)
	assert.Zero(t, s.CompletedSessions)
	assert.True(t, s.GrossEarned.IsZero())
	assert.True(t, s.PendingHold.IsZero())
}
