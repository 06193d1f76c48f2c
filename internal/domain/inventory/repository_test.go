package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:inventory_test_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&SlotGroup{}, &SlotUnit{}, &Reservation{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return NewRepository(db)
}

func seedGroup(t *testing.T, repo *Repository, capacity int) *SlotGroup {
	t.Helper()
	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	g := &SlotGroup{
		StudioID:  1,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Units: []SlotUnit{
			{EquipmentType: EquipmentReformer, Capacity: capacity, UnitPrice: decimal.NewFromInt(500)},
		},
	}
	require.NoError(t, repo.CreateGroup(context.Background(), g))
	return g
}

func TestCreateGroupValidation(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	start := time.Now()

	err := repo.CreateGroup(ctx, &SlotGroup{StudioID: 1, StartTime: start, EndTime: start})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	err = repo.CreateGroup(ctx, &SlotGroup{
		StudioID: 1, StartTime: start, EndTime: start.Add(time.Hour),
		Units: []SlotUnit{
			{EquipmentType: EquipmentMat, Capacity: 2, UnitPrice: decimal.NewFromInt(10)},
			{EquipmentType: EquipmentMat, Capacity: 1, UnitPrice: decimal.NewFromInt(10)},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestReserveAndRelease(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	g := seedGroup(t, repo, 3)
	unit := g.Units[0]

	res, err := repo.Reserve(ctx, unit.ID, 2)
	require.NoError(t, err)

	got, err := repo.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	u, ok := got.Unit(EquipmentReformer)
	require.True(t, ok)
	assert.Equal(t, 2, u.Reserved)
	assert.Equal(t, 1, u.Remaining())

	_, err = repo.Reserve(ctx, unit.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	released, err := repo.Release(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.Release(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, released, "second release must be a no-op")

	got, err = repo.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Units[0].Reserved)
}

func TestReleaseUnknownToken(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Release(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveRejectsBadQuantity(t *testing.T) {
	repo := setupTestRepo(t)
	g := seedGroup(t, repo, 1)

	_, err := repo.Reserve(context.Background(), g.Units[0].ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestConcurrentReserveLastUnit(t *testing.T) {
	repo := setupTestRepo(t)
	g := seedGroup(t, repo, 1)
	unitID := g.Units[0].ID

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve(context.Background(), unitID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInsufficientCapacity):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	got, err := repo.GetGroup(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Units[0].Reserved)
}

func TestReservedNeverExceedsCapacity(t *testing.T) {
	repo := setupTestRepo(t)
	g := seedGroup(t, repo, 5)
	unitID := g.Units[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Reserve(context.Background(), unitID, 2)
		}()
	}
	wg.Wait()

	got, err := repo.GetGroup(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Units[0].Reserved)
	assert.LessOrEqual(t, got.Units[0].Reserved, got.Units[0].Capacity)
}
