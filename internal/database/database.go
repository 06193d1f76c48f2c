package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/inventory"
	"studiomarket/internal/domain/payout"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/domain/review"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/notification"
	"studiomarket/internal/pkg/logger"
)

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Connect opens postgres for postgres:// DSNs and sqlite for anything else.
// Timestamps are always written in UTC.
func Connect(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	log = logger.OrDiscard(log)
	cfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	if IsPostgres(dsn) {
		log.Info("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.WithField("dsn", dsn).Info("using SQLite for local development")
	db, err := gorm.Open(gormsqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY under load.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Models lists every table owned by the service.
func Models() []any {
	return []any{
		&profile.Profile{},
		&profile.Studio{},
		&profile.LateCancellation{},
		&wallet.Wallet{},
		&wallet.Movement{},
		&inventory.SlotGroup{},
		&inventory.SlotUnit{},
		&inventory.Reservation{},
		&booking.Model{},
		&review.Model{},
		&payout.Request{},
		&notification.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// OpenReporting returns a sqlx handle for read-only reporting queries. On
// postgres it gets its own lib/pq pool; on sqlite it shares gorm's connection.
func OpenReporting(dsn string, db *gorm.DB) (*sqlx.DB, error) {
	if IsPostgres(dsn) {
		return sqlx.Open("postgres", dsn)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}
