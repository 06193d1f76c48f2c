// Package app wires repositories, services and HTTP routes into one server.
package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"studiomarket/internal/config"
	"studiomarket/internal/database"
	bookingdomain "studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/earnings"
	inventorydomain "studiomarket/internal/domain/inventory"
	payoutdomain "studiomarket/internal/domain/payout"
	"studiomarket/internal/domain/profile"
	reviewdomain "studiomarket/internal/domain/review"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/middleware"
	"studiomarket/internal/modules/booking"
	"studiomarket/internal/modules/inventory"
	"studiomarket/internal/modules/maintenance"
	"studiomarket/internal/modules/payout"
	"studiomarket/internal/modules/review"
	wallethttp "studiomarket/internal/modules/wallet"
	"studiomarket/internal/notification"
	"studiomarket/internal/pkg/jwt"
	"studiomarket/internal/pkg/logger"
)

type App struct {
	Router     *gin.Engine
	DB         *gorm.DB
	JWT        *jwt.Verifier
	Bookings   *booking.Service
	Reviews    *review.Service
	Payouts    *payout.Service
	Runner     *maintenance.Runner
	Scheduler  *maintenance.Scheduler
	Dispatcher *notification.Dispatcher
	Hub        *notification.Hub

	cfg           *config.Config
	log           *logrus.Logger
	publisher     *notification.Publisher
	reporting     *sqlx.DB
	ownsReporting bool
}

// New builds the application on an already migrated database.
func New(cfg *config.Config, db *gorm.DB, log *logrus.Logger) (*App, error) {
	log = logger.OrDiscard(log)
	a := &App{DB: db, cfg: cfg, log: log}

	reporting, err := database.OpenReporting(cfg.DatabaseURL, db)
	if err != nil {
		return nil, err
	}
	a.reporting = reporting
	a.ownsReporting = database.IsPostgres(cfg.DatabaseURL)

	// Notification sinks
	store := notification.NewStore(db)
	a.Hub = notification.NewHub()
	sinks := []notification.Sink{store, a.Hub}
	if cfg.AMQPURL != "" {
		pub, err := notification.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Warn("amqp publisher unavailable, continuing without it")
		} else {
			a.publisher = pub
			sinks = append(sinks, pub)
		}
	}
	a.Dispatcher = notification.NewDispatcher(log, sinks...)

	// Repositories
	profiles := profile.NewRepository(db)
	ledger := wallet.NewLedger(db)
	slots := inventorydomain.NewRepository(db)
	bookings := bookingdomain.NewRepository(db)
	reviews := reviewdomain.NewRepository(db)
	payouts := payoutdomain.NewRepository(db)
	report := earnings.NewRepository(reporting)

	// Services
	a.JWT = jwt.NewVerifier(cfg.JWTSecret)
	a.Bookings = booking.NewService(db, bookings, slots, ledger, profiles, a.Dispatcher, log, booking.Config{
		PaymentWindow:          cfg.PaymentWindow,
		CancellationWindow:     cfg.CancellationWindow,
		SecurityHold:           cfg.SecurityHold,
		PlatformFeeRate:        cfg.FeeRate(),
		PlatformFeeMin:         cfg.FeeMin(),
		StudioLateCancelLimit:  cfg.StudioLateCancelLimit,
		StudioLateCancelPeriod: cfg.StudioLateCancelPeriod,
	})
	a.Reviews = review.NewService(db, reviews, bookings, profiles, a.Dispatcher, log, cfg.ReviewBlindWindow)
	a.Payouts = payout.NewService(db, payouts, ledger, profiles, a.Dispatcher, log)
	a.Runner = maintenance.NewRunner(a.Bookings, log, cfg.SweepOnReadThrottle)
	a.Scheduler = maintenance.NewScheduler(a.Runner, cfg.SweepInterval)

	// Router
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger(log), middleware.CORS(cfg.CORSAllowedOrigins))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	protected := v1.Group("", middleware.JWTAuth(a.JWT))
	admin := protected.Group("/admin", middleware.AdminOnly())
	internal := v1.Group("/internal", middleware.InternalToken(cfg.InternalToken, log))

	booking.NewHandler(a.Bookings).RegisterRoutes(protected, a.Runner.TriggerOnRead())
	inventory.NewHandler(slots, profiles).RegisterRoutes(v1, protected)
	wallethttp.NewHandler(ledger, profiles, log).RegisterRoutes(protected, admin)
	review.NewHandler(a.Reviews).RegisterRoutes(v1, protected)
	payout.NewHandler(a.Payouts).RegisterRoutes(protected, admin)
	earnings.NewHandler(report, profiles).RegisterRoutes(protected)
	maintenance.NewHandler(a.Runner).RegisterRoutes(internal)

	profileService := profile.NewService(profiles)
	profile.RegisterRoutes(protected, admin, profile.NewHandler(profileService), profile.NewAdminHandler(profileService, log))

	notifications := notification.NewHandler(store, a.Hub, a.JWT, log, cfg.CORSAllowedOrigins)
	notifications.RegisterRoutes(protected)
	notifications.RegisterSocket(v1)

	a.Router = r
	return a, nil
}

// Start launches background work. The scheduler only runs when enabled.
func (a *App) Start(ctx context.Context) {
	if a.cfg.SchedulerEnabled {
		a.Scheduler.Start(ctx)
	}
}

// Close stops background work and flushes pending notifications.
func (a *App) Close() {
	a.Scheduler.Stop()
	a.Dispatcher.Wait()
	a.Hub.Close()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("close amqp publisher")
		}
	}
	if a.ownsReporting {
		_ = a.reporting.Close()
	}
}
