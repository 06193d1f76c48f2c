// Command maintenance runs one expiry/completion/unlock pass, trims the
// notification inbox and exits.
// It is meant for cron when the in-process scheduler is disabled.
package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"studiomarket/internal/config"
	"studiomarket/internal/database"
	bookingdomain "studiomarket/internal/domain/booking"
	"studiomarket/internal/domain/inventory"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/modules/booking"
	"studiomarket/internal/modules/maintenance"
	"studiomarket/internal/notification"
	"studiomarket/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}

	store := notification.NewStore(db)
	sinks := []notification.Sink{store}
	if cfg.AMQPURL != "" {
		pub, err := notification.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Warn("amqp publisher unavailable")
		} else {
			defer pub.Close()
			sinks = append(sinks, pub)
		}
	}
	dispatcher := notification.NewDispatcher(log, sinks...)

	svc := booking.NewService(
		db,
		bookingdomain.NewRepository(db),
		inventory.NewRepository(db),
		wallet.NewLedger(db),
		profile.NewRepository(db),
		dispatcher,
		log,
		booking.Config{
			PaymentWindow:          cfg.PaymentWindow,
			CancellationWindow:     cfg.CancellationWindow,
			SecurityHold:           cfg.SecurityHold,
			PlatformFeeRate:        cfg.FeeRate(),
			PlatformFeeMin:         cfg.FeeMin(),
			StudioLateCancelLimit:  cfg.StudioLateCancelLimit,
			StudioLateCancelPeriod: cfg.StudioLateCancelPeriod,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := maintenance.NewRunner(svc, log, 0).RunAll(ctx)
	dispatcher.Wait()
	if err != nil {
		log.WithError(err).Fatal("maintenance pass failed")
	}
	log.WithFields(logrus.Fields{
		"expired":   res.Expired,
		"completed": res.Completed,
		"unlocked":  res.Unlocked,
	}).Info("maintenance completed")

	if _, err := notification.NewCleanup(store, log, cfg.NotificationRetention, cfg.NotificationReadRetention).Run(ctx); err != nil {
		log.WithError(err).Fatal("notification cleanup failed")
	}
}
