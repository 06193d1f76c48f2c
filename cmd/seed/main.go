package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"studiomarket/internal/config"
	"studiomarket/internal/database"
	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/inventory"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/pkg/jwt"
	"studiomarket/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("DB connection failed")
	}

	log.Info("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}

	// Cleanup old data, children first
	log.Info("Cleaning old data...")
	for _, table := range []string{
		"notifications", "reviews", "payout_requests", "wallet_movements", "wallets",
		"bookings", "slot_reservations", "slot_units", "slot_groups", "studio_late_cancellations", "studios", "profiles",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.WithError(err).WithField("table", table).Fatal("cleanup failed")
		}
	}

	profiles := profile.NewRepository(db)
	slots := inventory.NewRepository(db)
	ledger := wallet.NewLedger(db)
	tokens := jwt.NewIssuer(cfg.JWTSecret, 30*24*time.Hour)

	mustProfile := func(name string, role profile.Role, fee int64) *profile.Profile {
		p := &profile.Profile{Name: name, Role: role, SessionFee: decimal.NewFromInt(fee), PayoutApproved: true}
		if err := profiles.CreateProfile(ctx, p); err != nil {
			log.WithError(err).Fatal("create profile")
		}
		return p
	}

	// ================== PROFILES ==================
	log.Info("Creating profiles...")
	all := []*profile.Profile{mustProfile("Admin", profile.RoleAdmin, 0)}

	customers := make([]*profile.Profile, 0, 3)
	for i := 1; i <= 3; i++ {
		c := mustProfile(fmt.Sprintf("Customer %d", i), profile.RoleCustomer, 0)
		customers = append(customers, c)
		all = append(all, c)
	}
	for i := 1; i <= 2; i++ {
		all = append(all, mustProfile(fmt.Sprintf("Instructor %d", i), profile.RoleInstructor, 200+int64(rng.Intn(4))*50))
	}

	// ================== STUDIOS ==================
	log.Info("Creating studios and slots...")
	equipment := []inventory.EquipmentType{
		inventory.EquipmentReformer, inventory.EquipmentCadillac, inventory.EquipmentChair, inventory.EquipmentMat,
	}
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	for i := 1; i <= 2; i++ {
		owner := mustProfile(fmt.Sprintf("Owner %d", i), profile.RoleStudioOwner, 0)
		all = append(all, owner)

		studio := &profile.Studio{OwnerID: owner.ID, Name: fmt.Sprintf("Pilates Studio %d", i), PayoutApproved: true}
		if err := profiles.CreateStudio(ctx, studio); err != nil {
			log.WithError(err).Fatal("create studio")
		}

		for d := 0; d < 7; d++ {
			for _, hour := range []int{8, 10, 18} {
				start := day.AddDate(0, 0, d).Add(time.Duration(hour) * time.Hour)
				g := &inventory.SlotGroup{StudioID: studio.ID, StartTime: start, EndTime: start.Add(time.Hour)}
				for _, t := range equipment[:2+rng.Intn(len(equipment)-1)] {
					g.Units = append(g.Units, inventory.SlotUnit{
						EquipmentType: t,
						Capacity:      1 + rng.Intn(4),
						UnitPrice:     decimal.NewFromInt(300 + int64(rng.Intn(5))*50),
					})
				}
				if err := slots.CreateGroup(ctx, g); err != nil {
					log.WithError(err).Fatal("create slot group")
				}
			}
		}
	}

	// ================== WALLETS ==================
	log.Info("Funding customer wallets...")
	for _, c := range customers {
		if _, err := ledger.Credit(ctx, wallet.Entry{
			Owner:     account.User(c.ID),
			Amount:    decimal.NewFromInt(5000),
			Reason:    wallet.ReasonAdminAdjustment,
			Reference: "seed",
		}); err != nil {
			log.WithError(err).Fatal("fund wallet")
		}
	}

	// Dev tokens, since identity lives outside this service
	for _, p := range all {
		token, err := tokens.Issue(p.ID, string(p.Role))
		if err != nil {
			log.WithError(err).Fatal("issue token")
		}
		fmt.Printf("%-14s id=%-3d role=%-13s token=%s\n", p.Name, p.ID, p.Role, token)
	}
	log.Info("Seeding completed")
}
