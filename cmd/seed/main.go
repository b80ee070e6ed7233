package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/oggyb/sms-framework/internal/config"
	"github.com/oggyb/sms-framework/internal/db"
	"github.com/oggyb/sms-framework/internal/db/gormdb"
	"github.com/oggyb/sms-framework/internal/domain/user"
	messagegorm "github.com/oggyb/sms-framework/internal/repository/gorm/message"
	reportgorm "github.com/oggyb/sms-framework/internal/repository/gorm/report"
	usergorm "github.com/oggyb/sms-framework/internal/repository/gorm/user"
	verificationgorm "github.com/oggyb/sms-framework/internal/repository/gorm/verification"
)

var timezones = []string{"Europe/Istanbul", "Europe/London", "America/New_York", ""}

func main() {
	ctx := context.Background()

	// Load application configuration (DB, Redis, etc.) from env/.env.
	cfg := config.New()

	// Open a Postgres connection through our GORM adapter.
	gormAdapter, err := gormdb.New(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("[Seed] Failed to connect to database: %v", err)
	}

	log.Printf("[Seed] Connected to database %q", cfg.DB.Name)

	// 1) AutoMigrate every table the API uses.
	if err := migrate(gormAdapter); err != nil {
		log.Fatalf("[Seed] AutoMigrate failed: %v", err)
	}
	log.Println("[Seed] Tables are up to date (AutoMigrate completed).")

	// 2) Primitive seeding: upsert N users with random numbers so
	// verification and active hours have owners to work with.
	const seedCount = 20

	repo := usergorm.NewRepository(gormAdapter)

	log.Printf("[Seed] Upserting %d users...", seedCount)

	now := time.Now().UTC()
	for i := 0; i < seedCount; i++ {
		u := &user.User{
			ID:        fmt.Sprintf("seed-%03d", i+1),
			Name:      fmt.Sprintf("Seed User %d", i+1),
			Timezone:  timezones[i%len(timezones)],
			CreatedAt: now,
			UpdatedAt: now,
		}
		u.SetPhoneNumbers([]string{randomPhone()})

		if err := repo.Save(ctx, u); err != nil {
			log.Fatalf("[Seed] Failed to save user #%d: %v", i+1, err)
		}

		log.Printf("[Seed] Upserted user %s phone=%v tz=%q", u.ID, u.PhoneNumbers, u.Timezone)
	}

	log.Printf("[Seed] Done. Upserted %d users into table 'users'.", seedCount)
}

// migrate creates the message, report, verification and user tables.
func migrate(m db.Migrator) error {
	return m.Migrate(
		&messagegorm.MessageModel{},
		&messagegorm.ResultModel{},
		&reportgorm.RevisionModel{},
		&verificationgorm.VerificationModel{},
		&usergorm.UserModel{},
	)
}

// randomPhone generates a simple fake phone number in an E.164-like format.
// Example output: +905123456789
func randomPhone() string {
	base := "+905"
	n := rand.Intn(900000000) + 100000000 // 9 digits
	return fmt.Sprintf("%s%d", base, n)
}
