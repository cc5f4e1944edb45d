package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pushp314/rental-messaging-backend/internal/app"
	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/events"
	"github.com/pushp314/rental-messaging-backend/internal/models"
	"github.com/pushp314/rental-messaging-backend/internal/store"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
)

// seedID derives a stable id so re-running the seeder updates rather than
// duplicates records.
func seedID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("rental-messaging/seed/"+name)).String()
}

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	now := time.Now().UTC()
	owner := models.User{ID: seedID("owner"), Name: "Olivia Owner", Email: "owner@rentals.local", CreatedAt: now}
	tenant := models.User{ID: seedID("tenant"), Name: "Theo Tenant", Email: "tenant@rentals.local", CreatedAt: now}

	log.Println("Seeding users...")
	for _, u := range []*models.User{&owner, &tenant} {
		if err := st.SeedUser(ctx, u); err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}
	}

	log.Println("Seeding properties...")
	properties := []models.Property{
		{ID: seedID("loft"), OwnerID: owner.ID, Title: "Sunny Loft near the Park", CreatedAt: now},
		{ID: seedID("cottage"), OwnerID: owner.ID, Title: "Stone Cottage with Garden", CreatedAt: now},
	}
	for i := range properties {
		if err := st.SeedProperty(ctx, &properties[i]); err != nil {
			log.Fatalf("Failed to seed property %s: %v", properties[i].Title, err)
		}
	}

	existing, err := st.FindMessages(ctx, store.MessageFilter{
		SenderID:    tenant.ID,
		PropertyIDs: []string{properties[0].ID},
	})
	if err != nil {
		log.Fatalf("Failed to check existing messages: %v", err)
	}

	if len(existing) == 0 {
		log.Println("Seeding a sample thread...")
		threads := app.NewThreadService(cfg, st, nil, events.NoopPublisher{})
		inquiry, err := threads.SendInquiry(ctx, tenant.ID, properties[0].ID, "Hi! Is the loft still available from next month?")
		if err != nil {
			log.Fatalf("Failed to send inquiry: %v", err)
		}
		if _, err := threads.ReplyToMessage(ctx, owner.ID, inquiry.ID, "Yes, it is. Would you like to arrange a viewing?"); err != nil {
			log.Fatalf("Failed to reply: %v", err)
		}
	}

	log.Printf("Owner  id: %s", owner.ID)
	log.Printf("Tenant id: %s", tenant.ID)
	log.Println("Seeding complete. Mint tokens with: go run ./cmd/devtoken -user <id>")
}
