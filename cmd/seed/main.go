package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sunupay/internal/config"
	"sunupay/internal/db"
	"sunupay/internal/model"
	"sunupay/internal/repository"
)

// demoApplicationID is the tenant every seeded gateway and transaction belongs
// to. Fixed so repeated runs update the same rows and issued JWTs keep working.
const demoApplicationID = "0d1f3c52-9f3e-4f7b-9a91-7a1d2cf3b8e4"

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.Gateway{}, &model.PaymentRecord{}, &model.ProviderLog{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	appID := uuid.MustParse(demoApplicationID)
	ctx := context.Background()

	gatewayRepo := repository.NewGatewayRepository(gormDB)
	created, updated, err := seedGateways(ctx, gatewayRepo, appID)
	if err != nil {
		log.Fatalf("Failed to seed gateways: %v", err)
	}
	log.Printf("Gateways ready (%d created, %d updated)", created, updated)

	recordRepo := repository.NewPaymentRecordRepository(gormDB)
	seeded, err := seedTransactions(ctx, recordRepo, appID)
	if err != nil {
		log.Fatalf("Failed to seed transactions: %v", err)
	}
	log.Printf("Sample transactions created: %d", seeded)

	log.Println("Seed completed successfully!")
	log.Printf("  - Application ID: %s", appID)
	log.Printf("  - Use this ID as the application_id claim when issuing JWTs")
}

// seedGateways upserts one gateway per supported provider. Real credentials
// come from the environment so the seed can target sandbox accounts; providers
// without credentials get placeholder config and are left inactive.
func seedGateways(ctx context.Context, repo repository.GatewayRepository, appID uuid.UUID) (created int, updated int, err error) {
	type seedGateway struct {
		name   string
		config map[string]string
		// env vars that must all be present for the gateway to be active
		required []string
	}

	seeds := []seedGateway{
		{
			name: "mock",
		},
		{
			name: "paydunya",
			config: map[string]string{
				"masterKey":  os.Getenv("PAYDUNYA_MASTER_KEY"),
				"privateKey": os.Getenv("PAYDUNYA_PRIVATE_KEY"),
				"publicKey":  os.Getenv("PAYDUNYA_PUBLIC_KEY"),
				"token":      os.Getenv("PAYDUNYA_TOKEN"),
				"mode":       "sandbox",
			},
			required: []string{"PAYDUNYA_MASTER_KEY", "PAYDUNYA_PRIVATE_KEY", "PAYDUNYA_TOKEN"},
		},
		{
			name: "pawapay",
			config: map[string]string{
				"apiKey": os.Getenv("PAWAPAY_API_KEY"),
				"mode":   "sandbox",
			},
			required: []string{"PAWAPAY_API_KEY"},
		},
		{
			name: "cinetpay",
			config: map[string]string{
				"apiKey": os.Getenv("CINETPAY_API_KEY"),
				"siteId": os.Getenv("CINETPAY_SITE_ID"),
			},
			required: []string{"CINETPAY_API_KEY", "CINETPAY_SITE_ID"},
		},
		{
			name: "feexpay",
			config: map[string]string{
				"apiKey": os.Getenv("FEEXPAY_API_KEY"),
				"shopId": os.Getenv("FEEXPAY_SHOP_ID"),
			},
			required: []string{"FEEXPAY_API_KEY", "FEEXPAY_SHOP_ID"},
		},
	}

	for _, seed := range seeds {
		status := model.GatewayStatusActive
		for _, env := range seed.required {
			if os.Getenv(env) == "" {
				status = model.GatewayStatusInactive
				break
			}
		}

		var rawConfig json.RawMessage
		if seed.config != nil {
			rawConfig, err = json.Marshal(seed.config)
			if err != nil {
				return created, updated, fmt.Errorf("error encoding %s config: %w", seed.name, err)
			}
		}

		existing, err := repo.FindByAppAndName(ctx, appID, seed.name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, updated, fmt.Errorf("error checking gateway %s: %w", seed.name, err)
		}

		if existing != nil {
			existing.Config = rawConfig
			existing.Status = status
			if err := repo.Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("error updating gateway %s: %w", seed.name, err)
			}
			updated++
			continue
		}

		gateway := &model.Gateway{
			ApplicationID: appID,
			Name:          seed.name,
			Config:        rawConfig,
			Status:        status,
		}
		if err := repo.Create(ctx, gateway); err != nil {
			return created, updated, fmt.Errorf("error creating gateway %s: %w", seed.name, err)
		}
		created++
	}

	return created, updated, nil
}

// seedTransactions creates a few pending records against the mock gateway so
// the checkout and reconciliation paths have something to chew on immediately.
func seedTransactions(ctx context.Context, repo repository.PaymentRecordRepository, appID uuid.UUID) (int, error) {
	samples := []model.PaymentRecord{
		{
			OrderID:       "ORD-1001",
			ApplicationID: appID,
			Provider:      "mock",
			Amount:        decimal.NewFromInt(2500),
			Currency:      "XOF",
			Status:        model.PaymentStatusPending,
			CustomerName:  "Awa Diop",
			CustomerEmail: "awa.diop@example.sn",
			CustomerPhone: "+221771234567",
		},
		{
			OrderID:       "ORD-1002",
			ApplicationID: appID,
			Provider:      "mock",
			Amount:        decimal.NewFromInt(10000),
			Currency:      "XOF",
			Status:        model.PaymentStatusPending,
			CustomerName:  "Kofi Mensah",
			CustomerEmail: "kofi.mensah@example.gh",
			CustomerPhone: "+233241234567",
		},
		{
			OrderID:       "ORD-1003",
			ApplicationID: appID,
			Provider:      "mock",
			Amount:        decimal.NewFromInt(500),
			Currency:      "XOF",
			Status:        model.PaymentStatusPending,
			CustomerName:  "Fatou Ndiaye",
			CustomerEmail: "fatou.ndiaye@example.sn",
			CustomerPhone: "+221781234567",
		},
	}

	seeded := 0
	for i := range samples {
		if err := repo.Create(ctx, &samples[i]); err != nil {
			return seeded, fmt.Errorf("error creating transaction %s: %w", samples[i].OrderID, err)
		}
		seeded++
	}

	return seeded, nil
}
