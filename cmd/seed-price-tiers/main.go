// seed-price-tiers creates the standard price tiers (Bayu, Dealer, Harga A,
// Harga B, HET). Tiers that already exist are left as they are.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-price-tiers
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/models"
	"github.com/twhracing/distributor_backend/utils"
	"github.com/twhracing/distributor_backend/workflow"
)

func main() {
	migrate := flag.Bool("migrate", true, "run AutoMigrate before seeding")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if *migrate {
		models.MigrateTable()
	}

	engine := workflow.NewEngine(models.NewGormStore(db),
		workflow.WithLogger(config.GetLogger()),
		workflow.WithLocker(workflow.NoopInvoiceLocker()),
	)
	ctx := utils.SetUserNameInContext(context.Background(), "Seed")

	tiers, err := engine.SeedPriceTiers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed price tiers: %v\n", err)
		os.Exit(1)
	}
	for _, t := range tiers {
		fmt.Printf("%-3d %-8s %s\n", t.Sequence, t.Code, t.Name)
	}
}
