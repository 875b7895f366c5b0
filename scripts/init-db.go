package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"laundry_manager/internal/config"
	"laundry_manager/internal/database"
	"laundry_manager/internal/logger"
	"laundry_manager/internal/migrations"
	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"
	"laundry_manager/internal/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Initializes the schema, seeds defaults and, with -catalog, a starter SKU
// catalog.
func main() {
	fmt.Println("Initializing database...")
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zl.Sync()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx := context.Background()
	seed := migrations.Seed{OwnerEmail: cfg.OwnerEmail, OwnerPassword: cfg.OwnerPassword}
	if err := migrations.RunMigrations(ctx, db, seed, zl); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	if len(os.Args) > 1 && os.Args[1] == "-catalog" {
		pricing := repository.NewPricingRepository(db)
		for _, sku := range starterCatalog() {
			sku := sku
			if err := pricing.CreateSKU(ctx, &sku); err != nil {
				zl.Warn("failed to create sku", zap.String("name", sku.Name), zap.Error(err))
				continue
			}
			fmt.Printf("  %s %s (%s)\n", sku.Name, sku.Price.StringFixed(2), sku.Unit)
		}
	}

	n, err := repository.NewCounterRepository(db).Current(ctx, services.OrderNumberKey)
	if err != nil {
		zl.Fatal("failed to read order counter", zap.Error(err))
	}
	fmt.Printf("Database ready. Last order number: %d\n", n)
}

func starterCatalog() []models.SKU {
	return []models.SKU{
		{Name: "Shirt wash & press", Category: "wash", Price: decimal.RequireFromString("6.50"), Unit: "item"},
		{Name: "Trousers wash & press", Category: "wash", Price: decimal.RequireFromString("8.00"), Unit: "item"},
		{Name: "Bedsheet set", Category: "linen", Price: decimal.RequireFromString("15.00"), Unit: "set"},
		{Name: "Suit dry clean", Category: "dry_clean", Price: decimal.RequireFromString("24.00"), Unit: "item"},
		{Name: "Wash & fold", Category: "wash", Price: decimal.RequireFromString("4.50"), Unit: "kg"},
	}
}
