package migrations

import (
	"context"
	"errors"
	"fmt"

	"laundry_manager/internal/database"
	applog "laundry_manager/internal/logger"
	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"
	"laundry_manager/internal/services"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed controls the default data created on an empty store.
type Seed struct {
	OwnerEmail    string
	OwnerPassword string
}

var defaultFrequencies = []models.FrequencyTemplate{
	{Name: "Weekly", FrequencyType: string(models.FrequencyWeekly), FrequencyValue: 1, Description: "Every week"},
	{Name: "Fortnightly", FrequencyType: string(models.FrequencyWeekly), FrequencyValue: 2, Description: "Every two weeks"},
	{Name: "Monthly", FrequencyType: string(models.FrequencyMonthly), FrequencyValue: 1, Description: "Every 30 days"},
}

// RunMigrations migrates the schema and creates default data. Existing tables
// and rows are kept.
func RunMigrations(ctx context.Context, db *gorm.DB, seed Seed, l *zap.Logger) error {
	logger := applog.OrNop(l)
	logger.Info("running database migrations")
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createDefaultData(ctx, db, seed, logger); err != nil {
		logger.Warn("failed to create default data", zap.Error(err))
	}
	logger.Info("database migrations completed")
	return nil
}

func createDefaultData(ctx context.Context, db *gorm.DB, seed Seed, logger *zap.Logger) error {
	userRepo := repository.NewUserRepository(db)
	frequencyRepo := repository.NewFrequencyRepository(db)
	userService := services.NewUserService(userRepo, nil, logger)

	var ownerID string
	switch owner, err := userService.FindUserByEmail(ctx, seed.OwnerEmail); {
	case err == nil:
		logger.Debug("owner account already exists", zap.String("email", owner.Email))
		ownerID = owner.ID
	case !errors.Is(err, services.ErrNotFound):
		return err
	case seed.OwnerPassword == "":
		logger.Warn("no owner account and OWNER_PASSWORD is empty; skipping owner seed")
	default:
		owner, err := userService.CreateUser(ctx, services.CreateUserInput{
			FullName: "Owner",
			Email:    seed.OwnerEmail,
			Password: seed.OwnerPassword,
			Role:     string(models.RoleOwner),
		})
		if err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}
		logger.Info("owner account created", zap.String("email", owner.Email))
		ownerID = owner.ID
	}

	existing, err := frequencyRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list frequency templates: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, tmpl := range defaultFrequencies {
		tmpl := tmpl
		tmpl.CreatedBy = ownerID
		if err := frequencyRepo.Create(ctx, &tmpl); err != nil {
			return fmt.Errorf("failed to create frequency template %s: %w", tmpl.Name, err)
		}
	}
	logger.Info("default frequency templates created", zap.Int("count", len(defaultFrequencies)))
	return nil
}
