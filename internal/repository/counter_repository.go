package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"laundry_manager/internal/models"

	"gorm.io/gorm"
)

type CounterRepository interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Current(ctx context.Context, key string) (int64, error)
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

// IncrementAndGet performs a single upsert, so the first caller creates the
// row at 1 and racing callers still receive distinct values.
func (r *counterRepository) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, value, updated_at) VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING value`, key,
	).Row().Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return value, nil
}

func (r *counterRepository) Current(ctx context.Context, key string) (int64, error) {
	var counter models.Counter
	err := r.db.WithContext(ctx).Where("name = ?", key).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}
