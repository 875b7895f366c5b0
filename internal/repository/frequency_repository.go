package repository

import (
	"context"

	"laundry_manager/internal/models"

	"gorm.io/gorm"
)

type FrequencyRepository interface {
	Create(ctx context.Context, template *models.FrequencyTemplate) error
	GetByID(ctx context.Context, id string) (*models.FrequencyTemplate, error)
	GetAll(ctx context.Context) ([]models.FrequencyTemplate, error)
	Update(ctx context.Context, template *models.FrequencyTemplate) error
	Delete(ctx context.Context, id string) error
}

type frequencyRepository struct {
	db *gorm.DB
}

func NewFrequencyRepository(db *gorm.DB) FrequencyRepository {
	return &frequencyRepository{db: db}
}

func (r *frequencyRepository) Create(ctx context.Context, template *models.FrequencyTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *frequencyRepository) GetByID(ctx context.Context, id string) (*models.FrequencyTemplate, error) {
	var template models.FrequencyTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *frequencyRepository) GetAll(ctx context.Context) ([]models.FrequencyTemplate, error) {
	var templates []models.FrequencyTemplate
	err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error
	return templates, err
}

func (r *frequencyRepository) Update(ctx context.Context, template *models.FrequencyTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

// Delete does not check for referencing orders.
func (r *frequencyRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FrequencyTemplate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
