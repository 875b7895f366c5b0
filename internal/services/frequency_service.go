package services

import (
	"context"
	"fmt"
	"strings"

	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"
)

type FrequencyInput struct {
	Name           string `json:"name"`
	FrequencyType  string `json:"frequency_type"`
	FrequencyValue int    `json:"frequency_value"`
	Description    string `json:"description"`
}

type FrequencyService interface {
	Create(ctx context.Context, req Requester, input FrequencyInput) (*models.FrequencyTemplate, error)
	Get(ctx context.Context, id string) (*models.FrequencyTemplate, error)
	List(ctx context.Context) ([]models.FrequencyTemplate, error)
	Update(ctx context.Context, req Requester, id string, input FrequencyInput) (*models.FrequencyTemplate, error)
	Delete(ctx context.Context, req Requester, id string) error
}

type frequencyService struct {
	repo repository.FrequencyRepository
}

func NewFrequencyService(repo repository.FrequencyRepository) FrequencyService {
	return &frequencyService{repo: repo}
}

func (s *frequencyService) Create(ctx context.Context, req Requester, input FrequencyInput) (*models.FrequencyTemplate, error) {
	if !req.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can manage frequency templates", ErrForbidden)
	}
	if err := validateFrequencyInput(input); err != nil {
		return nil, err
	}
	template := &models.FrequencyTemplate{
		Name:           strings.TrimSpace(input.Name),
		FrequencyType:  input.FrequencyType,
		FrequencyValue: input.FrequencyValue,
		Description:    input.Description,
		CreatedBy:      req.UserID,
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create frequency template: %w", err)
	}
	return template, nil
}

func (s *frequencyService) Get(ctx context.Context, id string) (*models.FrequencyTemplate, error) {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "frequency template", id)
	}
	return template, nil
}

func (s *frequencyService) List(ctx context.Context) ([]models.FrequencyTemplate, error) {
	templates, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list frequency templates: %w", err)
	}
	return templates, nil
}

func (s *frequencyService) Update(ctx context.Context, req Requester, id string, input FrequencyInput) (*models.FrequencyTemplate, error) {
	if !req.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can manage frequency templates", ErrForbidden)
	}
	if err := validateFrequencyInput(input); err != nil {
		return nil, err
	}
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	template.Name = strings.TrimSpace(input.Name)
	template.FrequencyType = input.FrequencyType
	template.FrequencyValue = input.FrequencyValue
	template.Description = input.Description
	if err := s.repo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update frequency template: %w", err)
	}
	return template, nil
}

// Delete does not check for orders that still reference the template.
func (s *frequencyService) Delete(ctx context.Context, req Requester, id string) error {
	if !req.IsStaff() {
		return fmt.Errorf("%w: only staff can manage frequency templates", ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "frequency template", id)
	}
	return nil
}

func validateFrequencyInput(input FrequencyInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	_, err := IntervalDays(models.Frequency{Type: input.FrequencyType, Value: input.FrequencyValue})
	return err
}
