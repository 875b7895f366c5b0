package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type CreateUserInput struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PhoneNumber    string `json:"phone_number"`
	Address        string `json:"address"`
	Role           string `json:"role"`
	WhatsAppNumber string `json:"whatsapp_number"`
}

// UserPatch holds profile fields; nil leaves a field unchanged.
type UserPatch struct {
	FullName       *string `json:"full_name"`
	Email          *string `json:"email"`
	PhoneNumber    *string `json:"phone_number"`
	Address        *string `json:"address"`
	WhatsAppNumber *string `json:"whatsapp_number"`
	IsActive       *bool   `json:"is_active"`
}

type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context, roles ...string) ([]models.User, error)
	UpdateUserDetails(ctx context.Context, req Requester, id string, patch UserPatch) (*models.User, error)
}

type userService struct {
	users  repository.UserRepository
	orders repository.OrderRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, orders repository.OrderRepository, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{users: users, orders: orders, logger: logger}
}

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.FullName == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: full_name and email are required", ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if input.Role == "" {
		input.Role = string(models.RoleCustomer)
	}
	if !models.ValidRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, input.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		FullName:       input.FullName,
		Email:          input.Email,
		PasswordHash:   string(hash),
		PhoneNumber:    input.PhoneNumber,
		Address:        input.Address,
		Role:           input.Role,
		WhatsAppNumber: input.WhatsAppNumber,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) FindUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

func (s *userService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return user, nil
}

func (s *userService) FindUsers(ctx context.Context, roles ...string) ([]models.User, error) {
	if len(roles) == 0 {
		roles = []string{string(models.RoleOwner), string(models.RoleAdmin), string(models.RoleCustomer), string(models.RoleDriver)}
	}
	users, err := s.users.GetByRoles(ctx, roles...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserDetails edits a profile and refreshes the name and email copied
// onto open orders. The refresh is best effort.
func (s *userService) UpdateUserDetails(ctx context.Context, req Requester, id string, patch UserPatch) (*models.User, error) {
	if !req.IsStaff() && req.UserID != id {
		return nil, fmt.Errorf("%w: cannot edit another user", ErrForbidden)
	}
	if patch.IsActive != nil && !req.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can change account status", ErrForbidden)
	}
	user, err := s.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}

	nameChanged, emailChanged := false, false
	if patch.FullName != nil && *patch.FullName != user.FullName {
		if strings.TrimSpace(*patch.FullName) == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
		}
		user.FullName = *patch.FullName
		nameChanged = true
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		if email != user.Email {
			if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
				return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, email)
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
			emailChanged = true
		}
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Address != nil {
		user.Address = *patch.Address
	}
	if patch.WhatsAppNumber != nil {
		user.WhatsAppNumber = *patch.WhatsAppNumber
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if s.orders == nil {
		return user, nil
	}

	switch models.UserRole(user.Role) {
	case models.RoleCustomer:
		if nameChanged || emailChanged {
			n, err := s.orders.UpdateCustomerSnapshot(ctx, user.ID, user.FullName, user.Email)
			if err != nil {
				s.logger.Warn("failed to refresh customer details on orders", zap.String("user_id", user.ID), zap.Error(err))
			} else {
				s.logger.Debug("refreshed customer details", zap.String("user_id", user.ID), zap.Int64("orders", n))
			}
		}
	case models.RoleDriver:
		if nameChanged {
			n, err := s.orders.UpdateDriverName(ctx, user.ID, user.FullName)
			if err != nil {
				s.logger.Warn("failed to refresh driver name on orders", zap.String("user_id", user.ID), zap.Error(err))
			} else {
				s.logger.Debug("refreshed driver name", zap.String("user_id", user.ID), zap.Int64("orders", n))
			}
		}
	}
	return user, nil
}
