package services

import (
	"context"
	"fmt"

	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"

	"go.uber.org/zap"
)

// MessageSender pushes a text message to a phone number.
type MessageSender interface {
	SendTextMessage(ctx context.Context, phone, message string) error
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, req Requester, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, req Requester, id string) error
	MarkAllRead(ctx context.Context, req Requester) (int64, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	sender        MessageSender
	logger        *zap.Logger
}

// NewNotificationService stores every notification and, when sender is
// non-nil, also pushes it to the user's WhatsApp number.
func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, sender MessageSender, logger *zap.Logger) NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notificationService{
		notifications: notifications,
		users:         users,
		sender:        sender,
		logger:        logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID, title, message, kind string) {
	if userID == "" {
		return
	}
	n := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("user_id", userID), zap.String("type", kind), zap.Error(err))
	}

	if s.sender == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user.WhatsAppNumber == "" {
		return
	}
	text := fmt.Sprintf("*%s*\n\n%s", title, message)
	if err := s.sender.SendTextMessage(ctx, user.WhatsAppNumber, text); err != nil {
		s.logger.Warn("failed to push notification",
			zap.String("user_id", userID), zap.String("type", kind), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, req Requester, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.notifications.GetByUserID(ctx, req.UserID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, req Requester, id string) error {
	if err := s.notifications.MarkAsRead(ctx, id, req.UserID); err != nil {
		return notFound(err, "notification", id)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, req Requester) (int64, error) {
	n, err := s.notifications.MarkAllAsRead(ctx, req.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}
