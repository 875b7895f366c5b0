package services

import (
	"context"
	"errors"
	"testing"

	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	phones   []string
	messages []string
	err      error
}

func (s *fakeSender) SendTextMessage(_ context.Context, phone, message string) error {
	s.phones = append(s.phones, phone)
	s.messages = append(s.messages, message)
	return s.err
}

func TestNotifyStoresAndPushes(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	f.customer.WhatsAppNumber = "6281234"
	require.NoError(t, f.deps.Users.Update(f.ctx, f.customer))

	sender := &fakeSender{}
	svc := NewNotificationService(repository.NewNotificationRepository(f.db), f.deps.Users, sender, nil)

	svc.Notify(f.ctx, f.customer.ID, "Order ORD-000001 locked", "No further changes.", models.NotificationOrderLocked)
	svc.Notify(f.ctx, f.driver.ID, "New delivery assigned", "Pickup tomorrow.", models.NotificationDriverAssigned)

	require.Equal(t, []string{"6281234"}, sender.phones, "users without a number only get the stored copy")
	assert.Equal(t, "*Order ORD-000001 locked*\n\nNo further changes.", sender.messages[0])

	stored, err := svc.List(f.ctx, as(f.driver), false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationDriverAssigned, stored[0].Type)
	assert.False(t, stored[0].IsRead)
}

func TestNotifySurvivesSenderFailure(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	f.customer.WhatsAppNumber = "6281234"
	require.NoError(t, f.deps.Users.Update(f.ctx, f.customer))

	svc := NewNotificationService(repository.NewNotificationRepository(f.db), f.deps.Users, &fakeSender{err: errors.New("gateway down")}, nil)
	svc.Notify(f.ctx, f.customer.ID, "title", "message", models.NotificationOrderUpdated)

	stored, err := svc.List(f.ctx, as(f.customer), false)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMarkNotificationsRead(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	svc := NewNotificationService(repository.NewNotificationRepository(f.db), nil, nil, nil)
	for i := 0; i < 3; i++ {
		svc.Notify(f.ctx, f.customer.ID, "title", "message", models.NotificationOrderUpdated)
	}
	svc.Notify(f.ctx, "", "nobody", "dropped", models.NotificationOrderUpdated)

	stored, err := svc.List(f.ctx, as(f.customer), true)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.ErrorIs(t, svc.MarkRead(f.ctx, as(f.owner), stored[0].ID), ErrNotFound, "cannot mark another user's notification")
	require.NoError(t, svc.MarkRead(f.ctx, as(f.customer), stored[0].ID))

	n, err := svc.MarkAllRead(f.ctx, as(f.customer))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err := svc.List(f.ctx, as(f.customer), true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
