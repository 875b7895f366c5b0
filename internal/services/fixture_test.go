package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"laundry_manager/internal/database"
	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentNotification struct {
	UserID, Title, Message, Kind string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, message, kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID, title, message, kind})
}

func (n *recordingNotifier) to(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	now      time.Time
	deps     Deps
	orders   OrderService
	engine   *RecurrenceEngine
	notifier *recordingNotifier

	owner    *models.User
	admin    *models.User
	customer *models.User
	driver   *models.User
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize("file:"+uuid.NewString()+"?mode=memory&cache=shared", "silent")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T, mode RecurrenceMode, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		db:       newTestDB(t),
		now:      now,
		notifier: &recordingNotifier{},
	}
	f.deps = Deps{
		Orders:      repository.NewOrderRepository(f.db),
		Users:       repository.NewUserRepository(f.db),
		Frequencies: repository.NewFrequencyRepository(f.db),
		Pricing:     repository.NewPricingRepository(f.db),
		Numbers:     NewOrderNumberGenerator(repository.NewCounterRepository(f.db)),
		Notifier:    f.notifier,
		Lock:        NewLockPolicy(time.UTC, 8*time.Hour),
		Mode:        mode,
		Location:    time.UTC,
		Clock:       func() time.Time { return f.now },
	}
	f.engine = NewRecurrenceEngine(f.deps)
	f.orders = NewOrderService(f.deps, f.engine)

	f.owner = f.user("Olive Owner", models.RoleOwner)
	f.admin = f.user("Adam Admin", models.RoleAdmin)
	f.customer = f.user("Cara Customer", models.RoleCustomer)
	f.driver = f.user("Dev Driver", models.RoleDriver)
	return f
}

func (f *fixture) user(name string, role models.UserRole) *models.User {
	f.t.Helper()
	u := &models.User{
		FullName: name,
		Email:    uuid.NewString() + "@example.com",
		Role:     string(role),
		Address:  "12 Example St",
		IsActive: true,
	}
	require.NoError(f.t, f.deps.Users.Create(f.ctx, u))
	return u
}

func as(u *models.User) Requester {
	return Requester{UserID: u.ID, Role: u.Role}
}

func items(price string, qty int) []models.OrderItem {
	return []models.OrderItem{{SKUID: "sku-shirt", SKUName: "Shirt", Quantity: qty, Price: decimal.RequireFromString(price)}}
}

func (f *fixture) createOrder(delivery models.Date) *models.Order {
	f.t.Helper()
	order, err := f.orders.CreateOrder(f.ctx, as(f.owner), CreateOrderInput{
		CustomerID:   f.customer.ID,
		Items:        items("120", 3),
		DeliveryDate: delivery,
	})
	require.NoError(f.t, err)
	return order
}

func (f *fixture) createRecurring(delivery models.Date, pattern models.Frequency) *models.Order {
	f.t.Helper()
	order, err := f.orders.CreateOrder(f.ctx, as(f.owner), CreateOrderInput{
		CustomerID:        f.customer.ID,
		Items:             items("25", 2),
		DeliveryDate:      delivery,
		IsRecurring:       true,
		RecurrencePattern: &pattern,
	})
	require.NoError(f.t, err)
	return order
}

func (f *fixture) reload(id string) *models.Order {
	f.t.Helper()
	order, err := f.deps.Orders.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return order
}

func (f *fixture) countOrders() int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
