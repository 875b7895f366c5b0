package repository

import (
	"context"
	"database/sql"

	"laundry_manager/internal/models"

	"gorm.io/gorm"
)

// OrderFilter narrows order queries. Zero-valued fields are ignored.
type OrderFilter struct {
	CustomerID           string
	DriverID             string
	ParentRecurringID    string
	Statuses             []string
	ExcludeStatuses      []string
	ModificationStatuses []string
	IsRecurring          *bool
	Unlocked             bool
	DeliveryAfter        models.Date // exclusive
	DeliveryUntil        models.Date // inclusive
	NextOccurrence       models.Date
	Limit                int
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*models.Order, error)
	Find(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	LatestDeliveryDate(ctx context.Context, parentID string) (models.Date, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateIfModificationStatus(ctx context.Context, order *models.Order, expected string) (bool, error)
	UpdateCustomerSnapshot(ctx context.Context, customerID, name, email string) (int64, error)
	UpdateDriverName(ctx context.Context, driverID, name string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_number = ?", number).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Find(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	q := applyOrderFilter(r.db.WithContext(ctx).Model(&models.Order{}), filter).Order("delivery_date ASC, order_number ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	var count int64
	err := applyOrderFilter(r.db.WithContext(ctx).Model(&models.Order{}), filter).Count(&count).Error
	return count, err
}

// LatestDeliveryDate returns the furthest delivery date among a template's
// instances, or "" when it has none.
func (r *orderRepository) LatestDeliveryDate(ctx context.Context, parentID string) (models.Date, error) {
	var latest sql.NullString
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("parent_recurring_id = ? AND status <> ?", parentID, string(models.OrderCancelled)).
		Select("MAX(delivery_date)").
		Row().Scan(&latest)
	if err != nil || !latest.Valid {
		return "", err
	}
	return models.Date(latest.String), nil
}

// Update replaces the whole row. Concurrent writers on the same order are
// last-write-wins.
func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateIfModificationStatus writes the row only while modification_status
// still equals expected. It reports false when another writer got there first.
func (r *orderRepository) UpdateIfModificationStatus(ctx context.Context, order *models.Order, expected string) (bool, error) {
	res := r.db.WithContext(ctx).Model(order).
		Where("modification_status = ?", expected).
		Select("*").
		Updates(order)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) UpdateCustomerSnapshot(ctx context.Context, customerID, name, email string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("customer_id = ? AND status NOT IN ?", customerID, []string{string(models.OrderDelivered), string(models.OrderCancelled)}).
		Updates(map[string]interface{}{"customer_name": name, "customer_email": email})
	return res.RowsAffected, res.Error
}

func (r *orderRepository) UpdateDriverName(ctx context.Context, driverID, name string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("driver_id = ? AND (delivery_status IS NULL OR delivery_status <> ?)", driverID, string(models.DeliveryDelivered)).
		Update("driver_name", name)
	return res.RowsAffected, res.Error
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{}).Error
}

func applyOrderFilter(q *gorm.DB, f OrderFilter) *gorm.DB {
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.DriverID != "" {
		q = q.Where("driver_id = ?", f.DriverID)
	}
	if f.ParentRecurringID != "" {
		q = q.Where("parent_recurring_id = ?", f.ParentRecurringID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", f.ExcludeStatuses)
	}
	if len(f.ModificationStatuses) > 0 {
		q = q.Where("modification_status IN ?", f.ModificationStatuses)
	}
	if f.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *f.IsRecurring)
	}
	if f.Unlocked {
		q = q.Where("is_locked = ?", false)
	}
	if !f.DeliveryAfter.IsZero() {
		q = q.Where("delivery_date > ?", f.DeliveryAfter)
	}
	if !f.DeliveryUntil.IsZero() {
		q = q.Where("delivery_date <= ?", f.DeliveryUntil)
	}
	if !f.NextOccurrence.IsZero() {
		q = q.Where("next_occurrence_date = ?", f.NextOccurrence)
	}
	return q
}
