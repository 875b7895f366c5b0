package services

import (
	"context"
	"errors"
	"fmt"

	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"
	"laundry_manager/internal/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Requester identifies who is calling.
type Requester struct {
	UserID string
	Role   string
}

func (r Requester) IsStaff() bool    { return models.IsStaff(r.Role) }
func (r Requester) IsCustomer() bool { return r.Role == string(models.RoleCustomer) }
func (r Requester) IsDriver() bool   { return r.Role == string(models.RoleDriver) }

type CreateOrderInput struct {
	CustomerID          string             `json:"customer_id"`
	Items               []models.OrderItem `json:"items"`
	PickupDate          models.Date        `json:"pickup_date"`
	DeliveryDate        models.Date        `json:"delivery_date"`
	PickupAddress       string             `json:"pickup_address"`
	DeliveryAddress     string             `json:"delivery_address"`
	SpecialInstructions string             `json:"special_instructions"`
	IsRecurring         bool               `json:"is_recurring"`
	RecurrencePattern   *models.Frequency  `json:"recurrence_pattern"`
	FrequencyTemplateID string             `json:"frequency_template_id"`
}

type ListFilter struct {
	Status      string
	IsRecurring *bool
}

type OrderService interface {
	CreateOrder(ctx context.Context, req Requester, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, req Requester, id string) (*models.Order, error)
	ListOrders(ctx context.Context, req Requester, filter ListFilter) ([]models.Order, error)
	ListRecurringOrders(ctx context.Context, req Requester) ([]models.Order, error)
	ListPendingEditRequests(ctx context.Context, req Requester) ([]models.Order, error)
	UpdateOrder(ctx context.Context, req Requester, id string, changes models.OrderChanges) (*models.Order, error)

	SubmitEditRequest(ctx context.Context, req Requester, id string, changes models.OrderChanges) (*models.Order, error)
	ReviewEditRequest(ctx context.Context, req Requester, id string, review EditReview) (*models.Order, error)
	ProposeModification(ctx context.Context, req Requester, id string, changes models.OrderChanges) (*models.Order, error)
	ApproveModification(ctx context.Context, req Requester, id string) (*models.Order, error)
	RejectModification(ctx context.Context, req Requester, id, reason string) (*models.Order, error)
	ClearPendingApproval(ctx context.Context, req Requester, id string) (*models.Order, error)

	CancelOrder(ctx context.Context, req Requester, id string) (*models.Order, error)
	CancelRecurringOrder(ctx context.Context, req Requester, id string) (*models.Order, error)
	PurgeOrder(ctx context.Context, req Requester, ref string) error
	LockOrder(ctx context.Context, req Requester, id string) (*models.Order, error)
	UnlockOrder(ctx context.Context, req Requester, id string) (*models.Order, error)
	AssignDriver(ctx context.Context, req Requester, id, driverID string) (*models.Order, error)
	UnassignDriver(ctx context.Context, req Requester, id string) (*models.Order, error)
	UpdateDeliveryStatus(ctx context.Context, req Requester, id, status, notes string) (*models.Order, error)
	RecalculateTotal(ctx context.Context, req Requester, id string) (*models.Order, error)

	LockDueOrders(ctx context.Context) (int, error)
}

type orderService struct {
	orders     repository.OrderRepository
	users      repository.UserRepository
	pricing    repository.PricingRepository
	numbers    *OrderNumberGenerator
	notifier   Notifier
	lock       *LockPolicy
	recurrence *RecurrenceEngine
	clock      Clock
	logger     *zap.Logger
}

func NewOrderService(deps Deps, recurrence *RecurrenceEngine) OrderService {
	deps.setDefaults()
	if recurrence == nil {
		recurrence = NewRecurrenceEngine(deps)
	}
	return &orderService{
		orders:     deps.Orders,
		users:      deps.Users,
		pricing:    deps.Pricing,
		numbers:    deps.Numbers,
		notifier:   deps.Notifier,
		lock:       deps.Lock,
		recurrence: recurrence,
		clock:      deps.Clock,
		logger:     deps.Logger.Named("orders"),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req Requester, input CreateOrderInput) (*models.Order, error) {
	switch {
	case req.IsStaff():
		if input.CustomerID == "" {
			return nil, fmt.Errorf("%w: customer_id is required", ErrValidation)
		}
	case req.IsCustomer():
		input.CustomerID = req.UserID
	default:
		return nil, fmt.Errorf("%w: drivers cannot create orders", ErrForbidden)
	}

	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	if !input.DeliveryDate.Valid() {
		return nil, fmt.Errorf("%w: delivery_date must be YYYY-MM-DD", ErrValidation)
	}
	if input.PickupDate.IsZero() {
		input.PickupDate = input.DeliveryDate.AddDays(-pickupLeadDays)
	}
	if !input.PickupDate.Valid() {
		return nil, fmt.Errorf("%w: pickup_date must be YYYY-MM-DD", ErrValidation)
	}
	if input.PickupDate.After(input.DeliveryDate) {
		return nil, fmt.Errorf("%w: pickup_date must not be after delivery_date", ErrValidation)
	}

	customer, err := s.users.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, notFound(err, "customer", input.CustomerID)
	}
	if customer.Role != string(models.RoleCustomer) {
		return nil, fmt.Errorf("%w: user %s is not a customer", ErrValidation, customer.ID)
	}

	items := input.Items
	if req.IsCustomer() {
		if items, err = s.reconcile(ctx, customer.ID, items); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		CustomerID:          customer.ID,
		CustomerName:        customer.FullName,
		CustomerEmail:       customer.Email,
		Items:               items,
		PickupDate:          input.PickupDate,
		DeliveryDate:        input.DeliveryDate,
		PickupAddress:       input.PickupAddress,
		DeliveryAddress:     input.DeliveryAddress,
		SpecialInstructions: input.SpecialInstructions,
		Status:              string(models.OrderPending),
		IsRecurring:         input.IsRecurring,
		RecurrencePattern:   input.RecurrencePattern,
		FrequencyTemplateID: input.FrequencyTemplateID,
		CreatedBy:           req.UserID,
	}
	if order.PickupAddress == "" {
		order.PickupAddress = customer.Address
	}
	if order.DeliveryAddress == "" {
		order.DeliveryAddress = customer.Address
	}
	ApplyTotals(order)
	if order.IsRecurring {
		order.Status = string(models.OrderScheduled)
		if err := s.recurrence.Schedule(ctx, order); err != nil {
			return nil, err
		}
	}

	// Allocate the number last so validation failures never consume one.
	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}
	order.OrderNumber = number

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_id", order.CustomerID),
		zap.Bool("recurring", order.IsRecurring))

	if _, err := s.recurrence.StartTemplate(ctx, order); err != nil {
		s.logger.Warn("failed to create first recurring instance",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
	}

	s.notifyParties(ctx, order, req.UserID, "New order "+order.OrderNumber,
		fmt.Sprintf("Order %s for %s is booked for delivery on %s. Total incl. GST: %s.",
			order.OrderNumber, order.CustomerName, order.DeliveryDate, order.TotalWithGST.StringFixed(moneyPlaces)),
		models.NotificationOrderCreated)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(req, order); err != nil {
		return nil, err
	}
	if err := s.observeCutoff(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, req Requester, filter ListFilter) ([]models.Order, error) {
	f := repository.OrderFilter{IsRecurring: filter.IsRecurring}
	if filter.Status != "" {
		f.Statuses = []string{filter.Status}
	}
	return s.list(ctx, req, f)
}

func (s *orderService) ListRecurringOrders(ctx context.Context, req Requester) ([]models.Order, error) {
	recurring := true
	return s.list(ctx, req, repository.OrderFilter{IsRecurring: &recurring})
}

func (s *orderService) ListPendingEditRequests(ctx context.Context, req Requester) ([]models.Order, error) {
	if !req.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can review edit requests", ErrForbidden)
	}
	return s.orders.Find(ctx, repository.OrderFilter{
		ModificationStatuses: []string{
			string(models.ModificationPendingCustomerEdit),
			string(models.ModificationPendingOwnerApproval),
		},
	})
}

func (s *orderService) list(ctx context.Context, req Requester, f repository.OrderFilter) ([]models.Order, error) {
	switch {
	case req.IsStaff():
	case req.IsCustomer():
		f.CustomerID = req.UserID
	case req.IsDriver():
		f.DriverID = req.UserID
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, req.Role)
	}
	orders, err := s.orders.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	for i := range orders {
		if err := s.observeCutoff(ctx, &orders[i]); err != nil {
			s.logger.Warn("failed to persist cutoff lock", zap.String("order_number", orders[i].OrderNumber), zap.Error(err))
		}
	}
	return orders, nil
}

// UpdateOrder is the general mutation entry point. Customers are routed into
// the edit-request workflow, staff edits apply immediately.
func (s *orderService) UpdateOrder(ctx context.Context, req Requester, id string, changes models.OrderChanges) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.observeCutoff(ctx, order); err != nil {
		return nil, err
	}

	switch {
	case req.IsCustomer():
		if order.CustomerID != req.UserID {
			return nil, fmt.Errorf("%w: order %s belongs to another customer", ErrForbidden, order.OrderNumber)
		}
		if order.IsLocked {
			return nil, s.lockedError(order)
		}
		return s.stagePending(ctx, req, order, &changes, models.ModificationPendingCustomerEdit)
	case req.IsStaff():
		return s.applyStaffEdit(ctx, req, order, &changes)
	default:
		return nil, fmt.Errorf("%w: drivers may only update delivery status", ErrForbidden)
	}
}

func (s *orderService) applyStaffEdit(ctx context.Context, req Requester, order *models.Order, changes *models.OrderChanges) (*models.Order, error) {
	if changes.IsEmpty() {
		return nil, fmt.Errorf("%w: no changes supplied", ErrValidation)
	}
	prevStatus := order.Status
	if err := s.applyChanges(ctx, order, changes, false); err != nil {
		return nil, err
	}
	if changes.Status != nil {
		if !models.ValidOrderStatus(*changes.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *changes.Status)
		}
		order.Status = *changes.Status
	}

	delivered := prevStatus != string(models.OrderDelivered) && order.Status == string(models.OrderDelivered)
	rollsForward := delivered && order.IsRecurring && s.recurrence.Mode() == ModeRollForward
	if delivered && !rollsForward {
		now := s.clock()
		order.DeliveryStatus = string(models.DeliveryDelivered)
		order.DeliveredAt = &now
	}

	if rollsForward {
		// The roll-forward persists the advanced order in a single write.
		if err := s.recurrence.AfterDelivered(ctx, order, order.DriverID, ""); err != nil {
			return nil, err
		}
	} else {
		if err := s.orders.Update(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		if delivered {
			if err := s.recurrence.AfterDelivered(ctx, order, order.DriverID, ""); err != nil {
				s.logger.Warn("recurrence hook failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
			}
		}
	}

	s.notifyParties(ctx, order, req.UserID, "Order "+order.OrderNumber+" updated",
		"Changes: "+changes.Summary(), models.NotificationOrderUpdated)
	return order, nil
}

// applyChanges mutates order in memory. Items are repriced when reconcile is
// set; totals and the next occurrence are always rederived.
func (s *orderService) applyChanges(ctx context.Context, order *models.Order, changes *models.OrderChanges, reconcile bool) error {
	if changes.Items != nil {
		if err := validateItems(changes.Items); err != nil {
			return err
		}
		items := changes.Items
		if reconcile {
			var err error
			if items, err = s.reconcile(ctx, order.CustomerID, items); err != nil {
				return err
			}
		}
		order.Items = items
		ApplyTotals(order)
	}
	if changes.PickupDate != nil {
		if !changes.PickupDate.Valid() {
			return fmt.Errorf("%w: pickup_date must be YYYY-MM-DD", ErrValidation)
		}
		order.PickupDate = *changes.PickupDate
	}
	if changes.DeliveryDate != nil {
		if !changes.DeliveryDate.Valid() {
			return fmt.Errorf("%w: delivery_date must be YYYY-MM-DD", ErrValidation)
		}
		order.DeliveryDate = *changes.DeliveryDate
	}
	if order.PickupDate.After(order.DeliveryDate) {
		return fmt.Errorf("%w: pickup_date must not be after delivery_date", ErrValidation)
	}
	if changes.PickupAddress != nil {
		order.PickupAddress = *changes.PickupAddress
	}
	if changes.DeliveryAddress != nil {
		order.DeliveryAddress = *changes.DeliveryAddress
	}
	if changes.SpecialInstructions != nil {
		order.SpecialInstructions = *changes.SpecialInstructions
	}
	if changes.IsRecurring != nil {
		order.IsRecurring = *changes.IsRecurring
	}
	if changes.RecurrencePattern != nil {
		if _, err := IntervalDays(*changes.RecurrencePattern); err != nil {
			return err
		}
		pattern := *changes.RecurrencePattern
		order.RecurrencePattern = &pattern
	}
	if changes.FrequencyTemplateID != nil {
		order.FrequencyTemplateID = *changes.FrequencyTemplateID
	}
	if changes.RecurrenceChanged() {
		if err := s.recurrence.Schedule(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCancel(ctx, req, order); err != nil {
		return nil, err
	}
	if order.Status == string(models.OrderDelivered) {
		return nil, fmt.Errorf("%w: order %s is already delivered", ErrConflict, order.OrderNumber)
	}
	if order.Status == string(models.OrderCancelled) {
		return order, nil
	}

	order.Status = string(models.OrderCancelled)
	order.ClearPending()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	s.notifyParties(ctx, order, req.UserID, "Order "+order.OrderNumber+" cancelled",
		fmt.Sprintf("Order %s scheduled for %s has been cancelled.", order.OrderNumber, order.DeliveryDate),
		models.NotificationOrderCancelled)
	return order, nil
}

func (s *orderService) CancelRecurringOrder(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCancel(ctx, req, order); err != nil {
		return nil, err
	}
	if !order.IsRecurring {
		return nil, fmt.Errorf("%w: order %s is not recurring", ErrValidation, order.OrderNumber)
	}

	order.Status = string(models.OrderCancelled)
	order.IsRecurring = false
	order.ClearPending()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to cancel recurring order: %w", err)
	}
	s.logger.Info("recurring order cancelled", zap.String("order_number", order.OrderNumber), zap.String("by", req.UserID))
	s.notifyParties(ctx, order, req.UserID, "Recurring order "+order.OrderNumber+" cancelled",
		fmt.Sprintf("Recurring order %s will not generate further deliveries.", order.OrderNumber),
		models.NotificationOrderCancelled)
	return order, nil
}

// PurgeOrder permanently removes an order by id or order number.
func (s *orderService) PurgeOrder(ctx context.Context, req Requester, ref string) error {
	if !req.IsStaff() {
		return fmt.Errorf("%w: only staff can delete orders", ErrForbidden)
	}
	order, err := s.orders.GetByID(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		order, err = s.orders.GetByOrderNumber(ctx, ref)
	}
	if err != nil {
		return notFound(err, "order", ref)
	}
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", order.OrderNumber, err)
	}
	s.logger.Warn("order permanently deleted", zap.String("order_number", order.OrderNumber), zap.String("by", req.UserID))
	return nil
}

func (s *orderService) LockOrder(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if order.IsLocked && order.IsManuallyLocked() {
		return order, nil
	}
	now := s.clock()
	order.IsLocked = true
	if order.LockedAt == nil {
		order.LockedAt = &now
	}
	order.LockedBy = req.UserID
	order.LockType = string(models.LockManual)
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	s.notifier.Notify(ctx, order.CustomerID, "Order "+order.OrderNumber+" locked",
		fmt.Sprintf("Order %s has been locked and can no longer be changed.", order.OrderNumber),
		models.NotificationOrderLocked)
	return order, nil
}

// UnlockOrder clears any lock and pins the current occurrence to manual
// handling so the automatic rules do not lock it again. Roll-forward hands
// the next occurrence back to the automatic rules.
func (s *orderService) UnlockOrder(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	order.IsLocked = false
	order.LockedAt = nil
	order.LockedBy = ""
	order.LockType = string(models.LockManual)
	order.UnlockedAt = &now
	order.UnlockedBy = req.UserID
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to unlock order: %w", err)
	}
	s.notifier.Notify(ctx, order.CustomerID, "Order "+order.OrderNumber+" unlocked",
		fmt.Sprintf("Order %s can be changed again.", order.OrderNumber),
		models.NotificationOrderUpdated)
	return order, nil
}

func (s *orderService) AssignDriver(ctx context.Context, req Requester, id, driverID string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrConflict, order.OrderNumber, order.Status)
	}
	if order.DriverID != "" {
		return nil, fmt.Errorf("%w: order %s is already assigned to %s", ErrConflict, order.OrderNumber, order.DriverName)
	}
	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, notFound(err, "driver", driverID)
	}
	if driver.Role != string(models.RoleDriver) {
		return nil, fmt.Errorf("%w: user %s is not a driver", ErrValidation, driverID)
	}

	order.DriverID = driver.ID
	order.DriverName = driver.FullName
	order.DeliveryStatus = string(models.DeliveryAssigned)
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}

	s.notifier.Notify(ctx, driver.ID, "New delivery assigned",
		fmt.Sprintf("You have been assigned order %s. Pickup %s at %s, delivery %s at %s.",
			order.OrderNumber, order.PickupDate, order.PickupAddress, order.DeliveryDate, order.DeliveryAddress),
		models.NotificationDriverAssigned)
	s.notifier.Notify(ctx, order.CustomerID, "Driver assigned",
		fmt.Sprintf("%s will handle order %s.", driver.FullName, order.OrderNumber),
		models.NotificationDriverAssigned)
	return order, nil
}

func (s *orderService) UnassignDriver(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if order.DriverID == "" {
		return nil, fmt.Errorf("%w: order %s has no driver", ErrConflict, order.OrderNumber)
	}
	previous := order.DriverID
	order.DriverID = ""
	order.DriverName = ""
	order.DeliveryStatus = string(models.DeliveryPending)
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to unassign driver: %w", err)
	}
	s.notifier.Notify(ctx, previous, "Delivery unassigned",
		fmt.Sprintf("Order %s is no longer assigned to you.", order.OrderNumber),
		models.NotificationDriverAssigned)
	return order, nil
}

// UpdateDeliveryStatus advances the driver-facing sub-state. Delivering a
// recurring order hands it to the recurrence engine.
func (s *orderService) UpdateDeliveryStatus(ctx context.Context, req Requester, id, status, notes string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := statemachine.ActorStaff
	switch {
	case req.IsStaff():
	case req.IsDriver():
		if order.DriverID != req.UserID {
			return nil, fmt.Errorf("%w: order %s is not assigned to you", ErrForbidden, order.OrderNumber)
		}
		actor = statemachine.ActorDriver
	default:
		return nil, fmt.Errorf("%w: only drivers and staff update delivery status", ErrForbidden)
	}
	if order.Status == string(models.OrderCancelled) {
		return nil, fmt.Errorf("%w: order %s is cancelled", ErrConflict, order.OrderNumber)
	}
	next := models.DeliveryStatus(status)
	if err := statemachine.CanTransition(models.DeliveryStatus(order.DeliveryStatus), next, actor); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}

	now := s.clock()
	order.DeliveryStatus = status
	switch next {
	case models.DeliveryPickedUp:
		order.PickedUpAt = &now
	case models.DeliveryDelivered:
		order.DeliveredAt = &now
	}

	if next == models.DeliveryDelivered && order.IsRecurring && s.recurrence.Mode() == ModeRollForward {
		occurrence := order.DeliveryDate
		if err := s.recurrence.AfterDelivered(ctx, order, order.DriverID, notes); err != nil {
			return nil, err
		}
		s.notifyParties(ctx, order, req.UserID, "Order "+order.OrderNumber+" delivered",
			fmt.Sprintf("The %s delivery of %s is complete. Next delivery: %s.", occurrence, order.OrderNumber, order.DeliveryDate),
			models.NotificationDelivery)
		return order, nil
	}

	if next == models.DeliveryDelivered {
		order.Status = string(models.OrderDelivered)
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update delivery status: %w", err)
	}
	if next == models.DeliveryDelivered {
		if err := s.recurrence.AfterDelivered(ctx, order, order.DriverID, notes); err != nil {
			s.logger.Warn("recurrence hook failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		}
	}
	s.notifyParties(ctx, order, req.UserID, "Order "+order.OrderNumber+" "+humanDeliveryStatus(next),
		fmt.Sprintf("Order %s is now %s.", order.OrderNumber, humanDeliveryStatus(next)),
		models.NotificationDelivery)
	return order, nil
}

func (s *orderService) RecalculateTotal(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	ApplyTotals(order)
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to recalculate order total: %w", err)
	}
	return order, nil
}

// LockDueOrders is the safety-margin sweep. Per-order failures are logged and
// the sweep continues.
func (s *orderService) LockDueOrders(ctx context.Context) (int, error) {
	now := s.clock()
	candidates, err := s.orders.Find(ctx, repository.OrderFilter{
		Unlocked: true,
		ExcludeStatuses: []string{
			string(models.OrderReadyForPickup),
			string(models.OrderDelivered),
			string(models.OrderCancelled),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load lock candidates: %w", err)
	}

	locked := 0
	for i := range candidates {
		order := &candidates[i]
		if s.lock.SweepExempt(order) || TemplateExempt(order, s.recurrence.Mode()) || !s.lock.WithinSafetyMargin(order, now) {
			continue
		}
		if !s.lock.Lock(order, now) {
			continue
		}
		if err := s.orders.Update(ctx, order); err != nil {
			s.logger.Error("failed to lock order", zap.String("order_number", order.OrderNumber), zap.Error(err))
			continue
		}
		locked++
		s.notifyParties(ctx, order, "", "Order "+order.OrderNumber+" locked",
			fmt.Sprintf("Order %s is locked for delivery on %s. No further changes can be made.", order.OrderNumber, order.DeliveryDate),
			models.NotificationOrderLocked)
	}
	return locked, nil
}

func (s *orderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return order, nil
}

func (s *orderService) loadForStaff(ctx context.Context, req Requester, id string) (*models.Order, error) {
	if !req.IsStaff() {
		return nil, fmt.Errorf("%w: staff only", ErrForbidden)
	}
	return s.load(ctx, id)
}

// observeCutoff persists the customer cutoff lock the first time it is seen.
func (s *orderService) observeCutoff(ctx context.Context, order *models.Order) error {
	if TemplateExempt(order, s.recurrence.Mode()) {
		return nil
	}
	if !s.lock.CheckCutoff(order, s.clock()) {
		return nil
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("failed to persist lock for order %s: %w", order.OrderNumber, err)
	}
	s.logger.Info("order locked at customer cutoff", zap.String("order_number", order.OrderNumber))
	return nil
}

func (s *orderService) lockedError(order *models.Order) error {
	if order.IsManuallyLocked() {
		return fmt.Errorf("%w: %s was locked by staff", ErrOrderLocked, order.OrderNumber)
	}
	return fmt.Errorf("%w: changes to %s closed at the end of %s", ErrOrderLocked, order.OrderNumber, s.lock.CutoffDate(order.DeliveryDate))
}

func (s *orderService) authorizeCancel(ctx context.Context, req Requester, order *models.Order) error {
	if req.IsStaff() {
		return nil
	}
	if !req.IsCustomer() || order.CustomerID != req.UserID {
		return fmt.Errorf("%w: cannot cancel order %s", ErrForbidden, order.OrderNumber)
	}
	if err := s.observeCutoff(ctx, order); err != nil {
		return err
	}
	if order.IsLocked {
		return s.lockedError(order)
	}
	return nil
}

func (s *orderService) reconcile(ctx context.Context, customerID string, items []models.OrderItem) ([]models.OrderItem, error) {
	if s.pricing == nil {
		return items, nil
	}
	ids := skuIDs(items)
	customerPrices, err := s.pricing.CustomerPrices(ctx, customerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer pricing: %w", err)
	}
	catalogPrices, err := s.pricing.CatalogPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog pricing: %w", err)
	}
	return ReconcileItems(items, customerPrices, catalogPrices), nil
}

// notifyParties tells the customer and every staff member except the actor.
func (s *orderService) notifyParties(ctx context.Context, order *models.Order, actorID, title, message, kind string) {
	if order.CustomerID != actorID {
		s.notifier.Notify(ctx, order.CustomerID, title, message, kind)
	}
	s.notifyStaff(ctx, actorID, title, message, kind)
}

func (s *orderService) notifyStaff(ctx context.Context, actorID, title, message, kind string) {
	staff, err := s.users.GetByRoles(ctx, string(models.RoleOwner), string(models.RoleAdmin))
	if err != nil {
		s.logger.Warn("failed to load staff for notification", zap.Error(err))
		return
	}
	for _, u := range staff {
		if u.ID == actorID {
			continue
		}
		s.notifier.Notify(ctx, u.ID, title, message, kind)
	}
}

func authorizeView(req Requester, order *models.Order) error {
	switch {
	case req.IsStaff():
		return nil
	case req.IsCustomer() && order.CustomerID == req.UserID:
		return nil
	case req.IsDriver() && order.DriverID == req.UserID:
		return nil
	}
	return fmt.Errorf("%w: no access to order %s", ErrForbidden, order.OrderNumber)
}

func humanDeliveryStatus(s models.DeliveryStatus) string {
	switch s {
	case models.DeliveryPickedUp:
		return "picked up"
	case models.DeliveryOutForDelivery:
		return "out for delivery"
	case models.DeliveryDelivered:
		return "delivered"
	}
	return string(s)
}
