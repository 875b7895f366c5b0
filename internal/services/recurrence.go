package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"laundry_manager/internal/models"
	"laundry_manager/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecurrenceMode string

const (
	// ModeRollForward advances the recurring order itself after each delivery.
	ModeRollForward RecurrenceMode = "roll_forward"
	// ModeTemplateInstances keeps the recurring order as a template and
	// generates a separate order per occurrence.
	ModeTemplateInstances RecurrenceMode = "template_instances"
)

const (
	pickupLeadDays          = 2
	replenishThreshold      = 10
	replenishHorizonDays    = 180
	maxGenerationIterations = 200
)

func ParseRecurrenceMode(s string) (RecurrenceMode, error) {
	switch RecurrenceMode(s) {
	case ModeRollForward, ModeTemplateInstances:
		return RecurrenceMode(s), nil
	}
	return "", fmt.Errorf("unknown recurrence mode %q", s)
}

// IntervalDays converts a frequency into a day step. Monthly is a fixed 30
// days per unit, not a calendar month.
func IntervalDays(f models.Frequency) (int, error) {
	if f.Value <= 0 {
		return 0, fmt.Errorf("%w: frequency value must be positive, got %d", ErrValidation, f.Value)
	}
	switch models.FrequencyType(f.Type) {
	case models.FrequencyDaily, models.FrequencyCustom:
		return f.Value, nil
	case models.FrequencyWeekly:
		return 7 * f.Value, nil
	case models.FrequencyMonthly:
		return 30 * f.Value, nil
	}
	return 0, fmt.Errorf("%w: unknown frequency type %q", ErrValidation, f.Type)
}

func NextOccurrence(from models.Date, f models.Frequency) (models.Date, error) {
	days, err := IntervalDays(f)
	if err != nil {
		return "", err
	}
	if !from.Valid() {
		return "", fmt.Errorf("%w: invalid date %q", ErrValidation, from)
	}
	return from.AddDays(days), nil
}

// RollForward moves a recurring order to its next occurrence in place and
// records the completed one in its delivery history.
func RollForward(order *models.Order, f models.Frequency, now time.Time, driverID, notes string) error {
	next, err := NextOccurrence(order.DeliveryDate, f)
	if err != nil {
		return err
	}
	following, err := NextOccurrence(next, f)
	if err != nil {
		return err
	}
	order.DeliveriesHistory = append(order.DeliveriesHistory, models.DeliveryRecord{
		OccurrenceDeliveryDate: order.DeliveryDate,
		DeliveredAt:            now,
		DriverID:               driverID,
		Notes:                  notes,
	})
	order.DeliveryDate = next
	order.PickupDate = next.AddDays(-pickupLeadDays)
	order.NextOccurrenceDate = following
	order.DeliveryStatus = string(models.DeliveryAssigned)
	order.PickedUpAt = nil
	order.DeliveredAt = nil
	order.Status = string(models.OrderScheduled)
	return nil
}

type RecurrenceEngine struct {
	orders      repository.OrderRepository
	users       repository.UserRepository
	frequencies repository.FrequencyRepository
	numbers     *OrderNumberGenerator
	notifier    Notifier
	lock        *LockPolicy
	mode        RecurrenceMode
	loc         *time.Location
	clock       Clock
	logger      *zap.Logger
}

func NewRecurrenceEngine(deps Deps) *RecurrenceEngine {
	deps.setDefaults()
	return &RecurrenceEngine{
		orders:      deps.Orders,
		users:       deps.Users,
		frequencies: deps.Frequencies,
		numbers:     deps.Numbers,
		notifier:    deps.Notifier,
		lock:        deps.Lock,
		mode:        deps.Mode,
		loc:         deps.Location,
		clock:       deps.Clock,
		logger:      deps.Logger.Named("recurrence"),
	}
}

func (e *RecurrenceEngine) Mode() RecurrenceMode {
	return e.mode
}

func (e *RecurrenceEngine) today() models.Date {
	return models.DateOf(e.clock(), e.loc)
}

// ResolveFrequency prefers the referenced frequency template over the inline
// pattern.
func (e *RecurrenceEngine) ResolveFrequency(ctx context.Context, order *models.Order) (models.Frequency, error) {
	if order.FrequencyTemplateID != "" {
		tmpl, err := e.frequencies.GetByID(ctx, order.FrequencyTemplateID)
		if err == nil {
			return tmpl.Frequency(), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Frequency{}, fmt.Errorf("failed to load frequency template %s: %w", order.FrequencyTemplateID, err)
		}
	} else if order.RecurrencePattern != nil {
		return *order.RecurrencePattern, nil
	}
	return models.Frequency{}, fmt.Errorf("%w: frequency data not found for order %s", ErrValidation, order.OrderNumber)
}

// Schedule sets next_occurrence_date from the current delivery date.
// Non-recurring orders have it cleared.
func (e *RecurrenceEngine) Schedule(ctx context.Context, order *models.Order) error {
	if !order.IsRecurring {
		order.NextOccurrenceDate = ""
		return nil
	}
	f, err := e.ResolveFrequency(ctx, order)
	if err != nil {
		return err
	}
	if e.mode == ModeTemplateInstances {
		// On a template the field tracks the newest scheduled occurrence.
		if _, err := IntervalDays(f); err != nil {
			return err
		}
		order.NextOccurrenceDate = order.DeliveryDate
		if order.ID == "" {
			return nil
		}
		latest, err := e.orders.LatestDeliveryDate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to find latest instance: %w", err)
		}
		if latest.After(order.NextOccurrenceDate) {
			order.NextOccurrenceDate = latest
		}
		return nil
	}
	next, err := NextOccurrence(order.DeliveryDate, f)
	if err != nil {
		return err
	}
	order.NextOccurrenceDate = next
	return nil
}

// StartTemplate creates the first instance of a new template at the
// template's own delivery date. Only meaningful in template_instances mode.
func (e *RecurrenceEngine) StartTemplate(ctx context.Context, template *models.Order) (*models.Order, error) {
	if e.mode != ModeTemplateInstances || !template.IsRecurring {
		return nil, nil
	}
	if _, err := e.validateTemplate(ctx, template); err != nil {
		return nil, err
	}
	instance, err := e.createInstance(ctx, template, template.DeliveryDate)
	if err != nil {
		return nil, err
	}
	if template.NextOccurrenceDate != instance.DeliveryDate {
		template.NextOccurrenceDate = instance.DeliveryDate
		if err := e.orders.Update(ctx, template); err != nil {
			return instance, fmt.Errorf("failed to advance template %s: %w", template.OrderNumber, err)
		}
	}
	return instance, nil
}

// AfterDelivered runs the recurrence hook for an order that has just been
// delivered. The order is persisted when it changes.
func (e *RecurrenceEngine) AfterDelivered(ctx context.Context, order *models.Order, driverID, notes string) error {
	switch e.mode {
	case ModeRollForward:
		if !order.IsRecurring {
			return nil
		}
		f, err := e.ResolveFrequency(ctx, order)
		if err != nil {
			return err
		}
		occurrence := order.DeliveryDate
		if err := RollForward(order, f, e.clock(), driverID, notes); err != nil {
			return err
		}
		e.lock.Reset(order)
		if err := e.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("failed to roll order %s forward: %w", order.OrderNumber, err)
		}
		e.logger.Info("recurring order rolled forward",
			zap.String("order_number", order.OrderNumber),
			zap.String("delivered_occurrence", occurrence.String()),
			zap.String("next_delivery", order.DeliveryDate.String()))
		return nil

	case ModeTemplateInstances:
		template := order
		if !order.IsRecurring {
			if order.ParentRecurringID == "" {
				return nil
			}
			parent, err := e.orders.GetByID(ctx, order.ParentRecurringID)
			if err != nil {
				return notFound(err, "recurring order", order.ParentRecurringID)
			}
			template = parent
		}
		if !template.IsRecurring || template.Status == string(models.OrderCancelled) {
			return nil
		}
		_, err := e.Replenish(ctx, template)
		return err
	}
	return nil
}

// GenerateDueInstances creates one instance for every active template whose
// next occurrence is today. Failures are logged per template.
func (e *RecurrenceEngine) GenerateDueInstances(ctx context.Context) (int, error) {
	recurring := true
	templates, err := e.orders.Find(ctx, repository.OrderFilter{
		IsRecurring:     &recurring,
		ExcludeStatuses: []string{string(models.OrderCancelled)},
		NextOccurrence:  e.today(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load due templates: %w", err)
	}

	created := 0
	for i := range templates {
		template := &templates[i]
		instance, err := e.GenerateFromTemplate(ctx, template)
		if err != nil {
			e.logger.Warn("skipped recurring order generation",
				zap.String("template", template.OrderNumber),
				zap.Error(err))
			continue
		}
		created++
		e.logger.Info("generated recurring order instance",
			zap.String("template", template.OrderNumber),
			zap.String("order_number", instance.OrderNumber),
			zap.String("delivery_date", instance.DeliveryDate.String()))
	}
	return created, nil
}

// GenerateFromTemplate validates a template and creates the occurrence one
// interval after its next_occurrence_date, then advances the template.
func (e *RecurrenceEngine) GenerateFromTemplate(ctx context.Context, template *models.Order) (*models.Order, error) {
	f, err := e.validateTemplate(ctx, template)
	if err != nil {
		return nil, err
	}

	from := template.NextOccurrenceDate
	if from.IsZero() {
		from = template.DeliveryDate
	}
	next, err := NextOccurrence(from, f)
	if err != nil {
		return nil, err
	}

	today := e.today()
	if !next.After(today) {
		// Skip past the stale date so the template is picked up again later.
		for !next.After(today) {
			next, _ = NextOccurrence(next, f)
		}
		template.NextOccurrenceDate = next
		if err := e.orders.Update(ctx, template); err != nil {
			return nil, fmt.Errorf("failed to advance template %s: %w", template.OrderNumber, err)
		}
		return nil, fmt.Errorf("%w: computed occurrence is not in the future; advanced template %s to %s",
			ErrValidation, template.OrderNumber, next)
	}

	instance, err := e.createInstance(ctx, template, next)
	if err != nil {
		return nil, err
	}

	template.NextOccurrenceDate = next
	if err := e.orders.Update(ctx, template); err != nil {
		return instance, fmt.Errorf("failed to advance template %s: %w", template.OrderNumber, err)
	}
	return instance, nil
}

// Replenish tops up a template's future scheduled instances when fewer than
// the buffer threshold remain. It returns the number of orders created.
func (e *RecurrenceEngine) Replenish(ctx context.Context, template *models.Order) (int, error) {
	today := e.today()
	remaining, err := e.orders.Count(ctx, repository.OrderFilter{
		ParentRecurringID: template.ID,
		Statuses:          []string{string(models.OrderScheduled)},
		DeliveryAfter:     today,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count scheduled instances: %w", err)
	}
	if remaining >= replenishThreshold {
		return 0, nil
	}

	f, err := e.validateTemplate(ctx, template)
	if err != nil {
		return 0, err
	}

	cursor, err := e.orders.LatestDeliveryDate(ctx, template.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to find latest instance: %w", err)
	}
	if cursor.IsZero() || cursor.Before(template.NextOccurrenceDate) {
		cursor = template.NextOccurrenceDate
	}
	if cursor.IsZero() {
		cursor = template.DeliveryDate
	}

	horizon := today.AddDays(replenishHorizonDays)
	created := 0
	for i := 0; i < maxGenerationIterations; i++ {
		cursor, err = NextOccurrence(cursor, f)
		if err != nil {
			return created, err
		}
		if cursor.After(horizon) {
			break
		}
		if !cursor.After(today) {
			continue
		}
		if _, err := e.createInstance(ctx, template, cursor); err != nil {
			return created, err
		}
		template.NextOccurrenceDate = cursor
		created++
	}

	if created > 0 {
		if err := e.orders.Update(ctx, template); err != nil {
			return created, fmt.Errorf("failed to advance template %s: %w", template.OrderNumber, err)
		}
		e.logger.Info("replenished recurring instances",
			zap.String("template", template.OrderNumber),
			zap.Int("created", created),
			zap.Int64("remaining_before", remaining))
	}
	return created, nil
}

func (e *RecurrenceEngine) validateTemplate(ctx context.Context, template *models.Order) (models.Frequency, error) {
	if template.Status == string(models.OrderCancelled) || !template.IsRecurring {
		return models.Frequency{}, fmt.Errorf("%w: order %s is not an active recurring order", ErrValidation, template.OrderNumber)
	}
	if len(template.Items) == 0 {
		return models.Frequency{}, fmt.Errorf("%w: template %s has no items", ErrValidation, template.OrderNumber)
	}
	if !template.TotalAmount.IsPositive() {
		return models.Frequency{}, fmt.Errorf("%w: template %s total must be positive", ErrValidation, template.OrderNumber)
	}
	if _, err := e.users.GetByID(ctx, template.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Frequency{}, fmt.Errorf("%w: customer %s no longer exists", ErrValidation, template.CustomerID)
		}
		return models.Frequency{}, fmt.Errorf("failed to load customer %s: %w", template.CustomerID, err)
	}
	f, err := e.ResolveFrequency(ctx, template)
	if err != nil {
		return models.Frequency{}, err
	}
	if _, err := IntervalDays(f); err != nil {
		return models.Frequency{}, err
	}
	return f, nil
}

func (e *RecurrenceEngine) createInstance(ctx context.Context, template *models.Order, delivery models.Date) (*models.Order, error) {
	number, err := e.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(template.Items))
	copy(items, template.Items)

	instance := &models.Order{
		OrderNumber:         number,
		CustomerID:          template.CustomerID,
		CustomerName:        template.CustomerName,
		CustomerEmail:       template.CustomerEmail,
		Items:               items,
		PickupDate:          delivery.AddDays(-pickupLeadDays),
		DeliveryDate:        delivery,
		PickupAddress:       template.PickupAddress,
		DeliveryAddress:     template.DeliveryAddress,
		SpecialInstructions: template.SpecialInstructions,
		Status:              string(models.OrderScheduled),
		ParentRecurringID:   template.ID,
		CreatedBy:           template.CreatedBy,
	}
	if template.DriverID != "" {
		instance.DriverID = template.DriverID
		instance.DriverName = template.DriverName
		instance.DeliveryStatus = string(models.DeliveryAssigned)
	}
	ApplyTotals(instance)

	if err := e.orders.Create(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to create recurring instance: %w", err)
	}

	e.notifier.Notify(ctx, template.CustomerID, "Recurring order scheduled",
		fmt.Sprintf("Order %s has been scheduled for delivery on %s.", instance.OrderNumber, instance.DeliveryDate),
		models.NotificationRecurring)
	return instance, nil
}
