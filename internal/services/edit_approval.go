package services

import (
	"context"
	"fmt"

	"laundry_manager/internal/models"

	"go.uber.org/zap"
)

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewModify  ReviewAction = "modify"
	ReviewReject  ReviewAction = "reject"
)

// EditReview is a staff decision on a customer edit request. Changes is
// required for modify and ignored otherwise.
type EditReview struct {
	Action  ReviewAction         `json:"action"`
	Changes *models.OrderChanges `json:"modified_changes,omitempty"`
	Reason  string               `json:"rejection_reason,omitempty"`
}

func (s *orderService) SubmitEditRequest(ctx context.Context, req Requester, id string, changes models.OrderChanges) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.observeCutoff(ctx, order); err != nil {
		return nil, err
	}
	return s.stagePending(ctx, req, order, &changes, models.ModificationPendingCustomerEdit)
}

// ProposeModification applies staff changes directly and stages customer
// changes for owner approval.
func (s *orderService) ProposeModification(ctx context.Context, req Requester, id string, changes models.OrderChanges) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.observeCutoff(ctx, order); err != nil {
		return nil, err
	}
	switch {
	case req.IsStaff():
		return s.applyStaffEdit(ctx, req, order, &changes)
	case req.IsCustomer():
		return s.stagePending(ctx, req, order, &changes, models.ModificationPendingOwnerApproval)
	}
	return nil, fmt.Errorf("%w: drivers cannot modify orders", ErrForbidden)
}

func (s *orderService) ReviewEditRequest(ctx context.Context, req Requester, id string, review EditReview) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	expected := models.ModificationPendingCustomerEdit
	if order.ModificationStatus != string(expected) {
		return nil, fmt.Errorf("%w for order %s", ErrNoPendingRequest, order.OrderNumber)
	}

	switch review.Action {
	case ReviewApprove:
		return s.resolvePending(ctx, req, order, expected, order.PendingModifications)
	case ReviewModify:
		if review.Changes.IsEmpty() {
			return nil, fmt.Errorf("%w: modify requires replacement changes", ErrValidation)
		}
		return s.resolvePending(ctx, req, order, expected, review.Changes)
	case ReviewReject:
		return s.rejectPending(ctx, req, order, expected, review.Reason)
	}
	return nil, fmt.Errorf("%w: unknown review action %q", ErrValidation, review.Action)
}

func (s *orderService) ApproveModification(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	expected := models.ModificationPendingOwnerApproval
	if order.ModificationStatus != string(expected) {
		return nil, fmt.Errorf("%w for order %s", ErrNoPendingRequest, order.OrderNumber)
	}
	return s.resolvePending(ctx, req, order, expected, order.PendingModifications)
}

func (s *orderService) RejectModification(ctx context.Context, req Requester, id, reason string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	expected := models.ModificationPendingOwnerApproval
	if order.ModificationStatus != string(expected) {
		return nil, fmt.Errorf("%w for order %s", ErrNoPendingRequest, order.OrderNumber)
	}
	return s.rejectPending(ctx, req, order, expected, reason)
}

// ClearPendingApproval drops a stale request without reviewing it.
func (s *orderService) ClearPendingApproval(ctx context.Context, req Requester, id string) (*models.Order, error) {
	order, err := s.loadForStaff(ctx, req, id)
	if err != nil {
		return nil, err
	}
	order.ClearPending()
	order.RejectionReason = ""
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to clear pending approval: %w", err)
	}
	return order, nil
}

func (s *orderService) stagePending(ctx context.Context, req Requester, order *models.Order, changes *models.OrderChanges, status models.ModificationStatus) (*models.Order, error) {
	if !req.IsCustomer() {
		return nil, fmt.Errorf("%w: only the customer can request changes", ErrForbidden)
	}
	if order.CustomerID != req.UserID {
		return nil, fmt.Errorf("%w: order %s belongs to another customer", ErrForbidden, order.OrderNumber)
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrConflict, order.OrderNumber, order.Status)
	}
	if order.IsLocked {
		return nil, s.lockedError(order)
	}
	if order.HasPendingRequest() {
		return nil, fmt.Errorf("%w for order %s", ErrPendingRequestExists, order.OrderNumber)
	}
	if changes.IsEmpty() {
		return nil, fmt.Errorf("%w: no changes supplied", ErrValidation)
	}
	if changes.Status != nil {
		return nil, fmt.Errorf("%w: customers cannot change order status", ErrForbidden)
	}
	if changes.Items != nil {
		if err := validateItems(changes.Items); err != nil {
			return nil, err
		}
	}
	staged := *changes

	previous := order.ModificationStatus
	now := s.clock()
	order.PendingModifications = &staged
	order.ModificationStatus = string(status)
	order.ModifiedBy = req.UserID
	order.ModificationRequestedAt = &now
	order.RejectionReason = ""

	ok, err := s.orders.UpdateIfModificationStatus(ctx, order, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to store edit request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w for order %s", ErrPendingRequestExists, order.OrderNumber)
	}

	s.logger.Info("edit request submitted",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.ModificationStatus))
	s.notifyStaff(ctx, req.UserID, "Edit request for "+order.OrderNumber,
		fmt.Sprintf("%s requested changes to order %s: %s", order.CustomerName, order.OrderNumber, changes.Summary()),
		models.NotificationEditRequest)
	s.notifier.Notify(ctx, order.CustomerID, "Edit request submitted",
		fmt.Sprintf("Your changes to order %s are awaiting approval.", order.OrderNumber),
		models.NotificationEditRequest)
	return order, nil
}

// resolvePending applies changes with current pricing and closes the request.
// The write only lands while the request is still pending, so a second
// reviewer gets ErrNoPendingRequest.
func (s *orderService) resolvePending(ctx context.Context, req Requester, order *models.Order, expected models.ModificationStatus, changes *models.OrderChanges) (*models.Order, error) {
	if changes != nil {
		if changes.Status != nil {
			return nil, fmt.Errorf("%w: edit requests cannot change order status", ErrValidation)
		}
		if err := s.applyChanges(ctx, order, changes, true); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	order.ClearPending()
	order.ModificationStatus = string(models.ModificationApproved)
	order.ReviewedBy = req.UserID
	order.ReviewedAt = &now
	order.RejectionReason = ""

	ok, err := s.orders.UpdateIfModificationStatus(ctx, order, string(expected))
	if err != nil {
		return nil, fmt.Errorf("failed to apply edit request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w for order %s", ErrNoPendingRequest, order.OrderNumber)
	}

	summary := "no changes"
	if changes != nil {
		summary = changes.Summary()
	}
	s.logger.Info("edit request approved", zap.String("order_number", order.OrderNumber), zap.String("reviewer", req.UserID))
	s.notifier.Notify(ctx, order.CustomerID, "Changes approved for "+order.OrderNumber,
		fmt.Sprintf("Your requested changes were approved (%s). New total incl. GST: %s.", summary, order.TotalWithGST.StringFixed(moneyPlaces)),
		models.NotificationEditReviewed)
	s.notifyStaff(ctx, req.UserID, "Changes approved for "+order.OrderNumber, summary, models.NotificationEditReviewed)
	return order, nil
}

func (s *orderService) rejectPending(ctx context.Context, req Requester, order *models.Order, expected models.ModificationStatus, reason string) (*models.Order, error) {
	now := s.clock()
	order.ClearPending()
	order.ModificationStatus = string(models.ModificationRejected)
	order.RejectionReason = reason
	order.ReviewedBy = req.UserID
	order.ReviewedAt = &now

	ok, err := s.orders.UpdateIfModificationStatus(ctx, order, string(expected))
	if err != nil {
		return nil, fmt.Errorf("failed to reject edit request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w for order %s", ErrNoPendingRequest, order.OrderNumber)
	}

	message := fmt.Sprintf("Your requested changes to order %s were not approved.", order.OrderNumber)
	if reason != "" {
		message += " Reason: " + reason
	}
	s.notifier.Notify(ctx, order.CustomerID, "Changes rejected for "+order.OrderNumber, message, models.NotificationEditReviewed)
	return order, nil
}
