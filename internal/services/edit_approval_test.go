package services

import (
	"sync"
	"testing"

	"laundry_manager/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditFixture(t *testing.T) (*fixture, *models.Order) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	order := f.createOrder("2024-03-10")
	return f, order
}

func TestSubmitEditRequest(t *testing.T) {
	f, order := newEditFixture(t)

	got, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{
		SpecialInstructions: ptr("no starch"),
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.ModificationPendingCustomerEdit), got.ModificationStatus)

	stored := f.reload(order.ID)
	require.NotNil(t, stored.PendingModifications)
	assert.Equal(t, "no starch", *stored.PendingModifications.SpecialInstructions)
	assert.Empty(t, stored.SpecialInstructions, "pending changes must not be applied")
	assert.Equal(t, f.customer.ID, stored.ModifiedBy)
	assert.NotEmpty(t, f.notifier.to(f.owner.ID))
}

func TestDuplicateEditRequestConflicts(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("a")})
	require.NoError(t, err)

	_, err = f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("b")})
	assert.ErrorIs(t, err, ErrPendingRequestExists)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestEditRequestRules(t *testing.T) {
	f, order := newEditFixture(t)
	other := f.user("Other Customer", models.RoleCustomer)

	_, err := f.orders.SubmitEditRequest(f.ctx, as(other), order.ID, models.OrderChanges{SpecialInstructions: ptr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{Status: ptr("delivered")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{Items: items("10", 0)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEditRequestAfterCutoffIsLocked(t *testing.T) {
	f, order := newEditFixture(t)
	f.now = utc("2024-03-10T00:00:00Z")

	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("late")})
	assert.ErrorIs(t, err, ErrOrderLocked)
	assert.ErrorContains(t, err, "2024-03-09")

	stored := f.reload(order.ID)
	assert.True(t, stored.IsLocked)
	assert.Equal(t, string(models.LockAutomatic), stored.LockType)
}

func TestApproveEditRequest(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{
		DeliveryDate:        ptr(models.Date("2024-03-12")),
		SpecialInstructions: ptr("fold shirts"),
	})
	require.NoError(t, err)

	got, err := f.orders.ReviewEditRequest(f.ctx, as(f.owner), order.ID, EditReview{Action: ReviewApprove})
	require.NoError(t, err)
	assert.Equal(t, string(models.ModificationApproved), got.ModificationStatus)

	stored := f.reload(order.ID)
	assert.Equal(t, models.Date("2024-03-12"), stored.DeliveryDate)
	assert.Equal(t, "fold shirts", stored.SpecialInstructions)
	assert.Nil(t, stored.PendingModifications)
	assert.Equal(t, f.owner.ID, stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)

	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.owner), order.ID, EditReview{Action: ReviewApprove})
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestApproveRepricesItems(t *testing.T) {
	f, order := newEditFixture(t)
	require.NoError(t, f.deps.Pricing.CreateSKU(f.ctx, &models.SKU{ID: "sku-shirt", Name: "Shirt", Price: decimal.RequireFromString("100")}))

	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{Items: items("1", 2)})
	require.NoError(t, err)
	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.admin), order.ID, EditReview{Action: ReviewApprove})
	require.NoError(t, err)

	stored := f.reload(order.ID)
	assert.Equal(t, "200.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, "20.00", stored.GSTAmount.StringFixed(2))
	assert.Equal(t, "220.00", stored.TotalWithGST.StringFixed(2))
}

func TestModifyEditRequest(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("mine")})
	require.NoError(t, err)

	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.owner), order.ID, EditReview{Action: ReviewModify})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.owner), order.ID, EditReview{
		Action:  ReviewModify,
		Changes: &models.OrderChanges{SpecialInstructions: ptr("staff version")},
	})
	require.NoError(t, err)
	assert.Equal(t, "staff version", f.reload(order.ID).SpecialInstructions)
}

func TestRejectEditRequest(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{Items: items("1", 1)})
	require.NoError(t, err)

	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.owner), order.ID, EditReview{Action: ReviewReject, Reason: "too late to change"})
	require.NoError(t, err)

	stored := f.reload(order.ID)
	assert.Equal(t, string(models.ModificationRejected), stored.ModificationStatus)
	assert.Equal(t, "too late to change", stored.RejectionReason)
	assert.Equal(t, "396.00", stored.TotalWithGST.StringFixed(2), "rejected changes leave the order untouched")
	assert.Nil(t, stored.PendingModifications)

	// A new request may follow a rejection.
	_, err = f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("again")})
	assert.NoError(t, err)
}

func TestReviewRequiresStaff(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("x")})
	require.NoError(t, err)

	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.customer), order.ID, EditReview{Action: ReviewApprove})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConcurrentReviewsApplyOnce(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.SubmitEditRequest(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("x")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, reviewer := range []*models.User{f.owner, f.admin} {
		wg.Add(1)
		go func(i int, reviewer *models.User) {
			defer wg.Done()
			_, errs[i] = f.orders.ReviewEditRequest(f.ctx, as(reviewer), order.ID, EditReview{Action: ReviewApprove})
		}(i, reviewer)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrNoPendingRequest)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestOwnerApprovalFlow(t *testing.T) {
	f, order := newEditFixture(t)

	got, err := f.orders.ProposeModification(f.ctx, as(f.customer), order.ID, models.OrderChanges{PickupAddress: ptr("1 New Rd")})
	require.NoError(t, err)
	assert.Equal(t, string(models.ModificationPendingOwnerApproval), got.ModificationStatus)

	// The customer-edit review path does not accept owner-approval requests.
	_, err = f.orders.ReviewEditRequest(f.ctx, as(f.owner), order.ID, EditReview{Action: ReviewApprove})
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	_, err = f.orders.ApproveModification(f.ctx, as(f.owner), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 New Rd", f.reload(order.ID).PickupAddress)

	_, err = f.orders.RejectModification(f.ctx, as(f.owner), order.ID, "")
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestStaffModificationAppliesDirectly(t *testing.T) {
	f, order := newEditFixture(t)

	got, err := f.orders.ProposeModification(f.ctx, as(f.admin), order.ID, models.OrderChanges{Items: items("50", 1)})
	require.NoError(t, err)
	assert.Empty(t, got.ModificationStatus)
	assert.Equal(t, "55.00", f.reload(order.ID).TotalWithGST.StringFixed(2))
}

func TestClearPendingApproval(t *testing.T) {
	f, order := newEditFixture(t)
	_, err := f.orders.ProposeModification(f.ctx, as(f.customer), order.ID, models.OrderChanges{SpecialInstructions: ptr("x")})
	require.NoError(t, err)

	_, err = f.orders.ClearPendingApproval(f.ctx, as(f.owner), order.ID)
	require.NoError(t, err)

	stored := f.reload(order.ID)
	assert.Empty(t, stored.ModificationStatus)
	assert.Nil(t, stored.PendingModifications)
}
