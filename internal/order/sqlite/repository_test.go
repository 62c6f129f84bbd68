package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testOrder(paymentID string) *order.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &order.Order{
		ID:          uuid.NewString(),
		OrderNumber: "ORD-" + uuid.NewString(),
		CustomerID:  "c1",
		Items: []order.LineItem{
			{ProductID: "P1", Name: "Rice 5kg", UnitPrice: decimal.RequireFromString("50.00"), Quantity: 2, Weight: "5kg"},
		},
		Shipping: order.ShippingInfo{Name: "Ana", Phone: "555", Address: "Main 1", City: "Metropolis"},
		Payment: order.PaymentInfo{
			Method:           order.MethodCashOnDelivery,
			GatewayPaymentID: paymentID,
			Status:           order.PaymentPending,
		},
		Pricing: order.PricingSummary{
			Subtotal:    decimal.RequireFromString("100.00"),
			ShippingFee: decimal.Zero,
			Tax:         decimal.Zero,
			Total:       decimal.RequireFromString("100.00"),
		},
		Status:    order.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := testOrder("")
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	assert.Equal(t, o.CustomerID, got.CustomerID)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, got.Pricing.Total.Equal(o.Pricing.Total))
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Empty(t, got.AssignedCourierID)
}

func TestGetMissingOrder(t *testing.T) {
	repo := setupTestRepo(t)
	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestUniqueGatewayPaymentID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := testOrder("pay_1")
	require.NoError(t, repo.Create(ctx, first))

	dup := testOrder("pay_1")
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, order.ErrDuplicatePayment)

	// The winner is retrievable by payment id.
	got, err := repo.GetByGatewayPaymentID(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestEmptyPaymentIDsDoNotCollide(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// Cash-on-delivery orders all carry an empty payment id; the partial
	// unique index must not treat them as duplicates of each other.
	require.NoError(t, repo.Create(ctx, testOrder("")))
	require.NoError(t, repo.Create(ctx, testOrder("")))

	_, err := repo.GetByGatewayPaymentID(ctx, "")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestAcceptOrderConditionalWrite(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := testOrder("")
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.AcceptOrder(ctx, o.ID, "courier-a"))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "courier-a", got.AssignedCourierID)
	assert.Equal(t, order.StatusConfirmed, got.Status)

	// Re-accepting your own order is fine; another courier loses.
	require.NoError(t, repo.AcceptOrder(ctx, o.ID, "courier-a"))
	assert.ErrorIs(t, repo.AcceptOrder(ctx, o.ID, "courier-b"), order.ErrAlreadyAssigned)

	// A missing order is NotFound, not AlreadyAssigned.
	assert.ErrorIs(t, repo.AcceptOrder(ctx, "nope", "courier-a"), order.ErrNotFound)
}

func TestRejectOrderConditionalWrite(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := testOrder("")
	require.NoError(t, repo.Create(ctx, o))
	require.NoError(t, repo.AcceptOrder(ctx, o.ID, "courier-a"))

	// Only the holder may release.
	assert.ErrorIs(t, repo.RejectOrder(ctx, o.ID, "courier-b"), order.ErrNotAuthorizedForOrder)

	require.NoError(t, repo.RejectOrder(ctx, o.ID, "courier-a"))
	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AssignedCourierID)
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestUpdateStatusAndPaymentCollected(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := testOrder("")
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, order.StatusPending, order.StatusShipped, "", nil))
	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.False(t, got.PaymentCollected)

	collected := true
	require.NoError(t, repo.UpdateStatus(ctx, o.ID, order.StatusShipped, order.StatusDelivered, "", &collected))
	got, err = repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, got.Status)
	assert.True(t, got.PaymentCollected)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", order.StatusPending, order.StatusShipped, "", nil), order.ErrNotFound)
}

func TestUpdateStatusIsCompareAndSet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := testOrder("")
	require.NoError(t, repo.Create(ctx, o))

	// A write whose expected status is stale must not land.
	err := repo.UpdateStatus(ctx, o.ID, order.StatusShipped, order.StatusDelivered, "", nil)
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)

	// A courier-conditioned write fails once the order belongs to another
	// courier, even when the status still matches.
	require.NoError(t, repo.AssignCourier(ctx, o.ID, "courier-b"))
	err = repo.UpdateStatus(ctx, o.ID, order.StatusProcessing, order.StatusOnTheWay, "courier-a", nil)
	assert.ErrorIs(t, err, order.ErrNotAuthorizedForOrder)

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, order.StatusProcessing, order.StatusOnTheWay, "courier-b", nil))
	got, err = repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusOnTheWay, got.Status)
}

func TestListViews(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	a := testOrder("")
	b := testOrder("")
	b.CustomerID = "c2"
	c := testOrder("")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.AcceptOrder(ctx, b.ID, "courier-a"))
	require.NoError(t, repo.UpdateStatus(ctx, c.ID, order.StatusPending, order.StatusDelivered, "", nil))

	mine, err := repo.ListByCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := repo.ListByStatus(ctx, []order.Status{order.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	assigned, err := repo.ListByCourier(ctx, "courier-a", order.AssignedView)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, b.ID, assigned[0].ID)

	available, err := repo.ListUnassigned(ctx, order.AvailableView)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, a.ID, available[0].ID)
}

func TestAssignCourierForcesProcessing(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := testOrder("")
	require.NoError(t, repo.Create(ctx, o))
	require.NoError(t, repo.AssignCourier(ctx, o.ID, "courier-z"))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "courier-z", got.AssignedCourierID)
	assert.Equal(t, order.StatusProcessing, got.Status)
}

func TestIncrementDeliveries(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	n, err := repo.Deliveries(ctx, "courier-a")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.IncrementDeliveries(ctx, "courier-a"))
	require.NoError(t, repo.IncrementDeliveries(ctx, "courier-a"))

	n, err = repo.Deliveries(ctx, "courier-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestNextOrderSeqIsMonotonic(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	s1, err := repo.NextOrderSeq(ctx)
	require.NoError(t, err)
	s2, err := repo.NextOrderSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, s1+1, s2)
}
