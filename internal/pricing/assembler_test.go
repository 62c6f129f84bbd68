package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/catalog"
	"github.com/jcmexdev/storefront-orders/internal/order"
)

// fakeCatalog serves products from a map; inactive products are invisible
// to the batch lookup, like the real store.
type fakeCatalog struct {
	products map[string]catalog.Product
	calls    int
}

func (f *fakeCatalog) FindActiveByIDs(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	f.calls++
	out := make(map[string]catalog.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok && p.Active {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindByID(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[string]catalog.Product{
		"P1": {ID: "P1", Name: "Rice 5kg", Price: decimal.RequireFromString("50.00"), Weight: "5kg", Active: true},
		"P2": {ID: "P2", Name: "Olive Oil", Price: decimal.RequireFromString("30.00"), Active: true},
		"P3": {ID: "P3", Name: "Discontinued", Price: decimal.RequireFromString("10.00"), Active: false},
	}}
}

func TestAssembleComputesDocumentedExample(t *testing.T) {
	a := NewAssembler(testCatalog())

	items, sum, err := a.Assemble(context.Background(), []order.CartEntry{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "130", sum.Subtotal.String())
	assert.True(t, sum.ShippingFee.IsZero())
	assert.True(t, sum.Tax.IsZero())
	assert.Equal(t, "130", sum.Total.String())
	assert.Equal(t, int64(13000), sum.TotalMinorUnits())

	// Line items freeze catalog metadata at resolution time.
	assert.Equal(t, "Rice 5kg", items[0].Name)
	assert.Equal(t, "5kg", items[0].Weight)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAssembleNormalization(t *testing.T) {
	a := NewAssembler(testCatalog())

	items, _, err := a.Assemble(context.Background(), []order.CartEntry{
		{ProductID: "", Quantity: 3},     // dropped: no product id
		{ProductID: "P1", Quantity: 0},   // clamps to 1
		{ProductID: "P2", Quantity: -42}, // clamps to 1
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestAssembleDuplicatesNotMerged(t *testing.T) {
	a := NewAssembler(testCatalog())

	items, sum, err := a.Assemble(context.Background(), []order.CartEntry{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "P2", Quantity: 1},
		{ProductID: "P1", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Insertion order preserved, each occurrence its own line.
	assert.Equal(t, "P1", items[0].ProductID)
	assert.Equal(t, "P2", items[1].ProductID)
	assert.Equal(t, "P1", items[2].ProductID)
	assert.Equal(t, "180", sum.Total.String())
}

func TestAssembleEmptyCheckout(t *testing.T) {
	a := NewAssembler(testCatalog())

	_, _, err := a.Assemble(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCheckout)

	_, _, err = a.Assemble(context.Background(), []order.CartEntry{{ProductID: "  "}})
	assert.ErrorIs(t, err, ErrEmptyCheckout)
}

func TestAssembleUnresolvableProductIsHardFail(t *testing.T) {
	a := NewAssembler(testCatalog())

	// One unknown id fails the whole checkout; no partial assembly.
	_, _, err := a.Assemble(context.Background(), []order.CartEntry{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "NOPE", Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrProductsUnavailable)
	assert.Contains(t, err.Error(), "NOPE")

	// Inactive products count as unavailable too.
	_, _, err = a.Assemble(context.Background(), []order.CartEntry{{ProductID: "P3", Quantity: 1}})
	assert.ErrorIs(t, err, ErrProductsUnavailable)
}

func TestAssembleSingleBatchLookupAndDeterminism(t *testing.T) {
	c := testCatalog()
	a := NewAssembler(c)
	entries := []order.CartEntry{{ProductID: "P1", Quantity: 2}, {ProductID: "P2", Quantity: 1}}

	items1, sum1, err := a.Assemble(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls, "all products resolve in one batch lookup")

	items2, sum2, err := a.Assemble(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, items1, items2)
	assert.True(t, sum1.Total.Equal(sum2.Total))
}
