// Package pricing turns a raw, untrusted cart into priced line items and a
// pricing summary. It is the only place order totals are computed; client
// submitted prices never survive past this boundary.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/catalog"
	"github.com/jcmexdev/storefront-orders/internal/order"
)

var (
	// ErrEmptyCheckout means normalization left nothing to buy.
	ErrEmptyCheckout = errors.New("no items to checkout")

	// ErrProductsUnavailable means at least one requested product did not
	// resolve to an active catalog entry. Checkout is all-or-nothing.
	ErrProductsUnavailable = errors.New("some products are unavailable")
)

// Assembler implements order.Assembler against a live catalog view.
type Assembler struct {
	catalog catalog.Catalog
}

func NewAssembler(c catalog.Catalog) *Assembler {
	return &Assembler{catalog: c}
}

// Assemble normalizes the cart, resolves every product in one batch lookup
// restricted to active entries, and freezes current prices into line items.
//
// Normalization: entries without a product id are dropped; quantities
// clamp to 1 when non-positive. Duplicate product ids are NOT merged — each
// occurrence becomes its own line item, in insertion order. The result is a
// deterministic function of the input and catalog state.
func (a *Assembler) Assemble(ctx context.Context, entries []order.CartEntry) ([]order.LineItem, order.PricingSummary, error) {
	normalized := make([]order.CartEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.ProductID) == "" {
			continue
		}
		if e.Quantity <= 0 {
			e.Quantity = 1
		}
		normalized = append(normalized, e)
	}
	if len(normalized) == 0 {
		return nil, order.PricingSummary{}, ErrEmptyCheckout
	}

	ids := make([]string, len(normalized))
	for i, e := range normalized {
		ids[i] = e.ProductID
	}
	products, err := a.catalog.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, order.PricingSummary{}, fmt.Errorf("resolve products: %w", err)
	}

	var missing []string
	for _, e := range normalized {
		if _, ok := products[e.ProductID]; !ok {
			missing = append(missing, e.ProductID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, order.PricingSummary{}, fmt.Errorf("%w: %s", ErrProductsUnavailable, strings.Join(missing, ", "))
	}

	items := make([]order.LineItem, 0, len(normalized))
	subtotal := decimal.Zero
	for _, e := range normalized {
		p := products[e.ProductID]
		li := order.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  e.Quantity,
			Weight:    p.Weight,
			ImageURL:  p.ImageURL,
		}
		items = append(items, li)
		subtotal = subtotal.Add(li.Subtotal())
	}

	// Shipping and tax are a fixed zero policy for now; any future pricing
	// rules must extend this summary rather than bypass it.
	sum := order.PricingSummary{
		Subtotal:    subtotal,
		ShippingFee: decimal.Zero,
		Tax:         decimal.Zero,
	}
	sum.Total = sum.Subtotal.Add(sum.ShippingFee).Add(sum.Tax)
	return items, sum, nil
}
