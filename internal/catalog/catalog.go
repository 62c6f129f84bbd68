// Package catalog is the read-mostly product collaborator the pricing
// pipeline resolves against. Pricing depends on the Catalog interface only;
// prices must always be the current ones, never a cached copy.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a single-product lookup misses.
var ErrNotFound = errors.New("product not found")

// Product is one catalog entry. Inactive products are invisible to checkout.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Weight    string
	ImageURL  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Catalog is the read-only view the order pipeline depends on.
type Catalog interface {
	// FindActiveByIDs resolves the given ids in one batch, returning only
	// currently-active products keyed by id. Missing or inactive ids are
	// simply absent from the result; the caller decides whether that is
	// fatal.
	FindActiveByIDs(ctx context.Context, ids []string) (map[string]Product, error)

	// FindByID returns a single product regardless of active state.
	FindByID(ctx context.Context, id string) (Product, error)
}
