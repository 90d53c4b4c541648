package services

import (
	"context"

	"github.com/vitrine-atacado/api/internal/domain"
)

// CartService owns all cart mutations. Mutations for the same session are
// serialised; reads reflect the latest mutation even when the backing store
// rejected the write (the returned cart carries Unsaved=true in that case).
type CartService interface {
	// GetCart returns the session's cart, or a fresh empty cart when none
	// exists yet.
	GetCart(ctx context.Context, sessionID string) (domain.Cart, error)
	// AddItem merges the product into the cart, incrementing quantity when a
	// line with the same product, size and name exists.
	AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error)
	// RemoveItem deletes a line. Removing an absent line is a no-op.
	RemoveItem(ctx context.Context, sessionID, lineID string) (domain.Cart, error)
	// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
	UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (domain.Cart, error)
	// UpdatePriceTier switches one line to a tier, re-resolving its unit price.
	UpdatePriceTier(ctx context.Context, cmd UpdatePriceTierCommand) (domain.Cart, error)
	// UpdateAllPriceTiers switches every line to a tier. Lines whose product
	// is missing from the catalog snapshot keep their stale unit price.
	UpdateAllPriceTiers(ctx context.Context, cmd UpdateAllPriceTiersCommand) (domain.Cart, error)
	// SetCoupon attaches or clears the cart's coupon. A non-nil guard runs
	// under the session lock immediately before the write; when it reports
	// false the write is abandoned with ErrCouponSuperseded.
	SetCoupon(ctx context.Context, sessionID string, coupon *domain.AppliedCoupon, guard func() bool) (domain.Cart, error)
	// Clear empties the cart, coupon included, and persists the empty state.
	Clear(ctx context.Context, sessionID string) (domain.Cart, error)
	// ListCarts pages over stored carts, most recently updated first.
	ListCarts(ctx context.Context, skip, limit int) (CartPage, error)
	// Totals derives subtotal, discount and payable total for a cart snapshot.
	Totals(cart domain.Cart) domain.CartTotals
}

// CouponService validates coupon codes against the external coupon service
// and attaches the outcome to the cart.
type CouponService interface {
	// ApplyCoupon validates the code and stores it on the cart, replacing any
	// prior coupon. Completions from superseded attempts are discarded.
	ApplyCoupon(ctx context.Context, sessionID, code string) (domain.Cart, error)
	// RemoveCoupon clears the cart's coupon. Removing when none is applied is
	// a no-op.
	RemoveCoupon(ctx context.Context, sessionID string) (domain.Cart, error)
}

// AddItemCommand describes an add-to-cart request. The product snapshot comes
// from the caller; the service never reaches into a catalog.
type AddItemCommand struct {
	SessionID string
	Product   domain.Product
	Size      string
	Quantity  int
	Tier      domain.PriceTier
}

// UpdateQuantityCommand sets an absolute quantity on an existing line.
type UpdateQuantityCommand struct {
	SessionID string
	LineID    string
	Quantity  int
}

// UpdatePriceTierCommand retiers a single line using a fresh product snapshot.
type UpdatePriceTierCommand struct {
	SessionID string
	LineID    string
	Tier      domain.PriceTier
	Product   domain.Product
}

// UpdateAllPriceTiersCommand retiers the whole cart. Products maps product ID
// to its current snapshot; absent entries leave that line's price untouched.
type UpdateAllPriceTiersCommand struct {
	SessionID string
	Tier      domain.PriceTier
	Products  map[string]domain.Product
}

// CartPage is one page of the admin cart listing.
type CartPage struct {
	Carts []domain.Cart
	Total int
	Skip  int
	Limit int
}
