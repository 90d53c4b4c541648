package domain

import (
	"fmt"
	"strings"
	"time"
)

// PriceTier identifies the payment-timing option that selects which stored
// price applies to a product. The set is closed; use ParsePriceTier to accept
// external input.
type PriceTier string

const (
	// TierCash is the up-front payment price.
	TierCash PriceTier = "cash"
	// TierDays30 is the 30-day payment term price.
	TierDays30 PriceTier = "30d"
	// TierDays90 is the 90-day payment term price.
	TierDays90 PriceTier = "90d"
)

// PriceTiers lists every supported tier in display order.
func PriceTiers() []PriceTier {
	return []PriceTier{TierCash, TierDays30, TierDays90}
}

// ParsePriceTier normalises and validates a tier value received from a client.
func ParsePriceTier(raw string) (PriceTier, error) {
	switch PriceTier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierCash:
		return TierCash, nil
	case TierDays30:
		return TierDays30, nil
	case TierDays90:
		return TierDays90, nil
	}
	return "", fmt.Errorf("unknown price tier %q", raw)
}

// Label returns the tier name used on customer-facing order summaries.
func (t PriceTier) Label() string {
	switch t {
	case TierDays30:
		return "30 dias"
	case TierDays90:
		return "90 dias"
	default:
		return "à vista"
	}
}

// Valid reports whether the tier is one of the three defined values.
func (t PriceTier) Valid() bool {
	switch t {
	case TierCash, TierDays30, TierDays90:
		return true
	}
	return false
}

// Product is a catalog entry as supplied by the product catalog collaborator.
// Prices are centavos keyed by tier; at least one tier is expected to be set.
type Product struct {
	ID     string
	Name   string
	Images []string
	Prices map[PriceTier]int64
}

// CartLineItem is one row in a cart. Name, Image, and UnitPrice are snapshots
// taken when the line was created or re-tiered; they are not recomputed when
// the catalog changes.
type CartLineItem struct {
	ID        string
	ProductID string
	Name      string
	Image     string
	Size      string
	PriceTier PriceTier
	UnitPrice int64
	Quantity  int
	AddedAt   time.Time
	UpdatedAt *time.Time
}

// Subtotal returns the line contribution in centavos.
func (i CartLineItem) Subtotal() int64 {
	if i.Quantity <= 0 || i.UnitPrice <= 0 {
		return 0
	}
	return i.UnitPrice * int64(i.Quantity)
}

// CouponKind discriminates how a coupon value is interpreted.
type CouponKind string

const (
	// CouponPercentage discounts value percent of the order total.
	CouponPercentage CouponKind = "percentage"
	// CouponFixedAmount discounts value centavos, capped at the order total.
	CouponFixedAmount CouponKind = "fixed"
)

// Coupon is a discount code owned by the external admin service. The engine
// only ever reads coupons returned by the validation collaborator.
type Coupon struct {
	ID        int64
	Code      string
	Kind      CouponKind
	Value     int64
	ValidFrom *time.Time
	ValidTo   *time.Time
	Active    bool
}

// AppliedCoupon records the single coupon attached to a cart. Applying a new
// coupon replaces the previous one; coupons never stack.
type AppliedCoupon struct {
	Coupon    Coupon
	AppliedAt time.Time
}

// Cart holds the session's line items and the optionally applied coupon.
// Items keep insertion order for stable display.
type Cart struct {
	ID        string
	Items     []CartLineItem
	Coupon    *AppliedCoupon
	CreatedAt time.Time
	UpdatedAt time.Time

	// Unsaved is set when the last write-through persistence attempt failed.
	// The in-memory state is still authoritative for the session; the flag
	// lets callers and tests observe the degraded state. Never persisted.
	Unsaved bool
}

// Total sums unitPrice×quantity across all lines, in centavos.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// ItemCount sums the quantities across all lines.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		if item.Quantity > 0 {
			count += item.Quantity
		}
	}
	return count
}

// CartTotals is the derived pricing summary handed to the checkout composer.
type CartTotals struct {
	Subtotal int64
	Discount int64
	Total    int64
}
