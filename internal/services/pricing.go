package services

import "github.com/vitrine-atacado/api/internal/domain"

// ResolveUnitPrice returns the product's price for the requested tier. When
// the tier has no price the cash tier is used instead; when neither exists
// the price is zero so the line stays representable and visibly unpriced.
func ResolveUnitPrice(product domain.Product, tier domain.PriceTier) int64 {
	if price, ok := product.Prices[tier]; ok && price >= 0 {
		return price
	}
	if price, ok := product.Prices[domain.TierCash]; ok && price >= 0 {
		return price
	}
	return 0
}

// CalculateDiscount computes the centavos discounted from a total. No coupon
// means no discount; percentage coupons take value percent of the total and
// fixed coupons take their face value. The result is clamped to [0, total].
func CalculateDiscount(coupon *domain.Coupon, total int64) int64 {
	if coupon == nil || total <= 0 {
		return 0
	}

	var discount int64
	switch coupon.Kind {
	case domain.CouponPercentage:
		if coupon.Value <= 0 {
			return 0
		}
		discount = total * coupon.Value / 100
	case domain.CouponFixedAmount:
		discount = coupon.Value
	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > total {
		return total
	}
	return discount
}
