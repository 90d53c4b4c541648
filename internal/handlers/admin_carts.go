package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-atacado/api/internal/platform/httpx"
	"github.com/vitrine-atacado/api/internal/platform/pagination"
	"github.com/vitrine-atacado/api/internal/services"
)

// AdminHandlers exposes the operational cart listing.
type AdminHandlers struct {
	carts    services.CartService
	maxLimit int
}

// NewAdminHandlers constructs handlers for the admin routes. maxLimit caps
// the page size; non-positive values fall back to the pagination default.
func NewAdminHandlers(carts services.CartService, maxLimit int) *AdminHandlers {
	if maxLimit <= 0 {
		maxLimit = pagination.DefaultMaxLimit
	}
	return &AdminHandlers{carts: carts, maxLimit: maxLimit}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/carts", h.listCarts)
}

type adminCartsResponse struct {
	Carts []adminCartSummary `json:"carts"`
	Total int                `json:"total"`
	Skip  int                `json:"skip"`
	Limit int                `json:"limit"`
	Pages int                `json:"pages"`
}

type adminCartSummary struct {
	ID         string    `json:"id"`
	ItemCount  int       `json:"itemCount"`
	Subtotal   int64     `json:"subtotal"`
	Total      int64     `json:"total"`
	CouponCode string    `json:"couponCode,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (h *AdminHandlers) listCarts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	params := pagination.FromRequest(r, h.maxLimit)

	page, err := h.carts.ListCarts(ctx, params.Skip, params.Limit)
	if err != nil {
		writeCartServiceError(ctx, w, err)
		return
	}

	summaries := make([]adminCartSummary, len(page.Carts))
	for i, cart := range page.Carts {
		totals := h.carts.Totals(cart)
		summary := adminCartSummary{
			ID:        cart.ID,
			ItemCount: cart.ItemCount(),
			Subtotal:  totals.Subtotal,
			Total:     totals.Total,
			UpdatedAt: cart.UpdatedAt,
		}
		if cart.Coupon != nil {
			summary.CouponCode = cart.Coupon.Coupon.Code
		}
		summaries[i] = summary
	}

	writeJSONResponse(w, http.StatusOK, adminCartsResponse{
		Carts: summaries,
		Total: page.Total,
		Skip:  params.Skip,
		Limit: params.Limit,
		Pages: pagination.TotalPages(page.Total, params.Limit),
	})
}
