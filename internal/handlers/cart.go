package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/platform/httpx"
	"github.com/vitrine-atacado/api/internal/platform/requestctx"
	"github.com/vitrine-atacado/api/internal/services"
)

// CartHandlers exposes the session-scoped cart endpoints.
type CartHandlers struct {
	carts       services.CartService
	coupons     services.CouponService
	couponLimit rateLimiter
}

// CartHandlerOption customises cart handler construction.
type CartHandlerOption func(*CartHandlers)

// WithCouponRateLimit caps coupon validation attempts per session and window.
func WithCouponRateLimit(limit int, window time.Duration) CartHandlerOption {
	return func(h *CartHandlers) {
		h.couponLimit = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewCartHandlers constructs handlers for the cart routes.
func NewCartHandlers(carts services.CartService, coupons services.CouponService, opts ...CartHandlerOption) *CartHandlers {
	h := &CartHandlers{carts: carts, coupons: coupons}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{lineId}", h.updateItem)
	r.Delete("/items/{lineId}", h.removeItem)
	r.Post("/tier", h.updateAllTiers)
	r.Post("/coupon", h.applyCoupon)
	r.Delete("/coupon", h.removeCoupon)
}

type productRequest struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Images []string         `json:"images"`
	Prices map[string]int64 `json:"prices"`
}

type addItemRequest struct {
	Product  productRequest `json:"product"`
	Size     string         `json:"size"`
	Quantity int            `json:"quantity"`
	Tier     string         `json:"tier"`
}

type updateItemRequest struct {
	Quantity *int            `json:"quantity"`
	Tier     *string         `json:"tier"`
	Product  *productRequest `json:"product"`
}

type updateTiersRequest struct {
	Tier     string           `json:"tier"`
	Products []productRequest `json:"products"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.Clear(ctx, sessionID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	tier, err := parseOptionalTier(req.Tier)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cart, err := h.carts.AddItem(ctx, services.AddItemCommand{
		SessionID: sessionID,
		Product:   buildProduct(req.Product),
		Size:      req.Size,
		Quantity:  req.Quantity,
		Tier:      tier,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	h.writeCartStatus(w, cart, http.StatusCreated)
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}
	lineID := strings.TrimSpace(chi.URLParam(r, "lineId"))

	var req updateItemRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}
	if req.Quantity == nil && req.Tier == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity or tier is required", http.StatusBadRequest))
		return
	}

	var (
		cart domain.Cart
		err  error
	)

	if req.Tier != nil {
		tier, parseErr := parseOptionalTier(*req.Tier)
		if parseErr != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", parseErr.Error(), http.StatusBadRequest))
			return
		}
		if req.Product == nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product snapshot is required to change tier", http.StatusBadRequest))
			return
		}
		cart, err = h.carts.UpdatePriceTier(ctx, services.UpdatePriceTierCommand{
			SessionID: sessionID,
			LineID:    lineID,
			Tier:      tier,
			Product:   buildProduct(*req.Product),
		})
		if err != nil {
			h.writeCartError(ctx, w, err)
			return
		}
	}

	if req.Quantity != nil {
		cart, err = h.carts.UpdateQuantity(ctx, services.UpdateQuantityCommand{
			SessionID: sessionID,
			LineID:    lineID,
			Quantity:  *req.Quantity,
		})
		if err != nil {
			// Quantity zero removing the line already retiered is still fine;
			// a missing line after the tier update means a concurrent delete.
			h.writeCartError(ctx, w, err)
			return
		}
	}

	h.writeCart(w, cart)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}
	lineID := strings.TrimSpace(chi.URLParam(r, "lineId"))

	cart, err := h.carts.RemoveItem(ctx, sessionID, lineID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandlers) updateAllTiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}

	var req updateTiersRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	tier, err := parseOptionalTier(req.Tier)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	products := make(map[string]domain.Product, len(req.Products))
	for _, p := range req.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		products[id] = buildProduct(p)
	}

	cart, err := h.carts.UpdateAllPriceTiers(ctx, services.UpdateAllPriceTiersCommand{
		SessionID: sessionID,
		Tier:      tier,
		Products:  products,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandlers) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}
	if h.coupons == nil {
		httpx.WriteError(ctx, w, httpx.NewError("coupon_service_unavailable", "coupon service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.couponLimit != nil && !h.couponLimit.Allow(sessionID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many coupon attempts; try again shortly", http.StatusTooManyRequests))
		return
	}

	var req applyCouponRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	cart, err := h.coupons.ApplyCoupon(ctx, sessionID, req.Code)
	if err != nil {
		h.writeCouponError(ctx, w, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandlers) removeCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(ctx, w)
	if !ok {
		return
	}
	if h.coupons == nil {
		httpx.WriteError(ctx, w, httpx.NewError("coupon_service_unavailable", "coupon service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.coupons.RemoveCoupon(ctx, sessionID)
	if err != nil {
		h.writeCouponError(ctx, w, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandlers) sessionID(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	return sessionFromContext(ctx, w)
}

func sessionFromContext(ctx context.Context, w http.ResponseWriter) (string, bool) {
	sessionID := strings.TrimSpace(requestctx.SessionID(ctx))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "session identifier is required", http.StatusBadRequest))
		return "", false
	}
	return sessionID, true
}

func (h *CartHandlers) writeCart(w http.ResponseWriter, cart domain.Cart) {
	h.writeCartStatus(w, cart, http.StatusOK)
}

func (h *CartHandlers) writeCartStatus(w http.ResponseWriter, cart domain.Cart, status int) {
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	writeJSONResponse(w, status, cartResponse{Cart: buildCartPayload(cart, h.carts.Totals(cart))})
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	writeCartServiceError(ctx, w, err)
}

func writeCartServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("line_not_found", "cart line not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "cart operation failed", http.StatusInternalServerError))
	}
}

func (h *CartHandlers) writeCouponError(ctx context.Context, w http.ResponseWriter, err error) {
	var rejection *services.CouponRejectionError
	switch {
	case errors.As(err, &rejection):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_rejected", rejection.Message, http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"code": rejection.Code}))
	case errors.Is(err, services.ErrCouponSuperseded):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_superseded", "a newer coupon attempt replaced this one", http.StatusConflict))
	case errors.Is(err, services.ErrCouponInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "coupon code is required", http.StatusBadRequest))
	default:
		h.writeCartError(ctx, w, err)
	}
}

func decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		} else {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func buildProduct(req productRequest) domain.Product {
	prices := make(map[domain.PriceTier]int64, len(req.Prices))
	for key, value := range req.Prices {
		tier, err := domain.ParsePriceTier(key)
		if err != nil {
			continue
		}
		prices[tier] = value
	}
	return domain.Product{
		ID:     strings.TrimSpace(req.ID),
		Name:   strings.TrimSpace(req.Name),
		Images: req.Images,
		Prices: prices,
	}
}

func parseOptionalTier(raw string) (domain.PriceTier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.TierCash, nil
	}
	tier, err := domain.ParsePriceTier(raw)
	if err != nil {
		return "", fmt.Errorf("unknown price tier %q", raw)
	}
	return tier, nil
}
