package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/vitrine-atacado/api/internal/couponapi"
)

func TestGetCartNewSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "session-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cart := decodeCart(t, rec)
	if cart.ID != "session-1" || len(cart.Items) != 0 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
}

func TestGetCartMintsSessionWhenHeaderAbsent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	minted := rec.Header().Get(SessionHeader)
	if minted == "" {
		t.Fatal("expected minted session id echoed in response header")
	}
	cart := decodeCart(t, rec)
	if cart.ID != minted {
		t.Fatalf("cart id %q does not match minted session %q", cart.ID, minted)
	}
}

func TestAddItemAndMerge(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 2, "cash"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cart := decodeCart(t, rec)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 || cart.Items[0].UnitPrice != 4990 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if cart.Totals.Subtotal != 9980 || cart.Totals.Total != 9980 {
		t.Fatalf("unexpected totals: %+v", cart.Totals)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 3, "cash"))
	cart = decodeCart(t, rec)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged line qty 5, got %+v", cart.Items)
	}
}

func TestAddItemValidation(t *testing.T) {
	env := newTestEnv(t)

	body := addItemBody("prod-1", "Blusa", 0, "cash")
	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", rec.Code)
	}

	body = addItemBody("prod-1", "Blusa", 1, "weekly")
	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown tier, got %d", rec.Code)
	}
}

func TestUpdateQuantityAndRemoveLine(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 2, "cash"))
	lineID := decodeCart(t, rec).Items[0].ID

	rec = env.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, "s1", map[string]any{"quantity": 9})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if cart := decodeCart(t, rec); cart.Items[0].Quantity != 9 {
		t.Fatalf("expected quantity 9, got %+v", cart.Items)
	}

	// Patch to zero removes the line.
	rec = env.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, "s1", map[string]any{"quantity": 0})
	if cart := decodeCart(t, rec); len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", cart.Items)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, "s1", map[string]any{"quantity": 1})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing line, got %d", rec.Code)
	}

	// Deleting an absent line is a no-op.
	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/"+lineID, "s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for delete of absent line, got %d", rec.Code)
	}
}

func TestUpdateLineTier(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 1, "cash"))
	lineID := decodeCart(t, rec).Items[0].ID

	body := map[string]any{
		"tier": "30d",
		"product": productRequest{
			ID:     "prod-1",
			Name:   "Blusa",
			Prices: map[string]int64{"cash": 4990, "30d": 5290},
		},
	}
	rec = env.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, "s1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cart := decodeCart(t, rec)
	if cart.Items[0].PriceTier != "30d" || cart.Items[0].UnitPrice != 5290 {
		t.Fatalf("tier change must reprice, got %+v", cart.Items[0])
	}

	// Tier change without a product snapshot is rejected.
	rec = env.do(t, http.MethodPatch, "/api/v1/cart/items/"+lineID, "s1", map[string]any{"tier": "90d"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without product snapshot, got %d", rec.Code)
	}
}

func TestUpdateAllTiers(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 1, "cash"))
	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-2", "Saia", 2, "cash"))

	body := updateTiersRequest{
		Tier: "90d",
		Products: []productRequest{
			{ID: "prod-1", Name: "Blusa", Prices: map[string]int64{"cash": 4990, "90d": 5590}},
		},
	}
	rec := env.do(t, http.MethodPost, "/api/v1/cart/tier", "s1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cart := decodeCart(t, rec)
	if cart.Items[0].PriceTier != "90d" || cart.Items[0].UnitPrice != 5590 {
		t.Fatalf("known product must reprice, got %+v", cart.Items[0])
	}
	// prod-2 absent from the snapshot: tier switches, price stays.
	if cart.Items[1].PriceTier != "90d" || cart.Items[1].UnitPrice != 4990 {
		t.Fatalf("unknown product must keep price, got %+v", cart.Items[1])
	}
}

func TestClearCart(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 2, "cash"))
	rec := env.do(t, http.MethodDelete, "/api/v1/cart", "s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if cart := decodeCart(t, rec); len(cart.Items) != 0 {
		t.Fatalf("expected cleared cart, got %+v", cart.Items)
	}
}

func TestApplyAndRemoveCoupon(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", addItemBody("prod-1", "Blusa", 2, "cash"))

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon", "s1", applyCouponRequest{Code: "dez"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cart := decodeCart(t, rec)
	if cart.Coupon == nil || cart.Coupon.Code != "DEZ" {
		t.Fatalf("expected coupon applied, got %+v", cart.Coupon)
	}
	if cart.Totals.Discount != 998 || cart.Totals.Total != 8982 {
		t.Fatalf("expected 10%% discount on 9980, got %+v", cart.Totals)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/coupon", "s1", nil)
	if cart := decodeCart(t, rec); cart.Coupon != nil {
		t.Fatalf("expected coupon removed, got %+v", cart.Coupon)
	}
}

func TestApplyCouponRejection(t *testing.T) {
	env := newTestEnv(t)
	env.validator.err = &couponapi.RejectionError{Code: "VELHO", Message: "cupom expirado"}

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon", "s1", applyCouponRequest{Code: "VELHO"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["message"] != "cupom expirado" {
		t.Fatalf("expected service message surfaced, got %v", body["message"])
	}
}

func TestApplyCouponRateLimited(t *testing.T) {
	env := newTestEnv(t, WithCouponRateLimit(2, time.Minute))

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon", "s1", applyCouponRequest{Code: "DEZ"})
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
	}

	rec := env.do(t, http.MethodPost, "/api/v1/cart/coupon", "s1", applyCouponRequest{Code: "DEZ"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}

	// Another session is unaffected.
	rec = env.do(t, http.MethodPost, "/api/v1/cart/coupon", "s2", applyCouponRequest{Code: "DEZ"})
	if rec.Code != http.StatusOK {
		t.Fatalf("other session must not be limited, got %d", rec.Code)
	}
}
