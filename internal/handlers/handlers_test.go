package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/repositories/memory"
	"github.com/vitrine-atacado/api/internal/services"
)

type fixedValidator struct {
	coupon domain.Coupon
	err    error
}

func (v *fixedValidator) Validate(ctx context.Context, code string) (domain.Coupon, error) {
	if v.err != nil {
		return domain.Coupon{}, v.err
	}
	return v.coupon, nil
}

type testEnv struct {
	router    http.Handler
	carts     services.CartService
	validator *fixedValidator
}

func newTestEnv(t *testing.T, opts ...CartHandlerOption) *testEnv {
	t.Helper()

	repo := memory.NewCartRepository()
	clock := func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	carts, err := services.NewCartService(services.CartServiceDeps{
		Repository: repo,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}

	validator := &fixedValidator{coupon: domain.Coupon{
		ID: 1, Code: "DEZ", Kind: domain.CouponPercentage, Value: 10, Active: true,
	}}
	coupons, err := services.NewCouponService(services.CouponServiceDeps{
		Carts:     carts,
		Validator: validator,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("NewCouponService: %v", err)
	}

	cartHandlers := NewCartHandlers(carts, coupons, opts...)
	checkoutHandlers := NewCheckoutHandlers(carts, services.NewCheckoutComposer("Vitrine Atacado"))
	adminHandlers := NewAdminHandlers(carts, 0)

	router := NewRouter(
		WithMiddlewares(SessionMiddleware()),
		WithCartRoutes(cartHandlers.Routes),
		WithCheckoutRoutes(checkoutHandlers.Routes),
		WithAdminRoutes(adminHandlers.Routes),
	)

	return &testEnv{router: router, carts: carts, validator: validator}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartPayload {
	t.Helper()
	var resp cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode cart response: %v\n%s", err, rec.Body.String())
	}
	return resp.Cart
}

func addItemBody(productID, name string, qty int, tier string) addItemRequest {
	return addItemRequest{
		Product: productRequest{
			ID:     productID,
			Name:   name,
			Images: []string{"https://cdn.example.com/p.jpg"},
			Prices: map[string]int64{"cash": 4990, "30d": 5290, "90d": 5590},
		},
		Size:     "M",
		Quantity: qty,
		Tier:     tier,
	}
}
