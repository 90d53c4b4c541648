// Package couponapi talks to the external coupon validation service.
package couponapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitrine-atacado/api/internal/domain"
)

const defaultTimeout = 8 * time.Second

// ErrUnavailable is returned for transport failures, timeouts, and 5xx
// responses from the coupon service.
var ErrUnavailable = errors.New("couponapi: service unavailable")

// RejectionError carries the service's reason for refusing a coupon code.
type RejectionError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("couponapi: coupon %q rejected: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("couponapi: coupon %q rejected", e.Code)
}

// Client issues validation calls against the coupon service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a coupon service client. A zero timeout uses the
// package default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Validate submits a coupon code for validation. A valid coupon is returned
// as the domain value; a rejection surfaces as *RejectionError and transport
// or server failures wrap ErrUnavailable.
func (c *Client) Validate(ctx context.Context, code string) (domain.Coupon, error) {
	endpoint, err := url.JoinPath(c.baseURL, "coupons", "validate")
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	payload, err := json.Marshal(map[string]string{"code": strings.TrimSpace(code)})
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("couponapi: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("couponapi: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domain.Coupon{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, drainError(resp.Body))
	}
	if resp.StatusCode >= 400 {
		return domain.Coupon{}, &RejectionError{Code: code, Message: drainError(resp.Body)}
	}

	var body validatePayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Coupon{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if !body.Valid {
		return domain.Coupon{}, &RejectionError{Code: code, Message: strings.TrimSpace(body.Message)}
	}
	if body.Coupon == nil {
		return domain.Coupon{}, fmt.Errorf("%w: valid response without coupon payload", ErrUnavailable)
	}
	return body.Coupon.toDomain(), nil
}

type validatePayload struct {
	Valid   bool           `json:"valid"`
	Message string         `json:"message"`
	Coupon  *couponPayload `json:"coupon"`
}

type couponPayload struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Value     int64  `json:"value"`
	ValidFrom string `json:"validFrom"`
	ValidTo   string `json:"validTo"`
	Active    bool   `json:"active"`
}

func (p couponPayload) toDomain() domain.Coupon {
	coupon := domain.Coupon{
		ID:     p.ID,
		Code:   strings.ToUpper(strings.TrimSpace(p.Code)),
		Kind:   domain.CouponKind(strings.ToLower(strings.TrimSpace(p.Kind))),
		Value:  p.Value,
		Active: p.Active,
	}
	if ts := parseTime(p.ValidFrom); !ts.IsZero() {
		coupon.ValidFrom = &ts
	}
	if ts := parseTime(p.ValidTo); !ts.IsZero() {
		coupon.ValidTo = &ts
	}
	return coupon
}

func parseTime(val string) time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
