package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vitrine-atacado/api/internal/domain"
)

const maxRequestBodySize = 16 * 1024

var errBodyTooLarge = errors.New("request body too large")

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartPayload struct {
	ID        string            `json:"id"`
	Items     []cartItemPayload `json:"items"`
	ItemCount int               `json:"itemCount"`
	Coupon    *couponPayload    `json:"coupon,omitempty"`
	Totals    totalsPayload     `json:"totals"`
	Unsaved   bool              `json:"unsaved,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type cartItemPayload struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Size      string    `json:"size,omitempty"`
	PriceTier string    `json:"priceTier"`
	TierLabel string    `json:"tierLabel"`
	UnitPrice int64     `json:"unitPrice"`
	Quantity  int       `json:"quantity"`
	Subtotal  int64     `json:"subtotal"`
	AddedAt   time.Time `json:"addedAt"`
}

type couponPayload struct {
	Code      string    `json:"code"`
	Kind      string    `json:"kind"`
	Value     int64     `json:"value"`
	AppliedAt time.Time `json:"appliedAt"`
}

type totalsPayload struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

func buildCartPayload(cart domain.Cart, totals domain.CartTotals) cartPayload {
	items := make([]cartItemPayload, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = cartItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Size:      item.Size,
			PriceTier: string(item.PriceTier),
			TierLabel: item.PriceTier.Label(),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
			AddedAt:   item.AddedAt,
		}
	}

	payload := cartPayload{
		ID:        cart.ID,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Totals: totalsPayload{
			Subtotal: totals.Subtotal,
			Discount: totals.Discount,
			Total:    totals.Total,
		},
		Unsaved:   cart.Unsaved,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}

	if cart.Coupon != nil {
		payload.Coupon = &couponPayload{
			Code:      cart.Coupon.Coupon.Code,
			Kind:      string(cart.Coupon.Coupon.Kind),
			Value:     cart.Coupon.Coupon.Value,
			AppliedAt: cart.Coupon.AppliedAt,
		}
	}

	return payload
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("request body required")
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	if len(body) == 0 {
		return nil, errors.New("request body required")
	}
	return body, nil
}
