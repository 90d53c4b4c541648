// Package redis provides the Redis-backed CartRepository. Each cart is a
// JSON document keyed by session, with a sorted-set index scored by the
// cart's last update time for admin listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/repositories"
)

// CartRepository persists carts in Redis.
type CartRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// Options configures the Redis cart repository.
type Options struct {
	// KeyPrefix namespaces all keys; defaults to "vitrine" when blank.
	KeyPrefix string
	// TTL expires idle carts. Zero keeps carts until deleted.
	TTL time.Duration
}

// NewCartRepository wraps an existing Redis client.
func NewCartRepository(client *redis.Client, opts Options) (*CartRepository, error) {
	if client == nil {
		return nil, errors.New("redis cart repository requires a client")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "vitrine"
	}
	return &CartRepository{client: client, keyPrefix: prefix, ttl: opts.TTL}, nil
}

// cartDocument is the stored representation of a cart. The in-memory
// Unsaved flag is deliberately absent: it describes the persistence state
// itself and must never round-trip through the store.
type cartDocument struct {
	ID        string             `json:"id"`
	Items     []lineItemDocument `json:"items"`
	Coupon    *couponDocument    `json:"coupon,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type lineItemDocument struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Size      string     `json:"size,omitempty"`
	PriceTier string     `json:"price_tier"`
	UnitPrice int64      `json:"unit_price"`
	Quantity  int        `json:"quantity"`
	AddedAt   time.Time  `json:"added_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type couponDocument struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	Value     int64      `json:"value"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	Active    bool       `json:"active"`
	AppliedAt time.Time  `json:"applied_at"`
}

// Get returns the cart stored for the session.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, r.cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, repositories.NewNotFound("redis.get")
	}
	if err != nil {
		return domain.Cart{}, repositories.NewUnavailable("redis.get", err)
	}

	var doc cartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Cart{}, repositories.NewInternal("redis.get: decode cart", err)
	}
	return documentToCart(doc), nil
}

// Save stores the cart and refreshes its index entry in one pipeline.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	doc := cartToDocument(cart)
	data, err := json.Marshal(doc)
	if err != nil {
		return repositories.NewInternal("redis.save: encode cart", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.cartKey(cart.ID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{
		Score:  float64(cart.UpdatedAt.UnixMilli()),
		Member: cart.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return repositories.NewUnavailable("redis.save", err)
	}
	return nil
}

// Delete removes the cart document and its index entry. Absent carts are not
// an error.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.cartKey(sessionID))
	pipe.ZRem(ctx, r.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return repositories.NewUnavailable("redis.delete", err)
	}
	return nil
}

// List pages over carts from most to least recently updated. Index entries
// whose documents have expired are skipped and pruned from the index.
func (r *CartRepository) List(ctx context.Context, skip, limit int) ([]domain.Cart, int, error) {
	total, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, 0, repositories.NewUnavailable("redis.list", err)
	}
	if limit <= 0 {
		return []domain.Cart{}, int(total), nil
	}

	ids, err := r.client.ZRevRange(ctx, r.indexKey(), int64(skip), int64(skip+limit-1)).Result()
	if err != nil {
		return nil, 0, repositories.NewUnavailable("redis.list", err)
	}
	if len(ids) == 0 {
		return []domain.Cart{}, int(total), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.cartKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, repositories.NewUnavailable("redis.list", err)
	}

	carts := make([]domain.Cart, 0, len(values))
	var stale []interface{}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var doc cartDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, 0, repositories.NewInternal(fmt.Sprintf("redis.list: decode cart %s", ids[i]), err)
		}
		carts = append(carts, documentToCart(doc))
	}
	if len(stale) > 0 {
		// Best effort cleanup of expired documents still in the index.
		_ = r.client.ZRem(ctx, r.indexKey(), stale...).Err()
		total -= int64(len(stale))
	}
	return carts, int(total), nil
}

// Close releases the client connection pool.
func (r *CartRepository) Close() error {
	return r.client.Close()
}

func (r *CartRepository) cartKey(sessionID string) string {
	return fmt.Sprintf("%s:cart:%s", r.keyPrefix, sessionID)
}

func (r *CartRepository) indexKey() string {
	return fmt.Sprintf("%s:carts", r.keyPrefix)
}

func cartToDocument(cart domain.Cart) cartDocument {
	doc := cartDocument{
		ID:        cart.ID,
		Items:     make([]lineItemDocument, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for i, item := range cart.Items {
		doc.Items[i] = lineItemDocument{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Size:      item.Size,
			PriceTier: string(item.PriceTier),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			UpdatedAt: item.UpdatedAt,
		}
	}
	if cart.Coupon != nil {
		doc.Coupon = &couponDocument{
			ID:        cart.Coupon.Coupon.ID,
			Code:      cart.Coupon.Coupon.Code,
			Kind:      string(cart.Coupon.Coupon.Kind),
			Value:     cart.Coupon.Coupon.Value,
			ValidFrom: cart.Coupon.Coupon.ValidFrom,
			ValidTo:   cart.Coupon.Coupon.ValidTo,
			Active:    cart.Coupon.Coupon.Active,
			AppliedAt: cart.Coupon.AppliedAt,
		}
	}
	return doc
}

func documentToCart(doc cartDocument) domain.Cart {
	cart := domain.Cart{
		ID:        doc.ID,
		Items:     make([]domain.CartLineItem, len(doc.Items)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for i, item := range doc.Items {
		cart.Items[i] = domain.CartLineItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Size:      item.Size,
			PriceTier: domain.PriceTier(item.PriceTier),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			UpdatedAt: item.UpdatedAt,
		}
	}
	if doc.Coupon != nil {
		cart.Coupon = &domain.AppliedCoupon{
			Coupon: domain.Coupon{
				ID:        doc.Coupon.ID,
				Code:      doc.Coupon.Code,
				Kind:      domain.CouponKind(doc.Coupon.Kind),
				Value:     doc.Coupon.Value,
				ValidFrom: doc.Coupon.ValidFrom,
				ValidTo:   doc.Coupon.ValidTo,
				Active:    doc.Coupon.Active,
			},
			AppliedAt: doc.Coupon.AppliedAt,
		}
	}
	return cart
}
