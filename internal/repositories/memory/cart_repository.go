// Package memory provides an in-process CartRepository used by tests and
// single-node development setups.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/repositories"
)

// CartRepository stores carts in a mutex-guarded map.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository builds an empty in-memory repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

// Get returns the stored cart for the session.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, repositories.NewUnavailable("memory.get", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[sessionID]
	if !ok {
		return domain.Cart{}, repositories.NewNotFound("memory.get")
	}
	return cloneCart(cart), nil
}

// Save stores the cart keyed by its session identifier.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return repositories.NewUnavailable("memory.save", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID] = cloneCart(cart)
	return nil
}

// Delete removes the cart; absent carts are ignored.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return repositories.NewUnavailable("memory.delete", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
	return nil
}

// List returns carts ordered by UpdatedAt descending (session ID as tiebreak)
// along with the total cart count.
func (r *CartRepository) List(ctx context.Context, skip, limit int) ([]domain.Cart, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, repositories.NewUnavailable("memory.list", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Cart, 0, len(r.carts))
	for _, cart := range r.carts {
		all = append(all, cloneCart(cart))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if skip >= total {
		return []domain.Cart{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

// Close is a no-op for the in-memory backend.
func (r *CartRepository) Close() error { return nil }

func cloneCart(cart domain.Cart) domain.Cart {
	out := cart
	if cart.Items != nil {
		out.Items = make([]domain.CartLineItem, len(cart.Items))
		copy(out.Items, cart.Items)
	}
	if cart.Coupon != nil {
		coupon := *cart.Coupon
		out.Coupon = &coupon
	}
	return out
}
