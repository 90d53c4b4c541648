package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartNotFound indicates the requested cart or line does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// CartServiceDeps wires the repository and ambient dependencies for cart operations.
type CartServiceDeps struct {
	Repository  repositories.CartRepository
	Locks       *SessionLocks
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type cartService struct {
	repo   repositories.CartRepository
	locks  *SessionLocks
	newID  func() string
	now    func() time.Time
	logger func(context.Context, string, map[string]any)

	// unsaved holds the authoritative cart state for sessions whose last
	// write-through failed, so the session keeps read-your-writes until the
	// store recovers.
	unsavedMu sync.RWMutex
	unsaved   map[string]domain.Cart
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	locks := deps.Locks
	if locks == nil {
		locks = NewSessionLocks()
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &cartService{
		repo:    deps.Repository,
		locks:   locks,
		newID:   idGen,
		now:     func() time.Time { return deps.Clock().UTC() },
		logger:  logger,
		unsaved: make(map[string]domain.Cart),
	}, nil
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	return s.loadCart(ctx, sid)
}

func (s *cartService) AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	productID := strings.TrimSpace(cmd.Product.ID)
	if productID == "" {
		return domain.Cart{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}
	name := strings.TrimSpace(cmd.Product.Name)
	if name == "" {
		return domain.Cart{}, fmt.Errorf("%w: product name is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: quantity must be greater than zero", ErrCartInvalidInput)
	}
	tier := cmd.Tier
	if tier == "" {
		tier = domain.TierCash
	}
	if !tier.Valid() {
		return domain.Cart{}, fmt.Errorf("%w: unknown price tier %q", ErrCartInvalidInput, string(cmd.Tier))
	}

	size := strings.TrimSpace(cmd.Size)
	unitPrice := ResolveUnitPrice(cmd.Product, tier)
	now := s.now()

	unlock := s.locks.Lock(sid)
	defer unlock()

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	merged := false
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID != productID || item.Size != size || item.Name != name {
			continue
		}
		item.Quantity += cmd.Quantity
		item.PriceTier = tier
		item.UnitPrice = unitPrice
		ts := now
		item.UpdatedAt = &ts
		merged = true
		break
	}

	if !merged {
		image := ""
		if len(cmd.Product.Images) > 0 {
			image = strings.TrimSpace(cmd.Product.Images[0])
		}
		cart.Items = append(cart.Items, domain.CartLineItem{
			ID:        s.lineID(now),
			ProductID: productID,
			Name:      name,
			Image:     image,
			Size:      size,
			PriceTier: tier,
			UnitPrice: unitPrice,
			Quantity:  cmd.Quantity,
			AddedAt:   now,
		})
	}

	return s.persist(ctx, sid, cart, now), nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, lineID string) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	target := strings.TrimSpace(lineID)
	if sid == "" || target == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexOfLine(cart.Items, target)
	if idx < 0 {
		return cart, nil
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.persist(ctx, sid, cart, s.now()), nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(cmd.SessionID)
	target := strings.TrimSpace(cmd.LineID)
	if sid == "" || target == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexOfLine(cart.Items, target)
	if idx < 0 {
		return domain.Cart{}, fmt.Errorf("%w: line %s", ErrCartNotFound, target)
	}

	now := s.now()
	if cmd.Quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = cmd.Quantity
		ts := now
		cart.Items[idx].UpdatedAt = &ts
	}

	return s.persist(ctx, sid, cart, now), nil
}

func (s *cartService) UpdatePriceTier(ctx context.Context, cmd UpdatePriceTierCommand) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(cmd.SessionID)
	target := strings.TrimSpace(cmd.LineID)
	if sid == "" || target == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if !cmd.Tier.Valid() {
		return domain.Cart{}, fmt.Errorf("%w: unknown price tier %q", ErrCartInvalidInput, string(cmd.Tier))
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := indexOfLine(cart.Items, target)
	if idx < 0 {
		return domain.Cart{}, fmt.Errorf("%w: line %s", ErrCartNotFound, target)
	}

	now := s.now()
	cart.Items[idx].PriceTier = cmd.Tier
	cart.Items[idx].UnitPrice = ResolveUnitPrice(cmd.Product, cmd.Tier)
	ts := now
	cart.Items[idx].UpdatedAt = &ts

	return s.persist(ctx, sid, cart, now), nil
}

func (s *cartService) UpdateAllPriceTiers(ctx context.Context, cmd UpdateAllPriceTiersCommand) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if !cmd.Tier.Valid() {
		return domain.Cart{}, fmt.Errorf("%w: unknown price tier %q", ErrCartInvalidInput, string(cmd.Tier))
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	now := s.now()
	for i := range cart.Items {
		item := &cart.Items[i]
		if product, ok := cmd.Products[item.ProductID]; ok {
			item.UnitPrice = ResolveUnitPrice(product, cmd.Tier)
		} else {
			// Product gone from the catalog snapshot: the tier still switches
			// so the cart stays coherent, the price stays as last known.
			s.logger(ctx, "cart.retier_stale_price", map[string]any{
				"session_id": sid,
				"line_id":    item.ID,
				"product_id": item.ProductID,
				"tier":       string(cmd.Tier),
			})
		}
		item.PriceTier = cmd.Tier
		ts := now
		item.UpdatedAt = &ts
	}

	return s.persist(ctx, sid, cart, now), nil
}

func (s *cartService) SetCoupon(ctx context.Context, sessionID string, coupon *domain.AppliedCoupon, guard func() bool) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	// The guard decides while the lock is held; a completion superseded
	// between its own check and this write must not reach the cart.
	if guard != nil && !guard() {
		return domain.Cart{}, ErrCouponSuperseded
	}

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	if coupon == nil && cart.Coupon == nil {
		return cart, nil
	}

	if coupon != nil {
		dup := *coupon
		cart.Coupon = &dup
	} else {
		cart.Coupon = nil
	}

	return s.persist(ctx, sid, cart, s.now()), nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	unlock := s.locks.Lock(sid)
	defer unlock()

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return domain.Cart{}, err
	}

	cart.Items = []domain.CartLineItem{}
	cart.Coupon = nil

	return s.persist(ctx, sid, cart, s.now()), nil
}

func (s *cartService) ListCarts(ctx context.Context, skip, limit int) (CartPage, error) {
	if s == nil || s.repo == nil {
		return CartPage{}, ErrCartUnavailable
	}
	carts, total, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return CartPage{}, s.translateRepoError(err)
	}
	return CartPage{Carts: carts, Total: total, Skip: skip, Limit: limit}, nil
}

func (s *cartService) Totals(cart domain.Cart) domain.CartTotals {
	subtotal := cart.Total()
	var coupon *domain.Coupon
	if cart.Coupon != nil {
		coupon = &cart.Coupon.Coupon
	}
	discount := CalculateDiscount(coupon, subtotal)
	return domain.CartTotals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal - discount,
	}
}

// loadCart returns the authoritative cart for the session: the unsaved
// overlay when present, the stored cart otherwise, or a fresh empty cart.
// Callers must hold the session lock.
func (s *cartService) loadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	s.unsavedMu.RLock()
	pending, ok := s.unsaved[sessionID]
	s.unsavedMu.RUnlock()
	if ok {
		return pending, nil
	}

	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return s.newCart(sessionID), nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	cart.Unsaved = false
	return cart, nil
}

// persist writes the cart through to the store. On failure the cart is kept
// in the unsaved overlay and returned flagged, never dropped.
func (s *cartService) persist(ctx context.Context, sessionID string, cart domain.Cart, now time.Time) domain.Cart {
	cart.ID = sessionID
	cart.UpdatedAt = now
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.Unsaved = false

	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		cart.Unsaved = true
		s.unsavedMu.Lock()
		s.unsaved[sessionID] = cart
		s.unsavedMu.Unlock()
		return cart
	}

	s.unsavedMu.Lock()
	delete(s.unsaved, sessionID)
	s.unsavedMu.Unlock()
	return cart
}

func (s *cartService) newCart(sessionID string) domain.Cart {
	now := s.now()
	return domain.Cart{
		ID:        sessionID,
		Items:     []domain.CartLineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *cartService) lineID(now time.Time) string {
	id := strings.TrimSpace(s.newID())
	if id == "" {
		id = fmt.Sprintf("line-%d", now.UnixNano())
	}
	return id
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCartNotFound
		}
		return ErrCartUnavailable
	}
	return ErrCartUnavailable
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func indexOfLine(items []domain.CartLineItem, lineID string) int {
	for i, item := range items {
		if item.ID == lineID {
			return i
		}
	}
	return -1
}
