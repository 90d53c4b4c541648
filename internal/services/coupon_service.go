package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vitrine-atacado/api/internal/couponapi"
	"github.com/vitrine-atacado/api/internal/domain"
)

var (
	errCouponCartsRequired     = errors.New("coupon service: cart service is required")
	errCouponValidatorRequired = errors.New("coupon service: validator is required")
	errCouponClockRequired     = errors.New("coupon service: clock is required")
)

// ErrCouponInvalidInput indicates the caller supplied invalid input.
var ErrCouponInvalidInput = errors.New("coupon service: invalid input")

// ErrCouponSuperseded indicates a newer validation attempt was issued for the
// session while this one was in flight; its outcome was discarded.
var ErrCouponSuperseded = errors.New("coupon service: attempt superseded")

// couponFallbackMessage is shown when neither the coupon service nor the
// transport produced a human-readable reason.
const couponFallbackMessage = "Não foi possível validar o cupom. Tente novamente."

// CouponRejectionError is the uniform failure for a coupon that could not be
// applied, whether the service refused it or the call never completed.
type CouponRejectionError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *CouponRejectionError) Error() string {
	return fmt.Sprintf("coupon service: %q rejected: %s", e.Code, e.Message)
}

// CouponValidator is the dependency that checks a code with the coupon service.
type CouponValidator interface {
	Validate(ctx context.Context, code string) (domain.Coupon, error)
}

// CouponServiceDeps wires the validator and cart dependencies for coupon operations.
type CouponServiceDeps struct {
	Carts     CartService
	Validator CouponValidator
	Clock     func() time.Time
	Logger    func(context.Context, string, map[string]any)
}

type couponService struct {
	carts     CartService
	validator CouponValidator
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)

	// seq tracks the latest validation attempt per session; completions of
	// older attempts are discarded rather than applied out of order.
	seqMu sync.Mutex
	seq   map[string]uint64
}

// NewCouponService constructs a CouponService enforcing dependency validation.
func NewCouponService(deps CouponServiceDeps) (CouponService, error) {
	if deps.Carts == nil {
		return nil, errCouponCartsRequired
	}
	if deps.Validator == nil {
		return nil, errCouponValidatorRequired
	}
	if deps.Clock == nil {
		return nil, errCouponClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &couponService{
		carts:     deps.Carts,
		validator: deps.Validator,
		now:       func() time.Time { return deps.Clock().UTC() },
		logger:    logger,
		seq:       make(map[string]uint64),
	}, nil
}

func (s *couponService) ApplyCoupon(ctx context.Context, sessionID, code string) (domain.Cart, error) {
	if s == nil || s.carts == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	// The code goes to the validator as received; case handling is the
	// coupon service's call, not this engine's.
	trimmed := strings.TrimSpace(code)
	if sid == "" || trimmed == "" {
		return domain.Cart{}, ErrCouponInvalidInput
	}

	attempt := s.issueAttempt(sid)

	// The external call runs without the session lock so a slow validator
	// never blocks cart mutations.
	coupon, err := s.validator.Validate(ctx, trimmed)

	if !s.isLatestAttempt(sid, attempt) {
		s.logger(ctx, "coupon.attempt_superseded", map[string]any{
			"session_id": sid,
			"code":       trimmed,
			"attempt":    attempt,
		})
		return domain.Cart{}, ErrCouponSuperseded
	}

	if err != nil {
		rejection := normaliseCouponFailure(trimmed, err)
		s.logger(ctx, "coupon.apply_rejected", map[string]any{
			"session_id": sid,
			"code":       trimmed,
			"reason":     rejection.Message,
		})
		return domain.Cart{}, rejection
	}

	applied := &domain.AppliedCoupon{Coupon: coupon, AppliedAt: s.now()}
	cart, err := s.carts.SetCoupon(ctx, sid, applied, func() bool {
		// Re-checked under the session lock: the quick check above can be
		// invalidated by a newer attempt while this write is still queued.
		return s.isLatestAttempt(sid, attempt)
	})
	if err != nil {
		if errors.Is(err, ErrCouponSuperseded) {
			s.logger(ctx, "coupon.attempt_superseded", map[string]any{
				"session_id": sid,
				"code":       trimmed,
				"attempt":    attempt,
			})
		}
		return domain.Cart{}, err
	}

	s.logger(ctx, "coupon.applied", map[string]any{
		"session_id": sid,
		"code":       coupon.Code,
		"kind":       string(coupon.Kind),
	})
	return cart, nil
}

func (s *couponService) RemoveCoupon(ctx context.Context, sessionID string) (domain.Cart, error) {
	if s == nil || s.carts == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return domain.Cart{}, ErrCouponInvalidInput
	}

	// Removing also invalidates any in-flight validation for the session.
	s.issueAttempt(sid)

	return s.carts.SetCoupon(ctx, sid, nil, nil)
}

func (s *couponService) issueAttempt(sessionID string) uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq[sessionID]++
	return s.seq[sessionID]
}

func (s *couponService) isLatestAttempt(sessionID string, attempt uint64) bool {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	return s.seq[sessionID] == attempt
}

func normaliseCouponFailure(code string, err error) *CouponRejectionError {
	var rejection *couponapi.RejectionError
	if errors.As(err, &rejection) && strings.TrimSpace(rejection.Message) != "" {
		return &CouponRejectionError{Code: code, Message: strings.TrimSpace(rejection.Message)}
	}
	return &CouponRejectionError{Code: code, Message: couponFallbackMessage}
}
