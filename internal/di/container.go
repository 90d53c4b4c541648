package di

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vitrine-atacado/api/internal/couponapi"
	"github.com/vitrine-atacado/api/internal/platform/config"
	"github.com/vitrine-atacado/api/internal/platform/observability"
	"github.com/vitrine-atacado/api/internal/repositories"
	"github.com/vitrine-atacado/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
// Coupons is nil when no coupon service URL is configured; the handlers
// respond with a service-unavailable error in that case.
type Services struct {
	Carts    services.CartService
	Coupons  services.CouponService
	Composer *services.CheckoutComposer
}

// Container wires the repository and services for runtime use. Production
// wiring passes the Redis-backed repository; tests can supply the in-memory
// implementation.
type Container struct {
	Config     config.Config
	Repository repositories.CartRepository
	Services   Services
}

// NewContainer constructs the runtime dependencies from the supplied
// repository and configuration.
func NewContainer(cfg config.Config, repo repositories.CartRepository, logger *zap.Logger) (*Container, error) {
	if repo == nil {
		return nil, errors.New("cart repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	carts, err := services.NewCartService(services.CartServiceDeps{
		Repository: repo,
		Locks:      services.NewSessionLocks(),
		Clock:      time.Now,
		Logger:     observability.EventLogger(logger.Named("cart")),
	})
	if err != nil {
		return nil, fmt.Errorf("build cart service: %w", err)
	}

	var coupons services.CouponService
	if strings.TrimSpace(cfg.Coupons.BaseURL) != "" {
		validator := couponapi.NewClient(cfg.Coupons.BaseURL, cfg.Coupons.Timeout)
		coupons, err = services.NewCouponService(services.CouponServiceDeps{
			Carts:     carts,
			Validator: validator,
			Clock:     time.Now,
			Logger:    observability.EventLogger(logger.Named("coupon")),
		})
		if err != nil {
			return nil, fmt.Errorf("build coupon service: %w", err)
		}
	}

	return &Container{
		Config:     cfg,
		Repository: repo,
		Services: Services{
			Carts:    carts,
			Coupons:  coupons,
			Composer: services.NewCheckoutComposer(cfg.Checkout.StoreName),
		},
	}, nil
}

// Close releases the repository client.
func (c *Container) Close() error {
	if c == nil || c.Repository == nil {
		return nil
	}
	return c.Repository.Close()
}
