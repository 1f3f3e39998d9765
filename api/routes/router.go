package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tapline/sugarhouse-backend/api/controllers"
	"github.com/tapline/sugarhouse-backend/api/middleware"
	allocsvc "github.com/tapline/sugarhouse-backend/internal/allocations"
	"github.com/tapline/sugarhouse-backend/internal/catalog"
	checkoutsvc "github.com/tapline/sugarhouse-backend/internal/checkout"
	entsvc "github.com/tapline/sugarhouse-backend/internal/entitlements"
	"github.com/tapline/sugarhouse-backend/pkg/config"
	"github.com/tapline/sugarhouse-backend/pkg/db"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
	"github.com/tapline/sugarhouse-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	catalogService catalog.Service,
	allocationService allocsvc.Service,
	entitlementService entsvc.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	// A typed-nil *redis.Client must not reach the middleware or the
	// readiness probe as a non-nil interface value.
	var (
		idempotencyStore redis.IdempotencyStore
		windowStore      middleware.WindowStore
		redisPinger      redis.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		windowStore = redisClient
		redisPinger = redisClient
	}

	rateLimitPolicy := middleware.NewRateLimitPolicy(cfg.RateLimit.Window, cfg.RateLimit.Limit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Use(middleware.RateLimit(rateLimitPolicy, windowStore, logg))

		r.Get("/clubs", controllers.ListClubs(catalogService, logg))
		r.Post("/checkout/quote", controllers.CheckoutQuote(checkoutService, logg))
		r.Get("/members/{memberID}/entitlements", controllers.MemberEntitlements(entitlementService, logg))
		r.Get("/products/{productID}/allocations", controllers.ListAllocations(allocationService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Post("/products/{productID}/allocations", controllers.CreateAllocation(allocationService, logg))
			r.Post("/entitlements/{entitlementID}/pickup", controllers.EntitlementPickup(entitlementService, logg))
			r.Post("/entitlements/{entitlementID}/unpickup", controllers.EntitlementUnpickup(entitlementService, logg))
			r.Get("/entitlements/fulfillment", controllers.FulfillmentView(entitlementService, logg))
			r.Post("/entitlements/promote", controllers.PromoteEntitlements(entitlementService, logg))
		})
	})

	return r
}
