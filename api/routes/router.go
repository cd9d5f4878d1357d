package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/ordering-backend/api/controllers"
	"github.com/angelmondragon/ordering-backend/api/middleware"
	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/ordering-backend/internal/checkout"
	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/internal/pizza"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/db"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/ordering-backend/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP layer needs.
type redisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	metricsHandler http.Handler,
	catalogReader catalog.Reader,
	engine customization.Engine,
	pizzaService pizza.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.Window,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutSessionLimit,
	)
	pricingPolicy := middleware.NewRateLimitPolicy(
		"pricing",
		cfg.RateLimit.Window,
		cfg.RateLimit.PricingIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		idempotent := middleware.Idempotency(redisClient, logg)

		r.Get("/menu", controllers.Menu(catalogReader, logg))
		r.Get("/menu/items/{menuItemId}", controllers.MenuItem(catalogReader, logg))

		r.Route("/customizations", func(r chi.Router) {
			r.Use(middleware.RateLimit(pricingPolicy, redisClient, logg))
			r.Post("/validate", controllers.ValidateCustomization(engine, logg))
			r.Post("/price", controllers.PriceCustomization(engine, logg))
			r.Post("/format-for-cart", controllers.FormatForCart(engine, logg))
		})

		r.Route("/pizza", func(r chi.Router) {
			r.Get("/menu", controllers.PizzaMenu(pizzaService, logg))
			r.With(middleware.RateLimit(pricingPolicy, redisClient, logg)).Post("/price", controllers.PizzaPrice(pizzaService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.With(idempotent).Post("/items", controllers.CartAddItem(cartService, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.With(
			middleware.RateLimit(checkoutPolicy, redisClient, logg),
			idempotent,
		).Post("/checkout", controllers.Checkout(checkoutService, cartService, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.OrderDetail(ordersService, logg))
			r.With(idempotent).Post("/status", controllers.OrderUpdateStatus(ordersService, logg))
		})
	})

	return r
}
