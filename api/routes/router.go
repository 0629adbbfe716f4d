package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborfresh/storefront-backend/api/controllers"
	authcontrollers "github.com/harborfresh/storefront-backend/api/controllers/auth"
	cartcontrollers "github.com/harborfresh/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/harborfresh/storefront-backend/api/controllers/orders"
	"github.com/harborfresh/storefront-backend/api/middleware"
	"github.com/harborfresh/storefront-backend/internal/auth"
	"github.com/harborfresh/storefront-backend/internal/cart"
	checkoutsvc "github.com/harborfresh/storefront-backend/internal/checkout"
	"github.com/harborfresh/storefront-backend/internal/orders"
	"github.com/harborfresh/storefront-backend/pkg/config"
	"github.com/harborfresh/storefront-backend/pkg/logger"
	"github.com/harborfresh/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	cartStore *cart.Store,
	authService auth.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", authcontrollers.Login(authService, logg))
		r.Post("/register", authcontrollers.Register(authService, logg))
		r.Post("/logout", authcontrollers.Logout(authService, logg))
		r.With(middleware.RequireSession(authService, logg)).Get("/me", authcontrollers.Me(authService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", cartcontrollers.CartFetch(cartStore, logg))
		r.Delete("/", cartcontrollers.CartClear(cartStore, logg))
		r.Post("/items", cartcontrollers.CartAdd(cartStore, logg))
		r.Post("/items/{itemId}/remove-one", cartcontrollers.CartRemoveOne(cartStore, logg))
		r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(cartStore, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(authService, logg))
		r.Get("/api/v1/orders", ordercontrollers.List(ordersService, logg))
		r.Post("/api/v1/checkout", controllers.Checkout(checkoutService, logg))
	})

	return r
}
