package httpapi

import (
	"net/http"
	"strings"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Services struct {
	Users   user.Service
	Catalog catalog.Service
	Carts   cart.Service
	Orders  order.Service
}

type Options struct {
	Identity       auth.Resolver
	Webhook        http.Handler
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts every route. Authentication is attached per route group,
// so a protected route never depends on global middleware order.
func NewRouter(svc Services, opts Options) http.Handler {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	limit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware
	}

	authH := &authHandler{users: svc.Users}
	productH := &productHandler{catalog: svc.Catalog}
	cartH := &cartHandler{carts: svc.Carts}
	orderH := &orderHandler{orders: svc.Orders}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.CORS(opts.AllowedOrigins...))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.Webhook != nil {
		r.With(limit).Method(http.MethodPost, "/webhooks/stripe", opts.Webhook)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(limit)

		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productH.List)
			r.Get("/latest", productH.Latest)
			r.Get("/best-selling", productH.BestSelling)
			r.Get("/{productID}", productH.Get)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(middleware.RequireIdentity(opts.Identity))
		r.Use(limit)

		r.Get("/me", authH.Me)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartH.Get)
			r.Delete("/", cartH.Clear)
			r.Post("/items", cartH.AddItem)
			r.Put("/items", cartH.UpdateItem)
			r.Delete("/items", cartH.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderH.Place)
			r.Get("/", orderH.List)
			r.Get("/{orderID}", orderH.Get)
			r.Delete("/{orderID}", orderH.Cancel)
		})

		r.Post("/checkout/session", orderH.CreateCheckoutSession)
		r.Post("/checkout/status", orderH.CheckoutStatus)
	})

	return r
}

// StrictRoute selects the requests that share the strict rate limit tier:
// credential and payment endpoints.
func StrictRoute(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/auth/login", "/auth/register", "/orders", "/checkout/session", "/webhooks/stripe":
		return true
	}
	return false
}
