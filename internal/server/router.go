// Package server composes the storefront's bounded contexts into one HTTP handler.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"

	accountshttp "github.com/dejobratic/shopkart/internal/accounts/adapters/http"
	accountsapp "github.com/dejobratic/shopkart/internal/accounts/app"
	addresshttp "github.com/dejobratic/shopkart/internal/addresses/adapters/http"
	addressapp "github.com/dejobratic/shopkart/internal/addresses/app"
	"github.com/dejobratic/shopkart/internal/auth"
	carthttp "github.com/dejobratic/shopkart/internal/cart/adapters/http"
	cartapp "github.com/dejobratic/shopkart/internal/cart/app"
	cataloghttp "github.com/dejobratic/shopkart/internal/catalog/adapters/http"
	catalogapp "github.com/dejobratic/shopkart/internal/catalog/app"
	"github.com/dejobratic/shopkart/internal/events"
	"github.com/dejobratic/shopkart/internal/httpx"
	ordersadapters "github.com/dejobratic/shopkart/internal/orders/adapters"
	ordershttp "github.com/dejobratic/shopkart/internal/orders/adapters/http"
	ordersapp "github.com/dejobratic/shopkart/internal/orders/app"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	ordersmetrics "github.com/dejobratic/shopkart/internal/orders/metrics"
	"github.com/dejobratic/shopkart/internal/orders/ports"
	"github.com/dejobratic/shopkart/internal/telemetry"
)

// Options carries everything the router needs; zero values fall back to safe defaults where noted.
type Options struct {
	Logger    *slog.Logger
	Meter     metric.Meter
	Storage   *Storage
	Issuer    *auth.Issuer
	Publisher events.Publisher
	Invoices  ports.InvoiceRenderer
	Policy    domain.TransitionPolicy
	Brand     string
	BuyNowTTL time.Duration
	// RateLimiter guards the authenticated routes; nil disables limiting.
	RateLimiter *httpx.RateLimiter
	MetricsPath string
	// Ready reports backend health for /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// NewRouter mounts every context under /v1 with the shared middleware chain.
func NewRouter(opts Options) (http.Handler, error) {
	httpMetrics, err := httpx.NewMetrics(opts.Meter)
	if err != nil {
		return nil, err
	}
	orderMetrics, err := ordersmetrics.NewMetrics(opts.Meter)
	if err != nil {
		return nil, err
	}
	eventMetrics, err := events.NewMetrics(opts.Meter)
	if err != nil {
		return nil, err
	}

	store := opts.Storage
	catalog := catalogapp.NewService(store.Catalog)
	cart := cartapp.NewService(store.Carts, store.Favourites, store.BuyNow, store.Catalog, opts.BuyNowTTL)
	addresses := addressapp.NewService(store.Addresses)
	accounts := accountsapp.NewService(store.Users, opts.Issuer)

	orders := ordersapp.NewService(ordersapp.Deps{
		Repo:       store.Orders,
		UnitOfWork: store.UnitOfWork,
		Selections: ordersadapters.NewSelections(cart),
		Catalog:    store.Catalog,
		Addresses:  addresses,
		Users:      accounts,
		Events:     ordersadapters.NewObservableEventBus(ordersadapters.NewEventBus(opts.Publisher), eventMetrics),
		Invoices:   opts.Invoices,
		Idempotent: store.Idempotency,
		Policy:     opts.Policy,
		Brand:      opts.Brand,
	}, opts.Logger, orderMetrics)

	catalogHandler := cataloghttp.NewHandler(catalog)
	cartHandler := carthttp.NewHandler(cart)
	addressHandler := addresshttp.NewHandler(addresses)
	accountsHandler := accountshttp.NewHandler(accounts)
	ordersHandler := ordershttp.NewHandler(orders)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpx.WithRecovery(opts.Logger))
	r.Use(httpx.WithLogging(opts.Logger))
	r.Use(telemetry.HTTPMiddleware)
	r.Use(httpx.WithMetrics(httpMetrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if opts.MetricsPath != "" {
		// Metrics are pushed over OTLP; this only tells scrapers where to look.
		r.Get(opts.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"exporter": "otlp"})
		})
	}

	r.Route("/v1", func(r chi.Router) {
		catalogHandler.Register(r)
		accountsHandler.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(opts.Issuer.Optional)
			cartHandler.RegisterOptional(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(opts.Issuer.Required)
			r.Use(opts.RateLimiter.Middleware(auth.RateLimitKey))

			cartHandler.Register(r)
			addressHandler.Register(r)
			ordersHandler.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.StaffOnly)
				ordersHandler.RegisterOperator(r)
			})
		})
	})

	return r, nil
}
