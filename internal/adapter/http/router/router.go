package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/finlay-davidson/flog-it/internal/adapter/http/handler"
	"github.com/finlay-davidson/flog-it/internal/adapter/http/middleware"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
	"github.com/finlay-davidson/flog-it/internal/platform/metrics"
)

type Options struct {
	Handler        *handler.ListingHandler
	Verifier       middleware.TokenVerifier
	Metrics        *metrics.MetricsManager
	AllowedOrigins []string
	Logger         *logger.Logger
}

// New builds the listings API router.
func New(opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics(opts.Metrics))

	SetupListingRoutes(r, opts.Handler, opts.Verifier, opts.Logger)
	return r
}

// SetupListingRoutes registers the public listing routes and the routes that
// require a bearer token.
func SetupListingRoutes(mux *chi.Mux, h *handler.ListingHandler, verifier middleware.TokenVerifier, log *logger.Logger) {
	mux.Get("/", h.HandleHome)
	mux.Get("/listings", h.HandleSearchListings)
	mux.Get("/listings/{id}", h.HandleGetListing)

	mux.Group(func(r chi.Router) {
		r.Use(middleware.Auth(verifier, log))

		r.Post("/listings", h.HandleCreateListing)
		r.Put("/listings/{id}", h.HandleUpdateListing)
		r.Delete("/listings/{id}", h.HandleDeleteListing)
		r.Post("/listings/{id}/images", h.HandleAddImages)
		r.Put("/listings/{id}/images", h.HandleReplaceImages)
		r.Post("/listings/{id}/images/reconcile", h.HandleReconcileImages)
		r.Get("/user/listings", h.HandleListUserListings)
	})
}
