package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/tdy-voucher/internal/auth"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
	"github.com/frahmantamala/tdy-voucher/internal/transport/middleware"
	"github.com/frahmantamala/tdy-voucher/internal/transport/swagger"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
)

// Handlers is everything the API mounts. A nil handler leaves its routes out.
type Handlers struct {
	Health   *HealthHandler
	Auth     *auth.Handler
	Rate     *rate.Handler
	Estimate *estimate.Handler
	Voucher  *voucher.Handler
}

type RouterOptions struct {
	AllowedOrigins string
	// OpenAPISpec is served at /openapi.yml and, when Validate is set, checked
	// against every request it describes.
	OpenAPISpec []byte
	Validate    func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions, logger *slog.Logger) {
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if len(opts.OpenAPISpec) > 0 {
		router.Get(swagger.SpecPath, swagger.SpecHandler(opts.OpenAPISpec))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			if opts.Validate != nil {
				pr.Use(opts.Validate)
			}

			if h.Rate != nil {
				pr.Get("/rates", h.Rate.GetRate) // GET /rates?locality=&date=
			}
			if h.Estimate != nil {
				pr.Post("/estimates", h.Estimate.CreateEstimate) // POST /estimates
			}
			if h.Voucher != nil {
				pr.Route("/vouchers", func(vr chi.Router) {
					vr.Post("/", h.Voucher.FinalizeVoucher) // POST /vouchers
					vr.Get("/", h.Voucher.ListVouchers)     // GET /vouchers
					vr.Get("/{id}", h.Voucher.GetVoucher)   // GET /vouchers/:id
				})
			}
		})
	})
}
