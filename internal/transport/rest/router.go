package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/iyzipay-checkout/api"
	"github.com/frahmantamala/iyzipay-checkout/internal/auth"
	"github.com/frahmantamala/iyzipay-checkout/internal/payment"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport/middleware"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport/swagger"
)

// RouteDependencies are the handlers mounted under /api/v1. Nil handlers leave
// their routes unmounted.
type RouteDependencies struct {
	DB             *sql.DB
	HealthChecks   map[string]Checker
	AllowedOrigins string
	AuthHandler    *auth.Handler
	PaymentHandler *payment.Handler
	WebhookHandler *payment.WebhookHandler
	Validator      *middleware.OpenAPIValidator
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps RouteDependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.HealthChecks)

	validate := func(next http.Handler) http.Handler { return next }
	if deps.Validator != nil {
		validate = deps.Validator.Middleware
	}

	// Apply global middleware
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// The gateway calls the webhook without credentials.
		if deps.WebhookHandler != nil {
			r.Post("/payments/iyzipay/webhook", deps.WebhookHandler.HandleWebhook)
		}

		if deps.AuthHandler == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Use(validate)
			sr.Post("/login", deps.AuthHandler.Login)
			sr.Post("/refresh", deps.AuthHandler.RefreshToken)
			sr.Post("/logout", deps.AuthHandler.Logout)
		})

		if deps.PaymentHandler == nil {
			return
		}

		// Shoppers may arrive here straight from the hosted form, carrying
		// only the access cookie.
		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.OptionalAuth)
			pr.Post("/payments/iyzipay/process", deps.PaymentHandler.ProcessPayment)
			pr.Get("/payments/iyzipay/confirmation", deps.PaymentHandler.Confirmation)
			pr.Post("/payments/iyzipay/confirmation", deps.PaymentHandler.Confirmation)
		})

		r.Route("/admin/orders/{guid}", func(ar chi.Router) {
			ar.Use(deps.AuthHandler.AuthMiddleware)
			ar.Use(deps.AuthHandler.RequireAdmin)
			ar.Use(validate)
			ar.Post("/refund", deps.PaymentHandler.RefundOrder)
			ar.Post("/void", deps.PaymentHandler.VoidOrder)
		})
	})
}
