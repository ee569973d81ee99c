package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/frahmantamala/attendance-management/internal/auth"
	"github.com/frahmantamala/attendance-management/internal/infodesk"
	"github.com/frahmantamala/attendance-management/internal/request"
	"github.com/frahmantamala/attendance-management/internal/transport/middleware"
	"github.com/frahmantamala/attendance-management/internal/transport/swagger"
	"github.com/frahmantamala/attendance-management/internal/user"
)

type Handlers struct {
	Auth     *auth.Handler
	Roles    *auth.RoleAuthorization
	User     *user.Handler
	Request  *request.Handler
	InfoDesk *infodesk.Handler
	Health   *HealthHandler
	// Spec serves the OpenAPI document; nil disables /openapi.yml and /swagger.
	Spec http.Handler
}

type Options struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Apply global middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TraceHeader},
		ExposedHeaders:   []string{middleware.TraceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))
	router.Use(middleware.RecoveryMiddleware(logger))

	if h.Spec != nil {
		router.Handle("/openapi.yml", h.Spec)
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.HealthCheckHandler)
		r.Get("/ping", h.Health.PingHandler)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
		})

		// Everything below requires a bearer token.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Put("/users/me", h.User.UpdateCurrentUser)
			pr.Get("/users/me/balances", h.User.GetMyBalances)

			pr.Group(func(mr chi.Router) {
				mr.Use(h.Roles.RequireManager())
				mr.Get("/users", h.User.ListUsers)
				mr.Post("/users", h.User.CreateUser)
				mr.Put("/users/{id}", h.User.UpdateUser)
				mr.Delete("/users/{id}", h.User.DeleteUser)
			})

			pr.Route("/requests", func(rr chi.Router) {
				rr.Post("/", h.Request.Submit)
				rr.Get("/", h.Request.ListOwn)
				rr.Get("/check", h.Request.Precheck)
				rr.Get("/{id}", h.Request.Get)

				rr.Group(func(mr chi.Router) {
					mr.Use(h.Roles.RequireManager())
					mr.Get("/pending", h.Request.ListPending)
					mr.Get("/visible", h.Request.ListVisible)
					mr.Patch("/{id}/decision", h.Request.Decide)
				})
			})

			pr.Post("/feedback", h.InfoDesk.SubmitFeedback)
			pr.Post("/info-requests", h.InfoDesk.SubmitInfoRequest)

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Roles.RequireAdmin())
				ar.Get("/feedback", h.InfoDesk.ListFeedback)
				ar.Get("/info-requests", h.InfoDesk.ListInfoRequests)
				ar.Patch("/info-requests/{id}/resolve", h.InfoDesk.ResolveInfoRequest)
			})
		})
	})
}
