package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/nlsql/internal/api/handler"
	customMiddleware "github.com/Rrens/nlsql/internal/api/middleware"
	"github.com/Rrens/nlsql/internal/config"
	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/service"
	"github.com/Rrens/nlsql/internal/web"
)

// NewRouter creates and configures the HTTP router. limiter may be nil, which
// disables rate limiting.
func NewRouter(cfg *config.Config, exportService *service.ExportService, limiter customMiddleware.Limiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// Content-Disposition must be readable for the browser client to name the file
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Export-ID", "X-CSV-BOM"},
		MaxAge:         300,
	}))

	exportHandler := handler.NewExportHandler(exportService)

	var authMiddleware *customMiddleware.AuthMiddleware
	if cfg.Auth.Enabled {
		jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		authMiddleware = customMiddleware.NewAuthMiddleware(jwtManager, security.ScopeExport)
		log.Info().Msg("Bearer authentication enabled for export routes")
	}

	var rateLimitMiddleware *customMiddleware.RateLimitMiddleware
	if limiter != nil {
		rateLimitMiddleware = customMiddleware.NewRateLimitMiddleware(limiter)
	}

	protect := func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware.Authenticate)
		}
		if rateLimitMiddleware != nil {
			r.Use(rateLimitMiddleware.Limit)
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Streamed exports run as long as the write timeout allows
		r.Group(func(r chi.Router) {
			protect(r)
			r.Get("/export/table/{tableName}", exportHandler.ExportTable)
		})

		r.Group(func(r chi.Router) {
			if cfg.Server.RequestTimeout > 0 {
				r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
			}

			// Health check
			r.Get("/health", handler.HealthCheck)
			r.Get("/ready", handler.ReadyCheck(exportService))

			r.Group(func(r chi.Router) {
				protect(r)
				r.Post("/export/results", exportHandler.ExportResults)
				r.Get("/tables", exportHandler.ListTables)
			})
		})
	})

	r.Handle("/*", web.Handler())

	return r
}
