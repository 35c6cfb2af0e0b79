// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tmercier/go-bagcheck-backend/internal/config"
	"github.com/tmercier/go-bagcheck-backend/internal/http/handlers"
	"github.com/tmercier/go-bagcheck-backend/internal/http/middleware"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
)

// Deps bundles the application dependencies the router injects into the
// handlers. Everything is constructed in main and passed down; the router
// owns no state of its own.
type Deps struct {
	Snapshot handlers.SnapshotProvider
	Check    handlers.CheckService
	Admin    *services.AdminService
	Photos   handlers.PhotoService
	Mileage  handlers.MileageService
	Alerts   handlers.AlertSweeper
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (bootstrap payloads compress well)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (8 MiB; photo uploads arrive as base64 JSON)
	r.Use(limitBody(8 << 20))

	// 6) Compress responses; the bootstrap snapshot is the big one
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	var idemDB = idemLookupDB(deps.Check)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, bagName, key string, now time.Time) (bool, error) {
			if idemDB == nil {
				return false, nil
			}
			rec, err := repo.GetIdempotency(ctx, idemDB.DB, userID, bagName, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API documentation (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Snapshot, deps.Check, deps.Admin, deps.Photos, deps.Mileage, deps.Alerts)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Bootstrap
		api.GET("/bootstrap", h.Bootstrap)

		// Checks
		api.POST("/bags/:name/checks", h.SaveCheck)

		// Photos
		api.POST("/photos", h.UploadPhoto)
		api.GET("/photos", h.ListPhotos)
		api.GET("/photos/latest", h.LatestPhoto)
		api.GET("/photos/events", h.PhotoEvents)
		api.GET("/photos/:id", h.PhotoFile)
		api.DELETE("/photos/:id", h.DeletePhoto)

		// Impacts
		api.POST("/impacts", h.UploadImpact)
		api.GET("/impacts/:bag", h.ListImpacts)
		api.DELETE("/impacts/:id", h.DeletePhoto)
		api.PUT("/impacts/:id/comment", h.UpdateImpactComment)

		// Mileage
		api.PUT("/mileage", h.SaveMileage)
		api.GET("/mileage", h.ListMileages)

		// Bags (admin)
		api.POST("/bags", h.AddBag)
		api.DELETE("/bags/:name", h.DeleteBag)
		api.PUT("/bags/:name/rename", h.RenameBag)
		api.PUT("/bags/:name/state", h.SetBagState)
		api.PUT("/bags/:name/recipients", h.SetRecipient)
		api.PUT("/bags/:name/location", h.SetLocation)
		api.PUT("/bags/locations", h.SetLocations)
		api.PUT("/bags/orders", h.SetOrders)

		// Categories and templates (admin)
		api.POST("/categories", h.CreateCategory)
		api.PUT("/categories/:name/rename", h.RenameCategory)
		api.DELETE("/categories/:name", h.DeleteCategory)
		api.PUT("/categories/frequencies", h.ReplaceFrequencies)
		api.PUT("/categories/:name/template", h.ReplaceTemplate)

		// Settings, history, maintenance (admin)
		api.PUT("/options", h.SaveOptions)
		api.PUT("/mail-templates", h.SaveMailTemplates)
		api.DELETE("/history/:index", h.DeleteHistoryEntry)
		api.POST("/admin/recalculate", h.Recalculate)
		api.POST("/admin/cleanup", h.RunCleanup)
		api.POST("/admin/alert-sweep", h.AlertSweep)
	}
}

// idemLookupDB unwraps the concrete CheckService to reach the DB handle the
// idempotency lookup needs. A stubbed service disables the lookup.
func idemLookupDB(check handlers.CheckService) *services.CheckService {
	if svc, ok := check.(*services.CheckService); ok && svc != nil && svc.DB != nil {
		return svc
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
