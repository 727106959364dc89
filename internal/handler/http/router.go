package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/service"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/health"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/middleware"
)

// Services groups the application services the API exposes.
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Reviews  *service.ReviewService
	Chats    *service.ChatService
}

// RouterConfig carries the transport settings for NewRouter. Zero values
// disable the optional pieces: no metrics endpoint, no tracing, no
// generation rate limit. Media serves stored images when they are not on an
// object store.
type RouterConfig struct {
	ServiceName     string
	Tokens          middleware.TokenValidator
	CORS            middleware.CORSConfig
	Cookies         CookieConfig
	MaxImageBytes   int64
	GenerateLimiter *middleware.IPLimiter
	Metrics         *middleware.HTTPMetrics
	MetricsHandler  http.Handler
	Tracing         bool
	Health          *health.Handler
	Media           http.Handler
}

// MediaPrefix is where RouterConfig.Media is mounted.
const MediaPrefix = "/media"

// mediaMaxAge applies to stored images. Image keys are never reused.
const mediaMaxAge = 7 * 24 * time.Hour

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(svc Services, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	if cfg.Tracing {
		r.Use(middleware.Tracing(cfg.ServiceName))
	}
	r.Use(middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORS))

	// Ops endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Media != nil {
		r.With(middleware.CacheControl(mediaMaxAge, true)).
			Handle(MediaPrefix+"/*", http.StripPrefix(MediaPrefix+"/", cfg.Media))
	}

	authHandler := NewAuthHandler(svc.Users, cfg.Cookies, logger)
	productHandler := NewProductHandler(svc.Products, svc.Reviews, cfg.MaxImageBytes, logger)
	reviewHandler := NewReviewHandler(svc.Reviews, logger)
	chatHandler := NewChatHandler(svc.Chats, logger)

	requireAuth := middleware.Auth(cfg.Tokens)
	// Re-derive the request logger so authenticated log lines carry user_id.
	userLogger := middleware.RequestLogger(logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(userLogger)

			r.Get("/user", authHandler.Me)

			r.Post("/products", productHandler.CreateProduct)
			r.Post("/products/{id}/ai-review/preview", productHandler.PreviewAIReview)

			r.Post("/reviews", reviewHandler.SubmitReview)
			r.Post("/reviews/{id}/replies", reviewHandler.AddReply)

			r.Get("/chats", chatHandler.ListChats)
			r.Post("/chats", chatHandler.CreateChat)
			r.Get("/chats/{id}", chatHandler.GetChat)
			r.Put("/chats/{id}", chatHandler.RenameChat)
			r.Delete("/chats/{id}", chatHandler.DeleteChat)
			r.Post("/messages", chatHandler.AddMessage)

			r.Group(func(r chi.Router) {
				if cfg.GenerateLimiter != nil {
					r.Use(middleware.RateLimit(cfg.GenerateLimiter, logger))
				}
				r.Post("/generate", chatHandler.Generate)
			})
		})
	})

	return r
}
