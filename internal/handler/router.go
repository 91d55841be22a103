package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/AminArria/sponsorly/pkg/middleware"
)

// RouterConfig holds the handlers and middleware settings for NewRouter
type RouterConfig struct {
	Health       *HealthHandler
	Newsletters  *NewsletterHandler
	Issues       *IssueHandler
	Sponsorships *SponsorshipHandler

	JWT         *middleware.JWTConfig
	CORSOrigins []string
	// Audit records mutating authenticated requests; nil disables it
	Audit *middleware.AuditLogger
	// RateLimit applies to the public read routes
	RateLimit   middleware.RateLimitConfig
	RateLimiter middleware.Limiter
}

// NewRouter builds the HTTP routes
func NewRouter(cfg *RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))

	router.GET("/health", cfg.Health.Health)

	v1 := router.Group("/api/v1")

	public := v1.Group("/u/:user_slug/newsletters")
	if cfg.RateLimiter != nil {
		public.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateLimiter))
	}
	{
		public.GET("", cfg.Newsletters.ListPublic)
		public.GET("/:newsletter_slug", cfg.Newsletters.GetPublic)
		public.GET("/:newsletter_slug/issues", cfg.Issues.ListPublic)
	}

	auth := v1.Group("")
	auth.Use(middleware.JWTMiddleware(cfg.JWT))
	if cfg.Audit != nil {
		auth.Use(middleware.AuditMiddleware(cfg.Audit))
	}

	newsletters := auth.Group("/newsletters")
	{
		newsletters.GET("", cfg.Newsletters.List)
		newsletters.POST("", cfg.Newsletters.Create)
		newsletters.GET("/:id", cfg.Newsletters.Get)
		newsletters.PUT("/:id", cfg.Newsletters.Update)
		newsletters.DELETE("/:id", cfg.Newsletters.Delete)

		newsletters.GET("/:id/issues", cfg.Issues.List)
		newsletters.POST("/:id/issues", cfg.Issues.Create)
		newsletters.GET("/:id/issues/:issue_id", cfg.Issues.Get)
		newsletters.PUT("/:id/issues/:issue_id", cfg.Issues.Update)
		newsletters.DELETE("/:id/issues/:issue_id", cfg.Issues.Delete)
		newsletters.GET("/:id/issues/:issue_id/sponsorships", cfg.Sponsorships.ListOffers)
	}

	auth.POST("/issues/:issue_id/sponsorships", cfg.Sponsorships.Offer)

	sponsorships := auth.Group("/sponsorships")
	{
		sponsorships.DELETE("/:id", cfg.Sponsorships.Withdraw)
		sponsorships.POST("/:id/confirm", cfg.Sponsorships.Confirm)
	}

	confirmed := auth.Group("/confirmed-sponsorships")
	{
		confirmed.GET("/:id/edit", cfg.Sponsorships.GetConfirmed)
		confirmed.PUT("/:id", cfg.Sponsorships.UpdateConfirmed)
		confirmed.DELETE("/:id", cfg.Sponsorships.DeleteConfirmed)
	}

	return router
}
