package di

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/events"
	"github.com/AminArria/sponsorly/internal/handler"
	"github.com/AminArria/sponsorly/internal/schedule"
	"github.com/AminArria/sponsorly/internal/service"
	"github.com/AminArria/sponsorly/internal/slotgate"
	"github.com/AminArria/sponsorly/pkg/config"
	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/middleware"
)

// Container holds all dependencies for the sponsorship service
type Container struct {
	// Infrastructure
	Infra       *Infrastructure
	Gate        slotgate.Gate
	Publisher   events.Publisher
	Audit       *middleware.AuditLogger
	RateLimiter middleware.Limiter

	// Services
	UserService        service.UserService
	NewsletterService  service.NewsletterService
	IssueService       service.IssueService
	SponsorshipService service.SponsorshipService

	// Handlers
	HealthHandler      *handler.HealthHandler
	NewsletterHandler  *handler.NewsletterHandler
	IssueHandler       *handler.IssueHandler
	SponsorshipHandler *handler.SponsorshipHandler

	Router *gin.Engine

	localLimiter *middleware.LocalRateLimiter
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	Infra  *Infrastructure
	// Clock overrides time.Now in every service
	Clock func() time.Time
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *ContainerConfig) (*Container, error) {
	appCfg := cfg.Config
	c := &Container{
		Infra:     cfg.Infra,
		Gate:      slotgate.Noop{},
		Publisher: events.Noop{},
	}

	// Optional infrastructure
	if c.Infra.Redis != nil {
		gate, err := slotgate.NewRedisGate(ctx, c.Infra.Redis, slotgate.Config{TTL: appCfg.Redis.SlotMarkerTTL})
		if err != nil {
			return nil, err
		}
		c.Gate = gate
	}
	if c.Infra.Producer != nil {
		c.Publisher = events.NewKafkaPublisher(c.Infra.Producer)
	}

	var writer middleware.AuditWriter
	if c.Infra.Postgres != nil {
		writer = middleware.NewPgAuditWriter(c.Infra.Postgres.Pool())
	} else {
		writer = middleware.NewLogAuditWriter(logger.Get().Named("audit"))
	}
	c.Audit = middleware.NewAuditLogger(middleware.DefaultAuditConfig(writer))

	rateLimit := middleware.DefaultRateLimitConfig(appCfg.Server.PublicRateLimit)
	if c.Infra.Redis != nil {
		rateLimit.RedisClient = c.Infra.Redis
		limiter, err := middleware.NewRedisRateLimiter(ctx, rateLimit)
		if err != nil {
			_ = c.Audit.Close()
			return nil, err
		}
		c.RateLimiter = limiter
	} else {
		c.localLimiter = middleware.NewLocalRateLimiter(rateLimit)
		c.RateLimiter = c.localLimiter
	}

	// Initialize services
	opts := []service.Option{
		service.WithClock(cfg.Clock),
		service.WithHorizon(schedule.Horizon{Span: appCfg.Schedule.Horizon, MaxIssues: appCfg.Schedule.MaxIssues}),
		service.WithSlotGate(c.Gate),
		service.WithPublisher(c.Publisher),
	}
	c.UserService = service.NewUserService(c.Infra.Store, opts...)
	c.NewsletterService = service.NewNewsletterService(c.Infra.Store, opts...)
	c.IssueService = service.NewIssueService(c.Infra.Store, opts...)
	c.SponsorshipService = service.NewSponsorshipService(c.Infra.Store, opts...)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.healthChecks())
	c.NewsletterHandler = handler.NewNewsletterHandler(c.NewsletterService)
	c.IssueHandler = handler.NewIssueHandler(c.IssueService)
	c.SponsorshipHandler = handler.NewSponsorshipHandler(c.SponsorshipService)

	c.Router = handler.NewRouter(&handler.RouterConfig{
		Health:       c.HealthHandler,
		Newsletters:  c.NewsletterHandler,
		Issues:       c.IssueHandler,
		Sponsorships: c.SponsorshipHandler,
		JWT: &middleware.JWTConfig{
			Secret: appCfg.JWT.Secret,
			Issuer: appCfg.JWT.Issuer,
		},
		CORSOrigins: appCfg.Server.CORSOrigins,
		Audit:       c.Audit,
		RateLimit:   rateLimit,
		RateLimiter: c.RateLimiter,
	})

	return c, nil
}

func (c *Container) healthChecks() map[string]handler.HealthCheck {
	checks := make(map[string]handler.HealthCheck)
	if c.Infra.Postgres != nil {
		checks["database"] = c.Infra.Postgres.HealthCheck
	}
	if c.Infra.SQLite != nil {
		checks["database"] = c.Infra.SQLite.PingContext
	}
	if c.Infra.Redis != nil {
		checks["redis"] = c.Infra.Redis.HealthCheck
	}
	return checks
}

// Close flushes the audit log and releases the infrastructure
func (c *Container) Close(ctx context.Context) {
	if err := c.Audit.Close(); err != nil {
		logger.Warn("failed to close audit logger", zap.Error(err))
	}
	if c.localLimiter != nil {
		c.localLimiter.Stop()
	}
	c.Infra.Close(ctx)
}
