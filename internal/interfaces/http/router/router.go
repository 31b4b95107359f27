package router

import (
	"github.com/gin-gonic/gin"
	"github.com/toneforge/backend/internal/infrastructure/auth"
	"github.com/toneforge/backend/internal/infrastructure/config"
	"github.com/toneforge/backend/internal/interfaces/http/handler"
	"github.com/toneforge/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Dependencies carries everything the router needs to wire routes
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Meter      metric.Meter
	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist

	AuthHandler      *handler.AuthHandler
	OrgHandler       *handler.OrganizationHandler
	TemplateHandler  *handler.TemplateHandler
	VoiceHandler     *handler.BrandVoiceHandler
	ReplyHandler     *handler.ReplyHandler
	AnalyticsHandler *handler.AnalyticsHandler
	UsageHandler     *handler.UsageHandler
	BillingHandler   *handler.BillingHandler
	WebhookHandler   *handler.WebhookHandler
	HealthHandler    *handler.HealthHandler
}

// authSkipPaths lists endpoints reachable without a token
var authSkipPaths = []string{
	"/healthz",
	"/readyz",
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/v1/webhooks/stripe",
}

// New builds the gin engine with the full middleware chain and all routes
func New(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(deps.Config.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(deps.Config.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	if deps.Config.Telemetry.Enabled {
		engine.Use(middleware.Tracing(deps.Config.Telemetry.ServiceName))
	}
	if deps.Meter != nil {
		if httpMetrics, err := middleware.NewHTTPMetrics(deps.Meter); err != nil {
			deps.Logger.Warn("Failed to create HTTP metrics", zap.Error(err))
		} else {
			engine.Use(httpMetrics.Middleware())
		}
	}
	engine.Use(middleware.RequestLogger(deps.Logger))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowedOrigins: deps.Config.HTTP.CORSAllowOrigins,
		AllowedMethods: deps.Config.HTTP.CORSAllowMethods,
		AllowedHeaders: deps.Config.HTTP.CORSAllowHeaders,
		MaxAge:         "86400",
	}))
	engine.Use(middleware.BodyLimit(deps.Config.HTTP.MaxBodySize))
	engine.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService: deps.JWTService,
		Blacklist:  deps.Blacklist,
		Logger:     deps.Logger,
		SkipPaths:  authSkipPaths,
	}))
	if deps.Config.Telemetry.Enabled {
		engine.Use(middleware.TraceEnrichment())
	}

	engine.GET("/healthz", deps.HealthHandler.Live)
	engine.GET("/readyz", deps.HealthHandler.Ready)

	v1 := engine.Group("/api/v1")

	// Credential endpoints are throttled harder than the rest of the API
	authLimiter := middleware.NewRateLimiter(5, 10)
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authLimiter.Middleware(), deps.AuthHandler.Register)
		authGroup.POST("/login", authLimiter.Middleware(), deps.AuthHandler.Login)
		authGroup.POST("/refresh", authLimiter.Middleware(), deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)
		authGroup.GET("/me", deps.AuthHandler.Me)
	}

	orgs := v1.Group("/orgs")
	{
		orgs.GET("", deps.OrgHandler.List)
		orgs.POST("", deps.OrgHandler.Create)
	}

	org := v1.Group("/org")
	{
		org.GET("", deps.OrgHandler.Get)
		org.PATCH("", deps.OrgHandler.Rename)
		org.POST("/members", deps.OrgHandler.AddMember)
	}

	templates := v1.Group("/templates")
	{
		templates.POST("", deps.TemplateHandler.Create)
		templates.GET("", deps.TemplateHandler.List)
		templates.GET("/:id", deps.TemplateHandler.Get)
		templates.PUT("/:id", deps.TemplateHandler.Update)
		templates.DELETE("/:id", deps.TemplateHandler.Delete)
	}

	voices := v1.Group("/brand-voices")
	{
		voices.POST("", deps.VoiceHandler.Create)
		voices.GET("", deps.VoiceHandler.List)
		voices.GET("/:id", deps.VoiceHandler.Get)
		voices.PUT("/:id", deps.VoiceHandler.Update)
		voices.DELETE("/:id", deps.VoiceHandler.Delete)
	}

	replies := v1.Group("/replies")
	{
		replies.POST("/generate", deps.ReplyHandler.Generate)
		replies.GET("", deps.ReplyHandler.History)
		replies.GET("/:id", deps.ReplyHandler.Get)
		replies.POST("/:id/feedback", deps.AnalyticsHandler.RecordFeedback)
	}

	analytics := v1.Group("/analytics")
	{
		analytics.GET("/replies", deps.AnalyticsHandler.Insights)
		analytics.GET("/feedback", deps.AnalyticsHandler.FeedbackSummary)
	}

	v1.GET("/usage", deps.UsageHandler.Snapshot)

	billing := v1.Group("/billing")
	{
		billing.GET("", deps.BillingHandler.Overview)
		billing.POST("/checkout", deps.BillingHandler.StartCheckout)
		billing.POST("/portal", deps.BillingHandler.OpenPortal)
		billing.GET("/invoices", deps.BillingHandler.ListInvoices)
	}

	v1.POST("/webhooks/stripe", deps.WebhookHandler.HandleStripe)

	return engine
}
