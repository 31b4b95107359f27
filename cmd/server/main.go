package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbilling "github.com/toneforge/backend/internal/application/billing"
	appcontent "github.com/toneforge/backend/internal/application/content"
	appidentity "github.com/toneforge/backend/internal/application/identity"
	"github.com/toneforge/backend/internal/infrastructure/ai"
	"github.com/toneforge/backend/internal/infrastructure/auth"
	infrabilling "github.com/toneforge/backend/internal/infrastructure/billing"
	"github.com/toneforge/backend/internal/infrastructure/config"
	"github.com/toneforge/backend/internal/infrastructure/event"
	"github.com/toneforge/backend/internal/infrastructure/logger"
	"github.com/toneforge/backend/internal/infrastructure/persistence"
	"github.com/toneforge/backend/internal/infrastructure/telemetry"
	"github.com/toneforge/backend/internal/interfaces/http/handler"
	"github.com/toneforge/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ToneForge backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log export", zap.Error(err))
		}
	}()
	if logProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(logProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		log = telemetry.BridgeLogger(log, otelCore)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingEndpoint,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileCPU:        true,
		ProfileInuseSpace: true,
	}, log)
	if err != nil {
		log.Warn("Failed to start continuous profiler", zap.Error(err))
	} else if profiler.IsEnabled() {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		// Span profiles need a running profiler, so this comes after Start
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Token blacklist backed by Redis, falling back to process-local memory
	// when Redis is unreachable
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
		defer func() {
			if err := redisBlacklist.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}

	// Billing provider
	var stripeAdapter *infrabilling.StripeAdapter
	if cfg.Stripe.SecretKey != "" {
		stripeAdapter, err = infrabilling.NewStripeAdapter(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe adapter", zap.Error(err))
		}
	} else {
		log.Warn("Stripe secret key not configured, billing endpoints are disabled")
	}

	// AI provider
	aiClient := ai.NewClient(cfg.AI, log)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Billing metrics fed by domain events, plus a periodic plan
	// distribution gauge
	billingMetrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:        meterProvider.Meter(cfg.Telemetry.ServiceName),
		Logger:       log,
		PlanProvider: telemetry.NewGormPlanDistributionProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize billing metrics", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		billingMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
		defer billingMetrics.Stop()
	}
	metricsHandler := appbilling.NewMetricsEventHandler(billingMetrics, log)
	eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)

	// Repositories
	orgRepo := persistence.NewOrganizationRepository(db.DB)
	userRepo := persistence.NewUserRepository(db.DB)
	membershipRepo := persistence.NewMembershipRepository(db.DB)
	subRepo := persistence.NewSubscriptionRepository(db.DB)
	usageRepo := persistence.NewReplyUsageRepository(db.DB)
	processedEventRepo := persistence.NewStripeEventRepository(db.DB)
	templateRepo := persistence.NewTemplateRepository(db.DB)
	voiceRepo := persistence.NewBrandVoiceRepository(db.DB)
	replyRepo := persistence.NewReplyRepository(db.DB)
	feedbackRepo := persistence.NewFeedbackRepository(db.DB)
	featureCounter := persistence.NewFeatureCounter(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(userRepo, orgRepo, membershipRepo, jwtService, blacklist, eventBus, log)
	orgService := appidentity.NewOrganizationService(orgRepo, userRepo, membershipRepo, log)

	planResolver := appbilling.NewPlanResolver(orgRepo, subRepo)
	usageService := appbilling.NewUsageService(planResolver, usageRepo, eventBus, nil, log)
	featureGate := appbilling.NewFeatureGate(planResolver, featureCounter, nil, log)
	billingService := appbilling.NewBillingService(orgRepo, userRepo, membershipRepo, subRepo, stripeAdapter, log)
	webhookService := appbilling.NewStripeWebhookService(stripeAdapter, orgRepo, subRepo, processedEventRepo, eventBus, log)

	templateService := appcontent.NewTemplateService(templateRepo, featureGate, log)
	voiceService := appcontent.NewBrandVoiceService(voiceRepo, featureGate, log)
	replyService := appcontent.NewReplyService(replyRepo, templateRepo, voiceRepo, usageService, featureGate, aiClient, log)
	analyticsService := appcontent.NewAnalyticsService(replyRepo, feedbackRepo, nil, log)

	// HTTP layer
	engine := router.New(router.Dependencies{
		Config:     cfg,
		Logger:     log,
		Meter:      meterProvider.Meter(cfg.Telemetry.ServiceName),
		JWTService: jwtService,
		Blacklist:  blacklist,

		AuthHandler:      handler.NewAuthHandler(authService, log),
		OrgHandler:       handler.NewOrganizationHandler(orgService, log),
		TemplateHandler:  handler.NewTemplateHandler(templateService, log),
		VoiceHandler:     handler.NewBrandVoiceHandler(voiceService, log),
		ReplyHandler:     handler.NewReplyHandler(replyService, log),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService, log),
		UsageHandler:     handler.NewUsageHandler(usageService, log),
		BillingHandler:   handler.NewBillingHandler(billingService, log),
		WebhookHandler:   handler.NewWebhookHandler(webhookService, log),
		HealthHandler:    handler.NewHealthHandler(db, version, log),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
