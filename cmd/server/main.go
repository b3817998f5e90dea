package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Storefront backend: catalog, cart pricing, checkout and orders.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()
	if lp := providers.LoggerProvider(); lp != nil {
		log = telemetry.Bridge(log, telemetry.NewZapCore(cfg.Telemetry.ServiceName, lp, logger.ParseLevel(cfg.Log.Level)))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		MutexProfiling:    cfg.Profiling.MutexProfiling,
		BlockProfiling:    cfg.Profiling.BlockProfiling,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Failed to stop profiler", zap.Error(err))
		}
	}()
	if cfg.Profiling.SpanProfiles {
		providers.EnableSpanProfiles()
	}

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabase(cfg.Database, persistence.Options{
		Logger: logger.NewGormLogger(log, logger.GormLevel(cfg.Database.LogLevel), cfg.Database.SlowThreshold),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterGormTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        db.Driver(),
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowThreshold,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	healthChecks := []handler.HealthCheck{{Name: "database", Check: db.Ping}}

	// Redis backs token revocation and checkout idempotency when enabled
	var redisClient *redis.Client
	var revocations auth.TokenRevocations = auth.NewInMemoryTokenRevocations()
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		revocations = auth.NewRedisTokenRevocations(redisClient)
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	idemOpts := []cache.IdempotencyStoreFactoryOption{cache.WithLogger(log)}
	if redisClient != nil {
		idemOpts = append(idemOpts, cache.WithClient(redisClient))
	}
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, idemOpts...).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	if closer, ok := idempotencyStore.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	objectStorage := newObjectStorage(ctx, cfg.Storage, log)

	storeMetrics, err := telemetry.NewStoreMetrics(providers.Meter("storefront"))
	if err != nil {
		log.Warn("Store metrics unavailable", zap.Error(err))
	}

	currency, err := valueobject.ParseCurrency(cfg.Pricing.Currency)
	if err != nil {
		log.Fatal("Invalid pricing currency", zap.Error(err))
	}
	locale, err := language.Parse(cfg.Pricing.Locale)
	if err != nil {
		log.Fatal("Invalid pricing locale", zap.String("locale", cfg.Pricing.Locale), zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	discountRepo := persistence.NewGormDiscountCodeRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	csrfService := auth.NewCSRFService(cfg.CSRF, cfg.JWT.Issuer)
	repricer := cartapp.NewRepricer(pricing.Config{
		TaxRate:               cfg.Pricing.TaxRate,
		ShippingRate:          cfg.Pricing.ShippingRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
	})

	productService := catalogapp.NewProductService(productRepo, objectStorage,
		catalogapp.WithLogger(log.Named("catalog")),
		catalogapp.WithUploadTTL(cfg.Storage.PresignExpiration),
	)
	cartService := cartapp.NewCartService(cartRepo, productRepo, discountRepo, repricer,
		cartapp.WithLogger(log.Named("cart")),
		cartapp.WithMetrics(storeMetrics),
		cartapp.WithImageURL(productService.ImageURL),
	)
	discountService := cartapp.NewDiscountService(discountRepo, log.Named("discount"))
	orderService := orderapp.NewOrderService(orderRepo,
		persistence.NewGormTransactionScope(db.DB, cfg.Checkout.OrderPrefix),
		repricer,
		orderapp.WithLogger(log.Named("order")),
		orderapp.WithMetrics(storeMetrics),
		orderapp.WithCurrency(currency, locale),
		orderapp.WithIdempotency(idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Checkout.IdempotencyTTL,
			Enabled: true,
		}),
	)
	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, cartService, log.Named("auth"))

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.App.IsProduction()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.Profiling(profiler.Enabled()),
		middleware.HTTPMetricsWithMeter(providers.Meter("storefront.http"), cfg.Telemetry.MetricsEnabled),
		middleware.CORSWithConfig(corsConfig),
		middleware.SecureWithConfig(securityConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.Use(
		middleware.CartSession(cfg.Cookie),
		middleware.OptionalJWTAuth(middleware.JWTMiddlewareConfig{
			JWTService:  jwtService,
			Revocations: revocations,
			Logger:      log,
		}),
		middleware.TracingAttributeInjector(),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, healthChecks...)
	engine.GET("/health", systemHandler.Health)

	guards := router.Guards{CSRF: middleware.CSRF(csrfService, cfg.CSRF.HeaderName)}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
		guards.AuthRateLimit = middleware.AuthRateLimit(authLimiter)
	}

	groups := router.StorefrontGroups(router.Handlers{
		System:   systemHandler,
		CSRF:     handler.NewCSRFHandler(csrfService, cfg.CSRF.HeaderName),
		Auth:     handler.NewAuthHandler(authService),
		Product:  handler.NewProductHandler(productService),
		Cart:     handler.NewCartHandler(cartService),
		Order:    handler.NewOrderHandler(orderService),
		Discount: handler.NewDiscountHandler(discountService),
	}, guards)

	r := router.NewRouter(engine)
	for _, group := range groups {
		r.Register(group)
	}
	r.Setup()

	for _, group := range groups {
		for _, route := range group.Routes(r.BasePath()) {
			log.Debug("Route registered",
				zap.String("group", group.Name()),
				zap.String("method", route.Method),
				zap.String("path", route.Path),
			)
		}
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage returns S3-compatible storage when configured and the
// in-process stub otherwise
func newObjectStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) catalogapp.ObjectStorage {
	if !cfg.Enabled {
		log.Info("Object storage disabled, using stub storage")
		return storage.NewStubObjectStorage(cfg.PublicBaseURL)
	}

	s3, err := storage.NewS3ObjectStorage(ctx, cfg,
		storage.WithLogger(log.Named("storage")),
		storage.WithPresignExpiration(cfg.PresignExpiration),
	)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare storage bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3
}
