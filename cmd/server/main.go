package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/larder/internal"
	"github.com/dukerupert/larder/internal/address"
	"github.com/dukerupert/larder/internal/cookie"
	"github.com/dukerupert/larder/internal/events"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/handler/storefront"
	"github.com/dukerupert/larder/internal/identity"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/pricing"
	"github.com/dukerupert/larder/internal/router"
	"github.com/dukerupert/larder/internal/routes"
	"github.com/dukerupert/larder/internal/service"
	"github.com/dukerupert/larder/internal/telemetry"
	"github.com/dukerupert/larder/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	zerolog.DefaultContextLogger = &logger
	ctx = logger.WithContext(ctx)

	// Storage
	store, checks, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Event publishing
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics("larder", registry)
	businessMetrics := telemetry.NewBusinessMetrics("larder", registry)

	// Services
	engine, err := pricing.New(pricing.Config{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingOverCents: cfg.Pricing.FreeShippingThresholdCents,
		FlatShippingCents:     cfg.Pricing.FlatShippingCents,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize pricing: %w", err)
	}

	cartService := service.NewCartService(store, engine, publisher, businessMetrics)
	productService := service.NewProductService(store)
	orderService := service.NewOrderService(store)
	checkoutService := service.NewCheckoutService(
		store,
		engine,
		address.NewBasicValidator(),
		publisher,
		businessMetrics,
		service.CheckoutConfig{StrictStock: cfg.Cart.StrictStock},
	)
	logger.Info().
		Str("tax_rate", cfg.Pricing.TaxRate.String()).
		Bool("strict_stock", cfg.Cart.StrictStock).
		Msg("services initialized")

	// Identity
	guests := cookie.NewGuestStore(cookie.Config{
		Secret: cfg.SessionSecret,
		Domain: cfg.CookieDomain,
		Secure: cfg.IsProduction(),
		MaxAge: cfg.Cart.GuestCartTTL,
	})
	resolver := identity.NewResolver(cfg.JWTSecret, guests)

	// Rate limiting
	apiLimit, checkoutLimit, closeLimiter, err := newRateLimits(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// Router
	securityHeaders := middleware.DefaultSecurityHeadersConfig()
	if cfg.IsProduction() {
		securityHeaders = middleware.ProductionSecurityHeadersConfig()
	}

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityHeaders),
		router.Logger(logger),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health:  handler.Health(checks),
		Metrics: httpMetrics.Handler(),
	})

	api := r.Group(
		middleware.MaxBodySize(),
		middleware.Timeout(),
		apiLimit,
	)
	routes.RegisterStorefrontRoutes(api, routes.StorefrontDeps{
		ProductHandler:  storefront.NewProductHandler(productService),
		CartHandler:     storefront.NewCartHandler(cartService, productService, guests),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService),
		OrderHandler:    storefront.NewOrderHandler(orderService),
		Identity: func(next http.Handler) http.Handler {
			return middleware.WithIdentity(resolver)(middleware.WithRequestLogger(logger)(next))
		},
		CheckoutLimit: checkoutLimit,
	})

	var root http.Handler = r
	if len(cfg.CORSOrigins) > 0 {
		root = router.CORS(cfg.CORSOrigins)(r)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(int(cfg.Port))),
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sweeper := worker.NewWorker(store, businessMetrics, worker.Config{
		SweepInterval: cfg.Cart.SweepInterval,
		GuestCartTTL:  cfg.Cart.GuestCartTTL,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newPublisher connects to NATS when configured. Without NATS_URL events are dropped.
func newPublisher(cfg *internal.Config, logger zerolog.Logger) (events.Publisher, error) {
	if cfg.NATSUrl == "" {
		logger.Info().Msg("NATS_URL not set, cart events disabled")
		return events.Noop{}, nil
	}

	publisher, err := events.NewNATSPublisher(events.NATSConfig{
		URL:           cfg.NATSUrl,
		SubjectPrefix: "larder.",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	logger.Info().Msg("NATS event publisher connected")
	return publisher, nil
}

// newRateLimits returns the API-wide and checkout limiters. With REDIS_URL both
// are shared across instances; otherwise each instance keeps its own buckets.
func newRateLimits(ctx context.Context, cfg *internal.Config, logger zerolog.Logger, checks map[string]handler.Pinger) (api, checkout router.Middleware, closeFn func(), err error) {
	if cfg.RedisUrl == "" {
		apiLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		checkoutLimiter := middleware.NewRateLimiter(middleware.CheckoutRateLimiterConfig())
		closeFn = func() {
			apiLimiter.Stop()
			checkoutLimiter.Stop()
		}
		return apiLimiter.Middleware, checkoutLimiter.Middleware, closeFn, nil
	}

	opts, err := redis.ParseURL(cfg.RedisUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		// Limiters fail open, so an unreachable Redis only disables throttling.
		logger.Warn().Err(err).Msg("redis unreachable at startup")
	}
	checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	api = middleware.LimitBy(middleware.NewRedisLimiter(client, 120, time.Minute), nil)
	checkout = middleware.LimitBy(
		middleware.NewRedisLimiter(client, 10, time.Minute),
		func(r *http.Request) string { return "checkout:" + middleware.GetClientIP(r) },
	)
	logger.Info().Msg("redis rate limiter enabled")
	return api, checkout, func() { _ = client.Close() }, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
