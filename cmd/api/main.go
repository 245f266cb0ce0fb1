package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/threadline/threadline-backend/api/routes"
	"github.com/threadline/threadline-backend/internal/auth"
	"github.com/threadline/threadline-backend/internal/cart"
	"github.com/threadline/threadline-backend/internal/categories"
	"github.com/threadline/threadline-backend/internal/checkout"
	"github.com/threadline/threadline-backend/internal/creators"
	"github.com/threadline/threadline-backend/internal/notifications"
	"github.com/threadline/threadline-backend/internal/orders"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/internal/settings"
	"github.com/threadline/threadline-backend/internal/users"
	stripewebhook "github.com/threadline/threadline-backend/internal/webhooks/stripe"
	"github.com/threadline/threadline-backend/internal/wishlist"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	"github.com/threadline/threadline-backend/pkg/migrate"
	"github.com/threadline/threadline-backend/pkg/redis"
	pkgstripe "github.com/threadline/threadline-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	handler, err := buildHandler(ctx, cfg, logg, dbClient, redisClient, registry, checkoutMetrics)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildHandler(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	checkoutMetrics *metrics.CheckoutMetrics,
) (http.Handler, error) {
	gormDB := dbClient.DB()

	settingsService, err := settings.NewService(settings.NewRepository(gormDB), redisClient, cfg.Redis.SettingsCacheTTL, logg)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		Gate:           settingsService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	productRepo := products.NewRepository(gormDB)
	productService, err := products.NewService(productRepo, dbClient)
	if err != nil {
		return nil, err
	}

	categoryService, err := categories.NewService(categories.NewRepository(gormDB), dbClient)
	if err != nil {
		return nil, err
	}
	userService, err := users.NewService(users.NewRepository(gormDB), dbClient, cfg.Password)
	if err != nil {
		return nil, err
	}
	creatorService, err := creators.NewService(creators.NewRepository(gormDB), productRepo, userService)
	if err != nil {
		return nil, err
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		return nil, err
	}

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(gormDB), dbClient, productRepo)
	if err != nil {
		return nil, err
	}

	broadcaster := notifications.NewBroadcaster(redisClient, checkoutMetrics, logg)
	adminNotificationRepo := notifications.NewRepository(gormDB)
	notificationService, err := notifications.NewService(adminNotificationRepo, broadcaster)
	if err != nil {
		return nil, err
	}
	customerNotifications, err := notifications.NewCustomerService(notifications.NewCustomerRepository(gormDB), broadcaster)
	if err != nil {
		return nil, err
	}
	emitter, err := notifications.NewEmitter(adminNotificationRepo, customerNotifications, broadcaster)
	if err != nil {
		return nil, err
	}

	ordersRepo := orders.NewRepository(gormDB)
	orderService, err := orders.NewService(ordersRepo, productRepo, dbClient, emitter, logg)
	if err != nil {
		return nil, err
	}

	// Card payments stay disabled until a Stripe key is configured; cash on delivery works
	// without it.
	var (
		sessions     pkgstripe.CheckoutSessions
		stripeClient *pkgstripe.Client
	)
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		sessions = stripeClient
	} else {
		logg.Warn(ctx, "stripe api key not configured, card payments disabled")
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		productRepo,
		cartRepo,
		ordersRepo,
		sessions,
		emitter,
		checkoutMetrics,
		checkout.Settings{Checkout: cfg.Checkout, FrontendURL: cfg.App.FrontendURL},
		logg,
	)
	if err != nil {
		return nil, err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Checkout: checkoutService,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Redis.IdempotencyTTL, "stripe")
	if err != nil {
		return nil, err
	}

	deps := routes.Dependencies{
		Config:                cfg,
		Logger:                logg,
		DB:                    dbClient,
		Redis:                 redisClient,
		Idempotency:           redisClient,
		Gatherer:              registry,
		HTTPMetrics:           metrics.NewHTTPMetrics(registry),
		Auth:                  authService,
		Products:              productService,
		Categories:            categoryService,
		Creators:              creatorService,
		Users:                 userService,
		Cart:                  cartService,
		Wishlist:              wishlistService,
		Checkout:              checkoutService,
		Orders:                orderService,
		Notifications:         notificationService,
		CustomerNotifications: customerNotifications,
		Settings:              settingsService,
		StripeWebhook:         webhookService,
		WebhookGuard:          guard,
	}
	if stripeClient != nil {
		deps.StripeClient = stripeClient
	}
	return routes.NewRouter(deps), nil
}
