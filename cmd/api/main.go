package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kwabenadarko/outlethub-backend/api/routes"
	"github.com/kwabenadarko/outlethub-backend/internal/auth"
	"github.com/kwabenadarko/outlethub-backend/internal/orders"
	"github.com/kwabenadarko/outlethub-backend/internal/outlets"
	products "github.com/kwabenadarko/outlethub-backend/internal/products"
	"github.com/kwabenadarko/outlethub-backend/internal/users"
	paystackwebhook "github.com/kwabenadarko/outlethub-backend/internal/webhooks/paystack"
	"github.com/kwabenadarko/outlethub-backend/pkg/auth/session"
	"github.com/kwabenadarko/outlethub-backend/pkg/config"
	"github.com/kwabenadarko/outlethub-backend/pkg/db"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
	"github.com/kwabenadarko/outlethub-backend/pkg/metrics"
	"github.com/kwabenadarko/outlethub-backend/pkg/migrate"
	"github.com/kwabenadarko/outlethub-backend/pkg/paystack"
	"github.com/kwabenadarko/outlethub-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	outletRepo := outlets.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		OutletRepo:     outletRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin register service", err)
		os.Exit(1)
	}

	outletService, err := outlets.NewService(outletRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create outlet service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo: productRepo,
		Tx:   dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	paystackClient, err := paystack.NewClient(cfg.Paystack)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:        orderRepo,
		Tx:          dbClient,
		Users:       userRepo,
		Gateway:     paystackClient,
		Logger:      logg,
		Orders:      cfg.Orders,
		CallbackURL: cfg.Frontend.BaseURL + "/checkout/callback",
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	webhookGuard, err := paystackwebhook.NewIdempotencyGuard(redisClient, cfg.Paystack.WebhookEventTTL, "paystack")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookService, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Orders: orderService,
		Guard:  webhookGuard,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient.DB(),
			Redis:                redisClient,
			SessionChecker:       sessionManager,
			HTTPMetrics:          httpMetrics,
			AuthService:          authService,
			RegisterService:      registerService,
			AdminRegisterService: adminRegisterService,
			OutletService:        outletService,
			ProductService:       productService,
			OrderService:         orderService,
			WebhookService:       webhookService,
			PaystackVerifier:     paystackClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
