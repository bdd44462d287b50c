package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ryan02062001/thankaroo-backend/api/routes"
	"github.com/Ryan02062001/thankaroo-backend/internal/ai"
	"github.com/Ryan02062001/thankaroo-backend/internal/auth"
	"github.com/Ryan02062001/thankaroo-backend/internal/billing"
	"github.com/Ryan02062001/thankaroo-backend/internal/gifts"
	"github.com/Ryan02062001/thankaroo-backend/internal/lists"
	"github.com/Ryan02062001/thankaroo-backend/internal/notes"
	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/internal/reminders"
	"github.com/Ryan02062001/thankaroo-backend/internal/usage"
	"github.com/Ryan02062001/thankaroo-backend/internal/users"
	stripewebhook "github.com/Ryan02062001/thankaroo-backend/internal/webhooks/stripe"
	"github.com/Ryan02062001/thankaroo-backend/pkg/auth/session"
	"github.com/Ryan02062001/thankaroo-backend/pkg/config"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
	"github.com/Ryan02062001/thankaroo-backend/pkg/metrics"
	"github.com/Ryan02062001/thankaroo-backend/pkg/migrate"
	"github.com/Ryan02062001/thankaroo-backend/pkg/openai"
	"github.com/Ryan02062001/thankaroo-backend/pkg/redis"
	"github.com/Ryan02062001/thankaroo-backend/pkg/stripe"
)

const readyCheckTimeout = 5 * time.Second

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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var completer openai.Completer
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(context.Background(), cfg.OpenAI, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap openai", err)
			os.Exit(1)
		}
		completer = openaiClient
	} else {
		logg.Warn(context.Background(), "openai key missing, note drafts use templates only")
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	billingRepo := billing.NewRepository(gormDB)
	usageRepo := usage.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:    billingRepo,
		Users:   usersRepo,
		Stripe:  billing.NewStripeClient(stripeClient),
		Billing: cfg.Billing,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	planService, err := plans.NewService(plans.ServiceParams{
		BillingRepo: billingRepo,
		Syncer:      billingService,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create plan service", err)
		os.Exit(1)
	}

	listService, err := lists.NewService(lists.ServiceParams{
		Repo:  lists.NewRepository(gormDB),
		Plans: planService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create list service", err)
		os.Exit(1)
	}

	giftsRepo := gifts.NewRepository(gormDB)
	giftService, err := gifts.NewService(gifts.ServiceParams{
		Repo:  giftsRepo,
		Lists: listService,
		Plans: planService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gift service", err)
		os.Exit(1)
	}

	noteService, err := notes.NewService(notes.ServiceParams{
		Repo:      notes.NewRepository(gormDB),
		Gifts:     giftService,
		GiftsRepo: giftsRepo,
		Lists:     listService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create note service", err)
		os.Exit(1)
	}

	reminderService, err := reminders.NewService(reminders.ServiceParams{
		Repo:  reminders.NewRepository(gormDB),
		Gifts: giftService,
		Lists: listService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder service", err)
		os.Exit(1)
	}

	draftService, err := ai.NewService(ai.ServiceParams{
		Completer: completer,
		Usage:     usageRepo,
		Plans:     planService,
		Gifts:     giftService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create draft service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Billing: billingService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Billing.WebhookIdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	readyChecks := map[string]func() error{
		"database": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), readyCheckTimeout)
			defer cancel()
			return dbClient.Ping(ctx)
		},
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), readyCheckTimeout)
			defer cancel()
			return redisClient.Ping(ctx)
		},
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		Redis:          redisClient,
		SessionManager: sessionManager,
		ReadyChecks:    readyChecks,

		AuthService:     authService,
		RegisterService: registerService,

		Lists:     listService,
		Gifts:     giftService,
		Notes:     noteService,
		Reminders: reminderService,
		Drafts:    draftService,

		Plans:       planService,
		Usage:       usageRepo,
		Billing:     billingService,
		BillingRepo: billingRepo,

		StripeClient:  stripeClient,
		StripeWebhook: webhookService,
		WebhookGuard:  webhookGuard,

		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
