package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cvcraft/internal/assist"
	"cvcraft/internal/billing"
	"cvcraft/internal/config"
	"cvcraft/internal/credits"
	"cvcraft/internal/db"
	"cvcraft/internal/document"
	"cvcraft/internal/email"
	"cvcraft/internal/jobs"
	"cvcraft/internal/logger"
	"cvcraft/internal/server"
	"cvcraft/internal/subscription"
	"cvcraft/internal/usage"
	"cvcraft/internal/user"

	"github.com/redis/go-redis/v9"
)

// @title                       cvcraft API
// @version                     1.0
// @description                 Resume and cover-letter builder with an AI credit ledger, plan limits, subscriptions and billing.
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("Starting cvcraft application")

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	mail := email.New(redisClient, email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	})
	defer mail.Close()
	logger.Info("Email service initialized")

	free := usage.FreeTier{
		ResumeLimit:      cfg.FreeResumeLimit,
		CoverLetterLimit: cfg.FreeCoverLetterLimit,
	}

	userRepo := user.NewRepository(database)
	subStore := subscription.NewStore(database)
	creditStore := credits.NewStore(database)
	billingStore := billing.NewStore(database)
	documentRepo := document.NewRepository(database)

	notifier := email.NewNotifier(mail, userRepo)
	creditService := credits.NewService(creditStore, free, cfg.TrialAICredits)
	userService := user.NewService(userRepo, creditService, cfg.JWTSecret, user.WithWelcomer(notifier))
	billingService := billing.NewService(billingStore)

	subOpts := []subscription.Option{
		subscription.WithInvoices(billingService),
		subscription.WithNotifier(notifier),
	}
	if cfg.StripeAPIKey != "" {
		subOpts = append(subOpts, subscription.WithGateway(billing.NewStripeGateway(cfg.StripeAPIKey, userRepo)))
		logger.Info("Stripe gateway enabled")
	}
	subService := subscription.NewService(subStore, subOpts...)

	usageService := usage.NewService(userRepo, subStore, documentRepo, free)
	documentService := document.NewService(documentRepo, usageService, creditService, cfg.OverCapCreditCost)

	var provider assist.Provider
	if cfg.OpenAIAPIKey != "" {
		provider = assist.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set; AI features are disabled")
	}
	assistService := assist.NewService(creditService, provider,
		assist.WithCache(assist.NewRedisCache(redisClient, cfg.AICacheTTL)))

	handlers := server.Handlers{
		User:         user.NewHandler(userService),
		Credits:      credits.NewHandler(creditService),
		Subscription: subscription.NewHandler(subService),
		Usage:        usage.NewHandler(usageService),
		Document:     document.NewHandler(documentService),
		Assist:       assist.NewHandler(assistService),
		Billing:      billing.NewHandler(billingService),
		Mail:         mail,
	}
	if cfg.StripeWebhookSecret != "" {
		handlers.Webhook = billing.NewWebhookHandler(cfg.StripeWebhookSecret, subService, subStore, billingService)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mail.Start(ctx)

	scheduler := jobs.NewScheduler(jobs.Config{
		ExpireSchedule: cfg.ExpireSubscriptionsSchedule,
		GaugeSchedule:  cfg.QueueGaugeSchedule,
	}, subService, mail)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start job scheduler: %v", err)
	}

	srv := server.New(cfg, database, handlers)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	scheduler.Stop(shutdownCtx)
	cancel()

	logger.Info("Server stopped")
}
