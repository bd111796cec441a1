package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lavapop/outreach-api/internal/config"
	automationhandler "github.com/lavapop/outreach-api/internal/handler/automation"
	blacklisthandler "github.com/lavapop/outreach-api/internal/handler/blacklist"
	campaignhandler "github.com/lavapop/outreach-api/internal/handler/campaign"
	contacthandler "github.com/lavapop/outreach-api/internal/handler/contact"
	customerhandler "github.com/lavapop/outreach-api/internal/handler/customer"
	eligibilityhandler "github.com/lavapop/outreach-api/internal/handler/eligibility"
	healthhandler "github.com/lavapop/outreach-api/internal/handler/health"
	transactionhandler "github.com/lavapop/outreach-api/internal/handler/transaction"
	"github.com/lavapop/outreach-api/internal/middleware"
	"github.com/lavapop/outreach-api/internal/repository/postgres"
	"github.com/lavapop/outreach-api/internal/router"
	"github.com/lavapop/outreach-api/internal/service/campaign"
	"github.com/lavapop/outreach-api/internal/service/contact"
	"github.com/lavapop/outreach-api/internal/service/eligibility"
	"github.com/lavapop/outreach-api/internal/service/ledger"
	"github.com/lavapop/outreach-api/internal/service/segment"
	"github.com/lavapop/outreach-api/internal/service/settings"
	"github.com/lavapop/outreach-api/pkg/logger"
	"github.com/lavapop/outreach-api/pkg/messaging"
	redisbroker "github.com/lavapop/outreach-api/pkg/messaging/redis"
	"github.com/lavapop/outreach-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(nil)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Business.Timezone).Msg("Invalid business timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Broker is optional: without Redis the engine still records contacts,
	// events just go unpublished.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer broker.Close()
	} else {
		appLogger.Warn("no redis url configured, contact events will not be published")
	}

	m := metrics.New("outreach")

	// Repositories
	customerRepo := postgres.NewCustomerRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	campaignRepo := postgres.NewCampaignRepository(db)
	ruleRepo := postgres.NewAutomationRuleRepository(db)
	blacklistRepo := postgres.NewBlacklistRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(postgres.NewBaseRepository(db))

	// Services
	settingsSvc := settings.NewService(settingsRepo, cfg.Business, appLogger)
	segmentSvc := segment.NewService(customerRepo, transactionRepo, loc, appLogger)
	eligibilitySvc := eligibility.NewService(customerRepo, contactRepo, blacklistRepo, ruleRepo, cfg.Cooldowns, loc)
	campaignSvc := campaign.NewService(ruleRepo, campaignRepo)
	contactSvc := contact.NewService(
		contactRepo, customerRepo, campaignRepo, ruleRepo, transactionRepo,
		campaignSvc, broker, m, cfg.Attribution, loc, appLogger,
	)
	ledgerSvc := ledger.NewService(ledgerRepo, transactionRepo, customerRepo, settingsSvc, loc, appLogger)

	// HTTP
	auth := middleware.NewAuthMiddleware(cfg.Auth.ServiceTokenSecret)
	r := router.New(
		auth,
		healthhandler.NewHandler(db),
		eligibilityhandler.NewHandler(eligibilitySvc, m),
		contacthandler.NewHandler(contactSvc),
		transactionhandler.NewHandler(ledgerSvc),
		customerhandler.NewHandler(customerRepo, segmentSvc),
		automationhandler.NewHandler(campaignSvc),
		campaignhandler.NewHandler(campaignSvc, contactSvc),
		blacklisthandler.NewHandler(blacklistRepo),
		router.Config{RateLimitRPS: 100, RateLimitBurst: 200},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("starting api server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "graceful shutdown failed")
		os.Exit(1)
	}
}
