package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/lavapop/outreach-api/internal/config"
	"github.com/lavapop/outreach-api/internal/repository/postgres"
	"github.com/lavapop/outreach-api/internal/service/campaign"
	"github.com/lavapop/outreach-api/internal/service/contact"
	"github.com/lavapop/outreach-api/internal/service/segment"
	"github.com/lavapop/outreach-api/internal/worker"
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
	}

	m := metrics.New("outreach_worker")

	customerRepo := postgres.NewCustomerRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	campaignRepo := postgres.NewCampaignRepository(db)
	ruleRepo := postgres.NewAutomationRuleRepository(db)

	segmentSvc := segment.NewService(customerRepo, transactionRepo, loc, appLogger)
	contactSvc := contact.NewService(
		contactRepo, customerRepo, campaignRepo, ruleRepo, transactionRepo,
		campaign.NewService(ruleRepo, campaignRepo), broker, m,
		cfg.Attribution, loc, appLogger,
	)

	w := worker.NewMaintenanceWorker(contactSvc, segmentSvc, cfg.Worker, m, appLogger)

	setupHealthCheck(cfg.Worker.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down")
		cancel()
	}()

	w.Start(ctx)
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	if port == 0 {
		port = 8081
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}
