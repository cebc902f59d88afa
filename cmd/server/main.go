package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/app"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/automation"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/config"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/hostaway"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/httpserver"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/logger"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/nocodb"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/scheduler"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/slack"
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/infra/wazzup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; write straight to stderr and bail.
		os.Stderr.WriteString("FATAL: could not load application configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Outbound clients
	hostawayClient := hostaway.NewClient(hostaway.Config{
		BaseURL: cfg.HostawayBaseURL,
		APIKey:  cfg.HostawayAPIKey,
	}, log)
	log.Info("Hostaway client initialized.")

	reminderStore := nocodb.NewStore(nocodb.Config{
		BaseURL: cfg.RemindersAPIURL,
		Token:   cfg.DBAPIKey,
	}, log)
	log.Info("Reminder store initialized.")

	sender := wazzup.NewClient(wazzup.Config{
		BaseURL:     cfg.WazzupBaseURL,
		AccessToken: cfg.AccessToken,
		ChannelID:   cfg.WazzupChannelID,
		CRMUserID:   cfg.WazzupCRMUserID,
	}, log)
	log.Info("Messaging gateway client initialized.")

	alerts := slack.NewNotifier(cfg.SlackWebhookURL, log)
	if cfg.SlackWebhookURL == "" {
		log.Warn("SLACK_API not set, alerts will only be logged.")
	}

	relay := automation.NewRelay(cfg.AutomationWebhookURL, log)
	if cfg.AutomationWebhookURL == "" {
		log.Warn("AUTOMATION_WEBHOOK_URL not set, checkout relay will report errors.")
	}

	// Application services
	complianceService := app.NewComplianceService(hostawayClient, reminderStore, sender, alerts, log)
	checkoutService := app.NewCheckoutService(hostawayClient, hostawayClient, relay, alerts, log)
	reconciliationService := app.NewReconciliationService(hostawayClient, sender, alerts, log, cfg.ReconcileDelay)
	log.Info("Application services initialized.")

	// Batch scheduler
	batchScheduler := scheduler.NewBatchScheduler(complianceService, checkoutService, alerts, log, scheduler.Specs{
		Registrations: cfg.CronSpecRegistrations,
		Verifications: cfg.CronSpecVerifications,
		Arrivals:      cfg.CronSpecArrivals,
		Checkout:      cfg.CronSpecCheckout,
	})
	if err := batchScheduler.Start(); err != nil {
		log.Fatalf("FATAL: could not start batch scheduler: %v", err)
	}

	// HTTP surface
	server := httpserver.NewServer(complianceService, checkoutService, reconciliationService, log)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	batchScheduler.Stop()
	reconciliationService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	log.Info("Application shut down gracefully.")
}
