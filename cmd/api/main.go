package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-event-bus/internal/application/delivery"
	"github.com/go-event-bus/internal/config"
	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/infrastructure/contact"
	"github.com/go-event-bus/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-event-bus/internal/infrastructure/jwt"
	"github.com/go-event-bus/internal/infrastructure/smtp"
	snsinfra "github.com/go-event-bus/internal/infrastructure/sns"
	"github.com/go-event-bus/internal/infrastructure/webhook"
	transporthttp "github.com/go-event-bus/internal/transport/http"
	"github.com/go-event-bus/internal/transport/ws"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	eventRepo := dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events)
	subscriptionRepo := dynamo.NewSubscriptionRepo(dynamoClient, cfg.DynamoTables.Subscriptions)
	preferenceRepo := dynamo.NewPreferenceRepo(dynamoClient, cfg.DynamoTables.Preferences)
	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	deliveryRepo := dynamo.NewDeliveryRepo(dynamoClient, cfg.DynamoTables.DeliveryAttempts)

	// Background goroutines share one cancellable context.
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(runCtx)

	dispatcher := delivery.NewDispatcher(hub, deliveryRepo, notificationRepo, delivery.Config{
		MaxRetries:  cfg.MaxDeliveryRetries,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		SendTimeout: cfg.SendTimeout,
	})

	// Endpoint resolution for external channels.
	directory := &contact.Directory{
		EmailTemplate:      cfg.ContactEmailTemplate,
		PhoneTemplate:      cfg.ContactPhoneTemplate,
		PushTargetTemplate: cfg.ContactPushTargetTemplate,
		WebhookTemplate:    cfg.ContactWebhookTemplate,
	}

	mailer := smtp.NewMailer(cfg)
	dispatcher.Register(domain.ChannelEmail, smtp.NewEmailSender(mailer, directory))
	dispatcher.Register(domain.ChannelWebhook, webhook.NewSender(directory, cfg.WebhookTimeout))

	// SNS-backed channels (optional — graceful fallback).
	if snsClient, err := snsinfra.NewClient(cfg); err == nil {
		dispatcher.Register(domain.ChannelSMS, snsinfra.NewSMSSender(snsClient, directory))
		dispatcher.Register(domain.ChannelPush, snsinfra.NewPushSender(snsClient, directory))
	} else {
		log.Printf("WARN: SNS client not available, sms and push channels disabled: %v", err)
	}

	scheduler := delivery.NewScheduler(dispatcher, deliveryRepo, notificationRepo, cfg.RetrySweepInterval, cfg.PendingTTL)
	go scheduler.Run(runCtx)

	deps := &transporthttp.Deps{
		EventRepo:        eventRepo,
		SubscriptionRepo: subscriptionRepo,
		PreferenceRepo:   preferenceRepo,
		NotificationRepo: notificationRepo,
		Dispatcher:       dispatcher,
		Hub:              hub,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel() // stop the hub and retry scheduler
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
