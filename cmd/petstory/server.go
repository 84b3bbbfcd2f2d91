package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrmateussiilva/petstory-mvp/internal/artifact"
	"github.com/mrmateussiilva/petstory-mvp/internal/files"
	"github.com/mrmateussiilva/petstory-mvp/internal/fulfillment"
	"github.com/mrmateussiilva/petstory-mvp/internal/logger"
	"github.com/mrmateussiilva/petstory-mvp/internal/mailer"
	"github.com/mrmateussiilva/petstory-mvp/internal/order"
	"github.com/mrmateussiilva/petstory-mvp/internal/payment"
	"github.com/mrmateussiilva/petstory-mvp/internal/router"
	"github.com/mrmateussiilva/petstory-mvp/internal/storage"
	pgstorage "github.com/mrmateussiilva/petstory-mvp/internal/storage/postgres"
	sqlitestorage "github.com/mrmateussiilva/petstory-mvp/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func openStorage(cfg *Config) (storage.Storage, error) {
	if cfg.DatabaseConnection != "" {
		return pgstorage.NewPostgresStorage(cfg.DatabaseConnection)
	}
	return sqlitestorage.NewSQLiteStorage(cfg.StoragePath)
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.AsaasWebhookToken == "" {
		logger.Log.Warn("ASAAS_WEBHOOK_TOKEN is empty: webhook accepts all events")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := store.Ping(pingCtx); err != nil {
		log.Fatalf("Unable to ping storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}()

	fileStore, err := files.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload dir: %v", err)
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}
	asaas := &payment.Client{
		Client:     httpClient,
		APIKey:     cfg.AsaasAPIKey,
		Production: cfg.AsaasProduction,
	}
	gemini, err := artifact.NewClient(httpClient, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal(err)
	}
	notifier, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		To:       cfg.EmailTo,
	})
	if err != nil {
		log.Fatal(err)
	}

	orderSvc := order.NewService(store, fileStore, asaas, cfg.FrontendBaseURL, cfg.checkoutValue())
	orderHandler := order.NewHandler(orderSvc)

	fulfillSvc := fulfillment.NewService(store, gemini, notifier, fileStore)
	dispatcher := fulfillment.NewDispatcher(fulfillSvc, store, cfg.FulfillWorkers, cfg.FulfillInterval)

	paymentHandler := payment.NewHandler(store, dispatcher, cfg.AsaasWebhookToken)

	r := router.NewRouter(orderHandler, paymentHandler)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go dispatcher.Run(ctx)

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}
