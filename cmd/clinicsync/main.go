package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nicksonlangat/clinicsync-api/internal/clinic"
	"github.com/nicksonlangat/clinicsync-api/internal/config"
	"github.com/nicksonlangat/clinicsync-api/internal/db"
	"github.com/nicksonlangat/clinicsync-api/internal/notify"
	"github.com/nicksonlangat/clinicsync-api/internal/order"
	"github.com/nicksonlangat/clinicsync-api/internal/product"
	"github.com/nicksonlangat/clinicsync-api/internal/reservation"
	"github.com/nicksonlangat/clinicsync-api/internal/transport"
	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("service", "clinicsync").Logger()

	log.Info().Msg("Starting clinicsync...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()
	database, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	templates, err := notify.DefaultTemplates()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse notification templates")
	}
	renderer := notify.NewTemplateRenderer(templates)
	sender := notify.LogSender{}

	vendorRepo := vendors.NewRepository(database.Pool)
	vendorSvc := vendors.NewService(vendorRepo)

	orderRepo := order.NewRepository(database.Pool)
	notifier := order.NewNotifier(renderer, sender, cfg.App.ClinicName, cfg.App.NotifyTimeout)
	orderSvc := order.NewService(orderRepo, vendorSvc, order.NewSynchronizer(), notifier)

	productSvc := product.NewService(product.NewRepository(database.Pool))
	clinicSvc := clinic.NewService(clinic.NewRepository(database.Pool))
	reservationSvc := reservation.NewService(reservation.NewRepository(database.Pool))

	router := transport.NewRouter(transport.Services{
		Orders:       orderSvc,
		Products:     productSvc,
		Vendors:      vendorSvc,
		Clinics:      clinicSvc,
		Reservations: reservationSvc,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	database.Close()

	log.Info().Msg("Clinicsync stopped gracefully.")
}
