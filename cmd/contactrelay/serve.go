package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactrelay/contactrelay/internal/config"
	"github.com/contactrelay/contactrelay/internal/contact"
	"github.com/contactrelay/contactrelay/internal/email"
	"github.com/contactrelay/contactrelay/internal/handler"
	"github.com/contactrelay/contactrelay/internal/logger"
	"github.com/contactrelay/contactrelay/internal/middleware"
	"github.com/contactrelay/contactrelay/internal/router"
)

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", handler.Version).Msg("starting contact relay")

	// Pick the email provider once for the lifetime of the process
	sender, err := email.Select(cmd.Context(), cfg.Email, log)
	if err != nil {
		return err
	}
	if sender == nil {
		log.Warn().Msg("no email provider configured; set RESEND_API_KEY, GMAIL_* or SMTP_*")
	} else {
		log.Info().Str("provider", sender.Name()).Msg("email provider selected")
	}

	validator, err := contact.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to initialize validator: %w", err)
	}
	dispatcher := contact.NewDispatcher(sender, contact.DispatcherConfig{
		Recipient: cfg.Contact.Recipient,
		Subject:   cfg.Contact.Subject,
		Timeout:   cfg.Email.SendTimeout,
	})
	relay := contact.NewRelay(validator, dispatcher, log)

	// Initialize handlers and middleware
	h := handler.New(relay, log, cfg)
	mw := middleware.New(log, cfg)

	// Set up router
	r := router.New(h, mw, cfg.Server)

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
