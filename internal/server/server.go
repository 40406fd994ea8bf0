// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package server wires the application together and runs the HTTP server.
package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireloop/hireloop/internal/config"
	"github.com/hireloop/hireloop/internal/database"
	"github.com/hireloop/hireloop/internal/i18n"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/email"
	"github.com/hireloop/hireloop/internal/services/magiclink"
	"github.com/hireloop/hireloop/internal/services/mfa"
	"github.com/hireloop/hireloop/internal/services/ratelimit"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/secretbox"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

const sweepInterval = time.Hour

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)
	events := seclog.New(repo, slog.Default())

	// Keys were validated above, decoding cannot fail.
	hashKey, _ := hex.DecodeString(cfg.Auth.SessionHashKey)
	blockKey, _ := hex.DecodeString(cfg.Auth.SessionBlockKey)

	sessions, err := session.NewManager(
		repo,
		events,
		hashKey,
		blockKey,
		cfg.Auth.SessionCookieName,
		time.Duration(cfg.Auth.SessionExpiryDays)*24*time.Hour,
		cfg.CookieSecure(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	box, err := secretbox.New(cfg.Auth.MFAEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to create secret box: %w", err)
	}

	sender, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create email service: %w", err)
	}

	limiter := ratelimit.New(
		cfg.Auth.RateLimitMax,
		time.Duration(cfg.Auth.RateLimitWindowMinutes)*time.Minute,
	)

	magicLinks := magiclink.NewService(
		repo,
		sender,
		limiter,
		events,
		slog.Default(),
		cfg.Server.BaseURL,
		time.Duration(cfg.Auth.MagicLinkExpiryMinutes)*time.Minute,
	)

	mfaSvc := mfa.NewService(repo, box, cfg.Auth.MFAIssuer, events)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, sessions, repo)
	setupRoutes(e, magicLinks, mfaSvc, sessions, events)

	// Background sweeps
	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	go runSweeps(sweepCtx, magicLinks, sessions, limiter)

	return startWithGracefulShutdown(e, cfg)
}

// runSweeps periodically removes expired tokens, sessions and stale rate
// limiter entries.
func runSweeps(ctx context.Context, magicLinks *magiclink.Service, sessions *session.Manager, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := magicLinks.DeleteExpiredTokens(ctx); err != nil {
				slog.Error("failed to sweep magic link tokens", "error", err)
			} else if n > 0 {
				slog.Debug("swept expired magic link tokens", "count", n)
			}

			if n, err := sessions.DeleteExpired(ctx); err != nil {
				slog.Error("failed to sweep sessions", "error", err)
			} else if n > 0 {
				slog.Debug("swept expired sessions", "count", n)
			}

			limiter.Cleanup()
		}
	}
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
