package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/repclub/guard/internal/auth"
	"github.com/repclub/guard/internal/config"
	"github.com/repclub/guard/internal/database"
	"github.com/repclub/guard/internal/handlers"
	middlewareCustom "github.com/repclub/guard/internal/middleware"
	"github.com/repclub/guard/internal/ratelimit"
	"github.com/repclub/guard/internal/repositories"
	"github.com/repclub/guard/internal/services"
	pkglogger "github.com/repclub/guard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database (security event store)
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize core components
	eventRepo := repositories.NewSecurityEventRepository(db)
	auditService := services.NewAuditService(eventRepo, logger)

	limitStore := ratelimit.NewStore()
	lockoutTracker := ratelimit.NewLockoutTracker(cfg.Security.Lockout)
	sessionParser := auth.NewSessionParser(cfg.Security.SessionSecret)

	// Initialize handlers
	decisionHandler := handlers.NewDecisionHandler(sessionParser, auditService, logger, cfg.Security.ReauthThreshold)
	lockoutHandler := handlers.NewLockoutHandler(lockoutTracker, auditService, logger)
	mfaHandler := handlers.NewMFAHandler(cfg.Security.TOTPIssuer, logger)

	// Callers are other services; the bearer of a platform token counts
	// as that user for quota purposes, everyone else shares the
	// anonymous bucket
	identify := func(r *http.Request) string {
		token := r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			if identity, err := sessionParser.Parse(token[7:]); err == nil {
				return identity.UserID.String()
			}
		}
		return ""
	}

	// Setup router
	// No RealIP middleware: forwarding headers are honored per-request by
	// ExtractClientIP, and only from the configured trusted proxies
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	ipLimit := middlewareCustom.DefaultIPRateLimit()
	ipLimit.TrustedProxies = cfg.Server.TrustedProxies

	router.Route("/v1", func(r chi.Router) {
		r.With(middlewareCustom.Quota(limitStore, cfg.Security.APILimit, "decisions", identify)).
			Post("/decisions", decisionHandler.Check)

		r.Group(func(r chi.Router) {
			r.Use(middlewareCustom.RateLimitByIP(ipLimit))
			r.Post("/login-failures/{identifier}", lockoutHandler.RecordFailure)
			r.Get("/login-failures/{identifier}", lockoutHandler.Status)
			r.Delete("/login-failures/{identifier}", lockoutHandler.Clear)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewareCustom.RateLimitByIP(ipLimit))
			r.With(middlewareCustom.Quota(limitStore, cfg.Security.LoginLimit, "mfa_verify", identify)).
				Post("/mfa/verifications", mfaHandler.Verify)
			r.With(middlewareCustom.Quota(limitStore, cfg.Security.LoginLimit, "mfa_backup_verify", identify)).
				Post("/mfa/backup-verifications", mfaHandler.VerifyBackup)
			r.Post("/mfa/enrollments", mfaHandler.Enroll)
		})
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Retention sweep for the event store
	retentionCtx, retentionCancel := context.WithCancel(context.Background())
	defer retentionCancel()
	go retentionLoop(retentionCtx, eventRepo, cfg.Security.AuditRetentionDays, logger)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	retentionCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// retentionLoop prunes security events past the retention window once a day
func retentionLoop(ctx context.Context, repo *repositories.SecurityEventRepository, days int, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteOlderThan(ctx, days)
			if err != nil {
				logger.Error("failed to prune security events", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				logger.Info("pruned security events", slog.Int64("deleted", deleted))
			}
		}
	}
}
