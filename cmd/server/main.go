// Command reference-server starts the RentRight reference service.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentright-app/reference-service/internal/config"
	"github.com/rentright-app/reference-service/internal/limiter"
	"github.com/rentright-app/reference-service/internal/mail"
	"github.com/rentright-app/reference-service/internal/migrate"
	"github.com/rentright-app/reference-service/internal/repository/postgres"
	"github.com/rentright-app/reference-service/internal/server/httpapi"
	"github.com/rentright-app/reference-service/internal/service"
	"github.com/rentright-app/reference-service/internal/vault"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	cfg := config.New()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	if cfg.AuthSecret == "" {
		logger.Fatal("missing auth signing key (AUTH_SECRET / --auth-secret)")
	}
	vaultKey, err := hex.DecodeString(cfg.VaultKeyHex)
	if err != nil || len(vaultKey) != vault.KeyLen {
		logger.Fatal("VAULT_KEY must be a hex-encoded 32-byte key")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)
	landlordRepo := postgres.NewLandlordRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	requestRepo := postgres.NewRequestRepo(db)
	contractRepo := postgres.NewContractRepo(db)

	lim := limiter.NewPG(pool, 15*time.Minute, 5, 15*time.Minute)

	// Contract vault
	keychain, err := vault.NewKeychain(1, map[byte][]byte{1: vaultKey})
	if err != nil {
		logger.Fatal("vault keychain", zap.Error(err))
	}
	blobs, err := vault.NewBlobStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("blob store", zap.Error(err))
	}

	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		UseTLS:   cfg.SMTPStartTLS,
	})

	// Services
	authSvc := service.NewAuthService(userRepo, []byte(cfg.AuthSecret), cfg.AccessTTL, lim)
	landlordSvc := service.NewLandlordService(landlordRepo)
	contactSvc := service.NewContactService(contactRepo, userRepo, sender, cfg.BaseURL)
	referenceSvc := service.NewReferenceService(requestRepo, contractRepo, landlordRepo, userRepo, sender, cfg.BaseURL)
	vaultSvc := service.NewVaultService(contractRepo, requestRepo, blobs, keychain, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, "Administrator", cfg.AdminPassword); err != nil {
			logger.Fatal("seed admin", zap.Error(err))
		}
	}

	app := httpapi.New(
		authSvc, landlordSvc, contactSvc, referenceSvc, vaultSvc,
		[]byte(cfg.AuthSecret), cfg.LockedTTL, cfg.RejectedTTL, logger,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
