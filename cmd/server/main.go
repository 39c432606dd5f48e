// Command dv-server starts the DocuVault vault/auth HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atrimbitas/docuvault/internal/config"
	pkgcrypto "github.com/atrimbitas/docuvault/internal/crypto"
	"github.com/atrimbitas/docuvault/internal/limiter"
	"github.com/atrimbitas/docuvault/internal/migrate"
	"github.com/atrimbitas/docuvault/internal/repository/postgres"
	httpserver "github.com/atrimbitas/docuvault/internal/server/http"
	"github.com/atrimbitas/docuvault/internal/service"
	"github.com/atrimbitas/docuvault/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, wires the services and serves HTTP.
func main() {
	addrFlag := flag.String("addr", "", "listen address (overrides DV_ADDR)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	key, err := cfg.CipherKey()
	if err != nil {
		logger.Fatal("encryption key", zap.Error(err))
	}
	cipher, err := pkgcrypto.NewCipher(key)
	if err != nil {
		logger.Fatal("cipher", zap.Error(err))
	}
	if cfg.SigningKey == "" {
		logger.Fatal("missing token signing key (DV_SIGNING_KEY)")
	}

	// Context with OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories.
	accountRepo := postgres.NewAccountRepo(db)
	secretRepo := postgres.NewSecretRepo(db)
	logRepo := postgres.NewAccessLogRepo(db)
	shareRepo := postgres.NewShareLinkRepo(db)

	lim := limiter.NewPGWithQuerier(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	issuer := token.NewIssuer([]byte(cfg.SigningKey))

	// Services.
	authSvc := service.NewAuthService(accountRepo, issuer, cipher, service.TokenTTLs{
		Access:     cfg.AccessTTL,
		Refresh:    cfg.RefreshTTL,
		MfaPending: cfg.MfaTTL,
	}, cfg.MfaIssuer, lim)
	vaultSvc := service.NewVaultService(secretRepo, logRepo, cipher, logger)
	shareSvc := service.NewShareService(shareRepo, secretRepo, cipher)

	if err := service.SeedAccount(ctx, accountRepo, cfg.SeedHandle, cfg.SeedPassword, logger); err != nil {
		logger.Fatal("seed account", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.New(authSvc, vaultSvc, shareSvc, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

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
