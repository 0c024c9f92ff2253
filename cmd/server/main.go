package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/bankledger/infra/initializer"
	"github.com/amirasaad/bankledger/pkg/app"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/webapi"
	log "github.com/charmbracelet/log"
)

// @title Bank Ledger API
// @version 1.0
// @description Accounts, cards and money movement behind JWT authentication.
// @host localhost:8080
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	res, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer res.Close() //nolint:errcheck

	logger := res.Deps.Logger
	fiberApp := webapi.SetupApp(app.New(res.Deps), res.Storage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)
	return fiberApp.Listen(addr)
}
