// Package app wires the services on top of the infrastructure dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/service/account"
	"github.com/amirasaad/bankledger/pkg/service/auth"
	"github.com/amirasaad/bankledger/pkg/service/card"
	"github.com/amirasaad/bankledger/pkg/service/ledger"
	"github.com/amirasaad/bankledger/pkg/service/notification"
	"github.com/amirasaad/bankledger/pkg/service/user"
)

type App struct {
	Deps                config.Deps
	Config              *config.App
	AuthService         *auth.Service
	UserService         *user.Service
	AccountService      *account.Service
	LedgerService       *ledger.Service
	CardService         *card.Service
	NotificationService *notification.Service
}

// New builds every service from deps and subscribes the notification
// service to the event bus.
func New(deps config.Deps) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cfg := deps.Config
	app := &App{
		Deps:   deps,
		Config: cfg,
	}

	jwtCfg := &config.Jwt{}
	if cfg != nil && cfg.Auth != nil && cfg.Auth.Jwt != nil {
		jwtCfg = cfg.Auth.Jwt
	}
	app.AuthService = auth.NewWithJWT(deps.Uow, jwtCfg, deps.Logger)
	app.UserService = user.NewService(deps)
	app.AccountService = account.NewService(deps)
	app.LedgerService = ledger.NewService(deps)
	app.CardService = card.NewService(deps)
	app.NotificationService = notification.NewService(
		deps.Uow,
		notification.LogSender{Logger: deps.Logger},
		deps.Logger,
	)
	if deps.EventBus != nil {
		app.NotificationService.Register(deps.EventBus)
	}
	return app
}
