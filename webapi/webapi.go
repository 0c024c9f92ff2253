// Package webapi assembles the HTTP surface of the ledger. Handlers live in
// sub-packages per resource:
//   - auth: registration and login
//   - user: profile and password
//   - account: account lifecycle, balances and history
//   - transaction: deposit, withdraw and transfer
//   - card: card registry
//   - admin: cross-user listings
package webapi

import (
	"strings"
	"time"

	_ "github.com/amirasaad/bankledger/docs" // swagger spec
	"github.com/amirasaad/bankledger/pkg/app"
	"github.com/amirasaad/bankledger/pkg/config"
	accountweb "github.com/amirasaad/bankledger/webapi/account"
	adminweb "github.com/amirasaad/bankledger/webapi/admin"
	authweb "github.com/amirasaad/bankledger/webapi/auth"
	cardweb "github.com/amirasaad/bankledger/webapi/card"
	"github.com/amirasaad/bankledger/webapi/common"
	transactionweb "github.com/amirasaad/bankledger/webapi/transaction"
	userweb "github.com/amirasaad/bankledger/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// RateLimitedResponse is the body returned with 429.
type RateLimitedResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SetupApp builds the fiber application. storage backs the rate limiter and
// may be nil, in which case counters are kept in process memory.
func SetupApp(a *app.App, storage fiber.Storage) *fiber.App {
	cfg := a.Config
	if cfg == nil {
		cfg = &config.App{}
	}
	if cfg.Auth == nil {
		cfg.Auth = &config.Auth{}
	}
	if cfg.Auth.Jwt == nil {
		cfg.Auth.Jwt = &config.Jwt{}
	}
	rl := cfg.RateLimit
	if rl == nil {
		rl = &config.RateLimit{MaxRequests: 50, Window: time.Minute}
	}

	fiberApp := fiber.New(fiber.Config{
		AppName: "bankledger",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ErrorJSON(c, err)
		},
	})

	fiberApp.Use(recover.New())
	if cfg.Env != "test" {
		fiberApp.Use(logger.New())
	}
	fiberApp.Use(limiter.New(limiter.Config{
		Max:          rl.MaxRequests,
		Expiration:   rl.Window,
		KeyGenerator: ClientIP,
		Storage:      storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(RateLimitedResponse{
				Error:   "Too many requests",
				Message: "Please try again later",
			})
		},
	}))

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "UP"})
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	authweb.Routes(fiberApp, a.AuthService, a.UserService)
	userweb.Routes(fiberApp, a.UserService, a.AuthService, cfg)
	accountweb.Routes(fiberApp, a.AccountService, a.LedgerService, a.AuthService, cfg)
	transactionweb.Routes(fiberApp, a.LedgerService, a.AuthService, cfg)
	cardweb.Routes(fiberApp, a.CardService, a.AuthService, cfg)
	adminweb.Routes(fiberApp, a.AccountService, a.CardService, a.AuthService, cfg)

	return fiberApp
}

// ClientIP keys the limiter on the first X-Forwarded-For entry, then
// X-Real-IP, then the socket address.
func ClientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
