// Package admin serves the read-only ADMIN views over other users' data.
package admin

import (
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/middleware"
	accountsvc "github.com/amirasaad/bankledger/pkg/service/account"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	cardsvc "github.com/amirasaad/bankledger/pkg/service/card"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the admin endpoints. Role checks happen in the services.
func Routes(
	app *fiber.App,
	accountSvc *accountsvc.Service,
	cardSvc *cardsvc.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	g := app.Group("/api/admin", middleware.JwtProtected(cfg.Auth.Jwt))
	g.Get("/users/:userId/cards", UserCards(cardSvc, authSvc))
	g.Get("/users/:userId/accounts", UserAccounts(accountSvc, authSvc))
}

// UserCards lists any user's cards.
// @Summary List a user's cards
// @Tags admin
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} common.CardView
// @Failure 403 {object} common.ErrorResponse
// @Router /api/admin/users/{userId}/cards [get]
// @Security Bearer
func UserCards(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		userID, err := common.ParseID(c, "userId")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		list, err := cardSvc.ListUserCards(c.UserContext(), p, userID)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewCardViews(list, cardSvc.Now()))
	}
}

// UserAccounts lists any user's accounts.
// @Summary List a user's accounts
// @Tags admin
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} common.AccountView
// @Failure 403 {object} common.ErrorResponse
// @Router /api/admin/users/{userId}/accounts [get]
// @Security Bearer
func UserAccounts(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		userID, err := common.ParseID(c, "userId")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		list, err := accountSvc.ListUserAccounts(c.UserContext(), p, userID)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewAccountViews(list))
	}
}
