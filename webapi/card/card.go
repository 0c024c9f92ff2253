package card

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/amirasaad/bankledger/pkg/middleware"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	cardsvc "github.com/amirasaad/bankledger/pkg/service/card"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateCardRequest is the body of POST /api/cards.
type CreateCardRequest struct {
	AccountID     string `json:"accountId" validate:"required,uuid"`
	CardType      string `json:"cardType" validate:"required,oneof=DEBIT CREDIT"`
	PaymentSystem string `json:"paymentSystem" validate:"required,oneof=VISA MASTERCARD MIR"`
}

type BalanceResponse struct {
	CardID    string `json:"cardId"`
	AccountID string `json:"accountId"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

func Routes(app *fiber.App, cardSvc *cardsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	g := app.Group("/api/cards", middleware.JwtProtected(cfg.Auth.Jwt))
	g.Post("/", CreateCard(cardSvc, authSvc))
	g.Get("/", ListCards(cardSvc, authSvc))
	g.Get("/:id", GetCard(cardSvc, authSvc))
	g.Get("/:id/balance", GetCardBalance(cardSvc, authSvc))
	g.Patch("/:id/block", BlockCard(cardSvc, authSvc))
	g.Patch("/:id/unblock", UnblockCard(cardSvc, authSvc))
}

// CreateCard issues a card on one of the caller's accounts.
// @Summary Issue a card
// @Description Admins may issue on any account; the card always belongs to the account owner.
// @Tags cards
// @Accept json
// @Produce json
// @Param request body CreateCardRequest true "Card details"
// @Success 201 {object} common.CardView
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/cards [post]
// @Security Bearer
func CreateCard(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[CreateCardRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		issued, err := cardSvc.CreateCard(
			c.UserContext(),
			p,
			uuid.MustParse(input.AccountID),
			card.Type(input.CardType),
			card.PaymentSystem(input.PaymentSystem),
		)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(common.NewCardView(issued, cardSvc.Now()))
	}
}

// ListCards lists the caller's cards.
// @Summary List my cards
// @Tags cards
// @Produce json
// @Success 200 {array} common.CardView
// @Router /api/cards [get]
// @Security Bearer
func ListCards(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		list, err := cardSvc.ListCards(c.UserContext(), p)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewCardViews(list, cardSvc.Now()))
	}
}

// GetCard returns one card.
// @Summary Get card
// @Tags cards
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} common.CardView
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/cards/{id} [get]
// @Security Bearer
func GetCard(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		got, err := cardSvc.GetCard(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewCardView(got, cardSvc.Now()))
	}
}

// GetCardBalance returns the balance of the account behind a card.
// @Summary Card balance
// @Tags cards
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/cards/{id}/balance [get]
// @Security Bearer
func GetCardBalance(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		bal, err := cardSvc.GetCardBalance(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(BalanceResponse{
			CardID:    bal.CardID.String(),
			AccountID: bal.AccountID.String(),
			Balance:   bal.Balance.StringFixed(2),
			Currency:  bal.Currency.String(),
		})
	}
}

// BlockCard blocks a card.
// @Summary Block card
// @Tags cards
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} common.CardView
// @Failure 400 {object} common.ErrorResponse "Card already blocked"
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/cards/{id}/block [patch]
// @Security Bearer
func BlockCard(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return transition(cardSvc, authSvc, cardSvc.BlockCard)
}

// UnblockCard reactivates a blocked, unexpired card.
// @Summary Unblock card
// @Tags cards
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} common.CardView
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/cards/{id}/unblock [patch]
// @Security Bearer
func UnblockCard(cardSvc *cardsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return transition(cardSvc, authSvc, cardSvc.UnblockCard)
}

func transition(
	cardSvc *cardsvc.Service,
	authSvc *authsvc.Service,
	apply func(ctx context.Context, p domain.Principal, id uuid.UUID) (*card.Card, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		updated, err := apply(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewCardView(updated, cardSvc.Now()))
	}
}
