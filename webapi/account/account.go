package account

import (
	"strings"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/amirasaad/bankledger/pkg/middleware"
	accountsvc "github.com/amirasaad/bankledger/pkg/service/account"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	ledgersvc "github.com/amirasaad/bankledger/pkg/service/ledger"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the account endpoints. All of them require a token.
//
//   - POST   /api/accounts
//   - GET    /api/accounts
//   - GET    /api/accounts/total
//   - GET    /api/accounts/number/:number
//   - GET    /api/accounts/:id
//   - GET    /api/accounts/:id/balance
//   - GET    /api/accounts/:id/transactions
//   - PATCH  /api/accounts/:id/status
//   - DELETE /api/accounts/:id/close
func Routes(
	app *fiber.App,
	accountSvc *accountsvc.Service,
	ledgerSvc *ledgersvc.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	g := app.Group("/api/accounts", middleware.JwtProtected(cfg.Auth.Jwt))
	g.Post("/", CreateAccount(accountSvc, authSvc))
	g.Get("/", ListAccounts(accountSvc, authSvc))
	g.Get("/total", TotalBalance(accountSvc, authSvc))
	g.Get("/number/:number", GetAccountByNumber(accountSvc, authSvc))
	g.Get("/:id", GetAccount(accountSvc, authSvc))
	g.Get("/:id/balance", GetBalance(accountSvc, authSvc))
	g.Get("/:id/transactions", GetTransactions(ledgerSvc, authSvc))
	g.Patch("/:id/status", UpdateStatus(accountSvc, authSvc))
	g.Delete("/:id/close", CloseAccount(accountSvc, authSvc))
}

// CreateAccount opens an account for the caller.
// @Summary Open an account
// @Description Opens an ACTIVE zero-balance account with a fresh 20-digit number.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account type and currency"
// @Success 201 {object} common.AccountView
// @Failure 400 {object} common.ErrorResponse
// @Failure 401 {object} common.ErrorResponse
// @Router /api/accounts [post]
// @Security Bearer
func CreateAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[CreateAccountRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		acc, err := accountSvc.CreateAccount(c.UserContext(), p, account.Type(input.Type), currency.Code(input.Currency))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(common.NewAccountView(acc))
	}
}

// ListAccounts lists the caller's accounts.
// @Summary List my accounts
// @Tags accounts
// @Produce json
// @Param type query string false "CHECKING, SAVINGS or DEPOSIT"
// @Param currency query string false "RUB, USD or EUR"
// @Param status query string false "ACTIVE, BLOCKED or CLOSED"
// @Success 200 {array} common.AccountView
// @Failure 400 {object} common.ErrorResponse
// @Router /api/accounts [get]
// @Security Bearer
func ListAccounts(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		var q ListQuery
		if err := c.QueryParser(&q); err != nil {
			return common.ErrorJSON(c, &common.ValidationError{Message: "invalid query"})
		}
		q.Type, q.Currency, q.Status = strings.ToUpper(q.Type), strings.ToUpper(q.Currency), strings.ToUpper(q.Status)
		if err := common.Validate(q); err != nil {
			return common.ErrorJSON(c, err)
		}
		list, err := accountSvc.ListAccounts(c.UserContext(), p, dto.AccountFilter{
			Type:     account.Type(q.Type),
			Currency: currency.Code(q.Currency),
			Status:   account.Status(q.Status),
		})
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewAccountViews(list))
	}
}

// TotalBalance sums the caller's ACTIVE accounts in one currency.
// @Summary Total balance
// @Tags accounts
// @Produce json
// @Param currency query string true "RUB, USD or EUR"
// @Success 200 {object} TotalBalanceResponse
// @Failure 400 {object} common.ErrorResponse
// @Router /api/accounts/total [get]
// @Security Bearer
func TotalBalance(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		code, err := currency.Parse(c.Query("currency"))
		if err != nil {
			return common.ErrorJSON(c, &common.ValidationError{Message: "currency must be one of RUB USD EUR"})
		}
		total, err := accountSvc.TotalBalance(c.UserContext(), p, code)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(TotalBalanceResponse{
			Currency: total.Currency.String(),
			Total:    total.Total.StringFixed(2),
			Accounts: total.Accounts,
		})
	}
}

// GetAccountByNumber looks an account up by number.
// @Summary Get account by number
// @Tags accounts
// @Produce json
// @Param number path string true "20-digit account number"
// @Success 200 {object} common.AccountView
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/accounts/number/{number} [get]
// @Security Bearer
func GetAccountByNumber(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		acc, err := accountSvc.GetAccountByNumber(c.UserContext(), p, c.Params("number"))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewAccountView(acc))
	}
}

// GetAccount returns one account.
// @Summary Get account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} common.AccountView
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/accounts/{id} [get]
// @Security Bearer
func GetAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		acc, err := accountSvc.GetAccount(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewAccountView(acc))
	}
}

// GetBalance returns the balance of one account.
// @Summary Account balance
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/accounts/{id}/balance [get]
// @Security Bearer
func GetBalance(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		bal, err := accountSvc.GetBalance(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(BalanceResponse{
			AccountID: bal.AccountID.String(),
			Balance:   bal.Balance.StringFixed(2),
			Currency:  bal.Currency.String(),
		})
	}
}

// GetTransactions lists the transactions touching an account, newest first.
// @Summary Account history
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {array} common.TransactionView
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/accounts/{id}/transactions [get]
// @Security Bearer
func GetTransactions(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		txs, err := ledgerSvc.History(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewTransactionViews(txs))
	}
}

// UpdateStatus moves an account between ACTIVE and BLOCKED, or to CLOSED.
// @Summary Update account status
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} common.AccountView
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/accounts/{id}/status [patch]
// @Security Bearer
func UpdateStatus(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[UpdateStatusRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		acc, err := accountSvc.UpdateAccountStatus(c.UserContext(), p, id, account.Status(strings.ToUpper(input.Status)))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewAccountView(acc))
	}
}

// CloseAccount closes a zero-balance account.
// @Summary Close account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} CloseResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/accounts/{id}/close [delete]
// @Security Bearer
func CloseAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		acc, err := accountSvc.CloseAccount(c.UserContext(), p, id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(CloseResponse{Message: "Account closed successfully", AccountID: acc.ID.String()})
	}
}
