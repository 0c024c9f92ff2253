package transaction

import (
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/middleware"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	ledgersvc "github.com/amirasaad/bankledger/pkg/service/ledger"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the money movement endpoints.
//
//   - POST /api/transactions/deposit
//   - POST /api/transactions/withdraw
//   - POST /api/transactions/transfer
func Routes(app *fiber.App, ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	g := app.Group("/api/transactions", middleware.JwtProtected(cfg.Auth.Jwt))
	g.Post("/deposit", Deposit(ledgerSvc, authSvc))
	g.Post("/withdraw", Withdraw(ledgerSvc, authSvc))
	g.Post("/transfer", Transfer(ledgerSvc, authSvc))
}

// Deposit credits one of the caller's accounts.
// @Summary Deposit funds
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body DepositRequest true "Deposit details"
// @Success 200 {object} common.TransactionView
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/transactions/deposit [post]
// @Security Bearer
func Deposit(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[DepositRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		tx, err := ledgerSvc.Deposit(c.UserContext(), p, uuid.MustParse(input.AccountID), input.Amount, input.Description)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewTransactionView(tx))
	}
}

// Withdraw debits one of the caller's accounts.
// @Summary Withdraw funds
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body WithdrawRequest true "Withdrawal details"
// @Success 200 {object} common.TransactionView
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/transactions/withdraw [post]
// @Security Bearer
func Withdraw(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[WithdrawRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		tx, err := ledgerSvc.Withdraw(c.UserContext(), p, uuid.MustParse(input.AccountID), input.Amount, input.Description)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewTransactionView(tx))
	}
}

// Transfer moves money between two accounts of the same currency.
// @Summary Transfer funds
// @Description Source is an account id owned by the caller; destination is an account number.
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer details"
// @Success 200 {object} common.TransactionView
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/transactions/transfer [post]
// @Security Bearer
func Transfer(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		tx, err := ledgerSvc.Transfer(c.UserContext(), p, uuid.MustParse(input.FromAccountID), input.ToAccountID, input.Amount, input.Description)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewTransactionView(tx))
	}
}
