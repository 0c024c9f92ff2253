package transaction

import "github.com/shopspring/decimal"

// DepositRequest is the body of deposit and withdraw.
type DepositRequest struct {
	AccountID   string          `json:"accountId" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" validate:"amount"`
	Description string          `json:"description" validate:"max=500,safetext"`
}

type WithdrawRequest = DepositRequest

// TransferRequest moves money from one of the caller's accounts to the
// account with number ToAccountID.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId" validate:"required,uuid"`
	ToAccountID   string          `json:"toAccountId" validate:"required,len=20,numeric"`
	Amount        decimal.Decimal `json:"amount" validate:"amount"`
	Description   string          `json:"description" validate:"max=500,safetext"`
}
