package account

import (
	"time"

	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionTransfer TransactionType = "TRANSFER"
)

// TransactionStatus is the state of a ledger entry. Entries are written once
// as COMPLETED; the other values exist for stored history compatibility.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry.
//
// DEPOSIT has FromAccountID nil, WITHDRAW has ToAccountID nil and
// TRANSFER has both set to different accounts.
type Transaction struct {
	ID            uuid.UUID
	FromAccountID *uuid.UUID
	ToAccountID   *uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	Currency      currency.Code
	Description   string
	Status        TransactionStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

func completed(t TransactionType, from, to *uuid.UUID, amount decimal.Decimal, c currency.Code, description string, at time.Time) *Transaction {
	done := at
	return &Transaction{
		ID:            uuid.New(),
		FromAccountID: from,
		ToAccountID:   to,
		Type:          t,
		Amount:        amount,
		Currency:      c,
		Description:   description,
		Status:        TransactionCompleted,
		CreatedAt:     at,
		CompletedAt:   &done,
	}
}

// NewDeposit records a completed deposit into a.
func NewDeposit(a *Account, amount decimal.Decimal, description string, at time.Time) *Transaction {
	to := a.ID
	return completed(TransactionDeposit, nil, &to, amount, a.Currency, description, at)
}

// NewWithdrawal records a completed withdrawal from a.
func NewWithdrawal(a *Account, amount decimal.Decimal, description string, at time.Time) *Transaction {
	from := a.ID
	return completed(TransactionWithdraw, &from, nil, amount, a.Currency, description, at)
}

// NewTransfer records a completed transfer from src to dst in the source currency.
func NewTransfer(src, dst *Account, amount decimal.Decimal, description string, at time.Time) *Transaction {
	from, to := src.ID, dst.ID
	return completed(TransactionTransfer, &from, &to, amount, src.Currency, description, at)
}

// Involves reports whether accountID is either side of the transaction.
func (t *Transaction) Involves(accountID uuid.UUID) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}
