// Package dto holds query filters and read models shared by services and storage.
package dto

import (
	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountFilter narrows an account listing. Zero fields match everything.
type AccountFilter struct {
	UserID   uuid.UUID
	Type     account.Type
	Currency currency.Code
	Status   account.Status
}

// Matches reports whether a satisfies every non-zero field of f.
func (f AccountFilter) Matches(a *account.Account) bool {
	if f.UserID != uuid.Nil && a.UserID != f.UserID {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Currency != "" && a.Currency != f.Currency {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// TotalBalance is the sum of a user's ACTIVE account balances in one currency.
type TotalBalance struct {
	UserID   uuid.UUID
	Currency currency.Code
	Total    decimal.Decimal
	Accounts int
}

// AccountBalance is the current balance of one account.
type AccountBalance struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Currency  currency.Code
}
