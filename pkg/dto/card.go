package dto

import (
	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardBalance is the balance of the account a card is linked to.
type CardBalance struct {
	CardID    uuid.UUID
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Currency  currency.Code
}
