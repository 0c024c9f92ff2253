// Package events defines the notifications published after a unit of work
// commits. Payloads carry ids and masked identifiers only.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is implemented by every published event.
type Event interface {
	Type() string
}

// TransactionCompleted is published once per committed ledger entry.
type TransactionCompleted struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Kind          string          `json:"kind"`
	FromAccountID *uuid.UUID      `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID      `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (TransactionCompleted) Type() string { return EventTypeTransactionCompleted.String() }

type AccountOpened struct {
	AccountID    uuid.UUID `json:"account_id"`
	UserID       uuid.UUID `json:"user_id"`
	MaskedNumber string    `json:"masked_number"`
	Currency     string    `json:"currency"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (AccountOpened) Type() string { return EventTypeAccountOpened.String() }

// AccountStatusChanged covers block, unblock and close.
type AccountStatusChanged struct {
	AccountID  uuid.UUID `json:"account_id"`
	UserID     uuid.UUID `json:"user_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (AccountStatusChanged) Type() string { return EventTypeAccountStatusChanged.String() }

type CardIssued struct {
	CardID       uuid.UUID `json:"card_id"`
	AccountID    uuid.UUID `json:"account_id"`
	UserID       uuid.UUID `json:"user_id"`
	MaskedNumber string    `json:"masked_number"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (CardIssued) Type() string { return EventTypeCardIssued.String() }

type CardStatusChanged struct {
	CardID       uuid.UUID `json:"card_id"`
	UserID       uuid.UUID `json:"user_id"`
	MaskedNumber string    `json:"masked_number"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (CardStatusChanged) Type() string { return EventTypeCardStatusChanged.String() }

type UserRegistered struct {
	UserID      uuid.UUID `json:"user_id"`
	MaskedEmail string    `json:"masked_email"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (UserRegistered) Type() string { return EventTypeUserRegistered.String() }

// EventTypes maps every event type to a constructor, used when decoding
// events from a broker.
var EventTypes = map[string]func() Event{
	EventTypeTransactionCompleted.String(): func() Event { return &TransactionCompleted{} },
	EventTypeAccountOpened.String():        func() Event { return &AccountOpened{} },
	EventTypeAccountStatusChanged.String(): func() Event { return &AccountStatusChanged{} },
	EventTypeCardIssued.String():           func() Event { return &CardIssued{} },
	EventTypeCardStatusChanged.String():    func() Event { return &CardStatusChanged{} },
	EventTypeUserRegistered.String():       func() Event { return &UserRegistered{} },
}
