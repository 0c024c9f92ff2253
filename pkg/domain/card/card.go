// Package card holds the card entity and its status machine.
package card

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/google/uuid"
)

type Type string

const (
	TypeDebit  Type = "DEBIT"
	TypeCredit Type = "CREDIT"
)

func (t Type) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

type PaymentSystem string

const (
	PaymentSystemVisa       PaymentSystem = "VISA"
	PaymentSystemMastercard PaymentSystem = "MASTERCARD"
	PaymentSystemMir        PaymentSystem = "MIR"
)

func (p PaymentSystem) Valid() bool {
	switch p {
	case PaymentSystemVisa, PaymentSystemMastercard, PaymentSystemMir:
		return true
	}
	return false
}

// Status is the stored card status. EXPIRED is never stored by this
// service; see EffectiveStatus.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusExpired Status = "EXPIRED"
)

// NumberLength is the number of digits in a card number.
const NumberLength = 16

// Card is a payment card bound to one account. It never stores a balance.
type Card struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	UserID        uuid.UUID
	Number        string
	HolderName    string
	CVVHash       string
	ExpiryDate    time.Time
	Type          Type
	PaymentSystem PaymentSystem
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Params are the inputs of New.
type Params struct {
	AccountID     uuid.UUID
	UserID        uuid.UUID
	Number        string
	HolderName    string
	CVVHash       string
	Type          Type
	PaymentSystem PaymentSystem
	ValidYears    int
	Now           time.Time
}

// New creates an ACTIVE card expiring ValidYears calendar years after Now.
func New(p Params) (*Card, error) {
	if p.AccountID == uuid.Nil || p.UserID == uuid.Nil {
		return nil, errors.New("card requires account and owner")
	}
	if len(p.Number) != NumberLength {
		return nil, fmt.Errorf("card number must have %d digits", NumberLength)
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("unknown card type %q", p.Type)
	}
	if !p.PaymentSystem.Valid() {
		return nil, fmt.Errorf("unknown payment system %q", p.PaymentSystem)
	}
	if p.CVVHash == "" {
		return nil, errors.New("card requires a verification code hash")
	}
	if p.ValidYears <= 0 {
		return nil, errors.New("card validity must be at least one year")
	}
	now := p.Now.UTC()
	return &Card{
		ID:            uuid.New(),
		AccountID:     p.AccountID,
		UserID:        p.UserID,
		Number:        p.Number,
		HolderName:    strings.ToUpper(strings.TrimSpace(p.HolderName)),
		CVVHash:       p.CVVHash,
		ExpiryDate:    now.AddDate(p.ValidYears, 0, 0),
		Type:          p.Type,
		PaymentSystem: p.PaymentSystem,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsExpired reports whether now is past the expiry date.
func (c *Card) IsExpired(now time.Time) bool {
	return now.After(c.ExpiryDate)
}

// EffectiveStatus is the status shown to callers: EXPIRED once the expiry
// date has passed, otherwise the stored status.
func (c *Card) EffectiveStatus(now time.Time) Status {
	if c.IsExpired(now) {
		return StatusExpired
	}
	return c.Status
}

// CheckAccess returns AccessDenied unless p owns the card or is an admin.
func (c *Card) CheckAccess(p domain.Principal) error {
	if !p.CanAccess(c.UserID) {
		return &domain.AccessDeniedError{PrincipalID: p.ID, Resource: "card", ResourceID: c.ID}
	}
	return nil
}

// Block moves an ACTIVE card to BLOCKED. A failed guard leaves the card untouched.
func (c *Card) Block(at time.Time) error {
	if c.Status == StatusBlocked {
		return &domain.CardAlreadyBlockedError{CardID: c.ID}
	}
	c.Status = StatusBlocked
	c.UpdatedAt = at
	return nil
}

// Unblock moves a BLOCKED card back to ACTIVE.
func (c *Card) Unblock(at time.Time) error {
	if c.Status == StatusActive {
		return domain.InvalidOperation("card already active")
	}
	if c.IsExpired(at) {
		return domain.InvalidOperation("card is expired")
	}
	c.Status = StatusActive
	c.UpdatedAt = at
	return nil
}
