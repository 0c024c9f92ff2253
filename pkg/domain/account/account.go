package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the product type of an account.
type Type string

const (
	TypeChecking Type = "CHECKING"
	TypeSavings  Type = "SAVINGS"
	TypeDeposit  Type = "DEPOSIT"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeChecking, TypeSavings, TypeDeposit:
		return true
	}
	return false
}

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusClosed  Status = "CLOSED"
)

// Valid reports whether s is a known account status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

// NumberPrefix is the fixed leading part of every account number.
const NumberPrefix = "40817"

// NumberLength is the total length of an account number.
const NumberLength = 20

// Account is a customer account. Values returned by repositories are
// snapshots; mutations go through the methods below and are persisted by
// the caller inside a unit of work.
//
// Invariants:
//   - Balance is never negative.
//   - Currency never changes after creation.
//   - CLOSED is terminal and only reachable with a zero balance.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Number    string
	Type      Type
	Currency  currency.Code
	Balance   decimal.Decimal
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	userID    uuid.UUID
	number    string
	typ       Type
	currency  currency.Code
	balance   decimal.Decimal
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Builder for an ACTIVE checking account with zero balance.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:        uuid.New(),
		typ:       TypeChecking,
		status:    StatusActive,
		balance:   decimal.Zero,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithUserID sets the owner of the account. This is a mandatory field.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

func (b *Builder) WithType(t Type) *Builder {
	b.typ = t
	return b
}

func (b *Builder) WithCurrency(c currency.Code) *Builder {
	b.currency = c
	return b
}

// WithBalance sets the balance. Only used when hydrating from a store or in tests.
func (b *Builder) WithBalance(balance decimal.Decimal) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithStatus(s Status) *Builder {
	b.status = s
	return b
}

func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the collected fields and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.userID == uuid.Nil {
		return nil, errors.New("userID is required")
	}
	if !b.currency.IsSupported() {
		return nil, fmt.Errorf("unsupported currency %q", b.currency)
	}
	if !b.typ.Valid() {
		return nil, fmt.Errorf("unknown account type %q", b.typ)
	}
	if !b.status.Valid() {
		return nil, fmt.Errorf("unknown account status %q", b.status)
	}
	if b.balance.IsNegative() {
		return nil, errors.New("balance cannot be negative")
	}
	return &Account{
		ID:        b.id,
		UserID:    b.userID,
		Number:    b.number,
		Type:      b.typ,
		Currency:  b.currency,
		Balance:   b.balance,
		Status:    b.status,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

func (a *Account) IsActive() bool { return a.Status == StatusActive }

func (a *Account) IsClosed() bool { return a.Status == StatusClosed }

func (a *Account) checkOwner(p domain.Principal) error {
	if !p.Owns(a.UserID) {
		return &domain.AccessDeniedError{PrincipalID: p.ID, Resource: "account", ResourceID: a.ID}
	}
	return nil
}

// CheckReadable returns AccessDenied unless p owns the account or is an admin.
func (a *Account) CheckReadable(p domain.Principal) error {
	if !p.CanAccess(a.UserID) {
		return &domain.AccessDeniedError{PrincipalID: p.ID, Resource: "account", ResourceID: a.ID}
	}
	return nil
}

// CheckOwner returns AccessDenied unless p owns the account.
func (a *Account) CheckOwner(p domain.Principal) error {
	return a.checkOwner(p)
}

func (a *Account) checkOperable() error {
	if a.Status != StatusActive {
		return domain.InvalidOperation(fmt.Sprintf("account %s is %s", a.ID, a.Status))
	}
	return nil
}

// MoneyScale is the number of fraction digits balances are stored with.
const MoneyScale = 2

// ValidateAmount enforces a strictly-positive amount with at most
// MoneyScale fraction digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &domain.InvalidAmountError{Amount: amount, Reason: "amount must be positive"}
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return &domain.InvalidAmountError{Amount: amount, Reason: "amount must have at most 2 decimal places"}
	}
	return nil
}

// ValidateDeposit checks ownership and status for a deposit of a positive amount.
func (a *Account) ValidateDeposit(p domain.Principal, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := a.checkOwner(p); err != nil {
		return err
	}
	return a.checkOperable()
}

// ValidateWithdraw checks ownership, funds and status for a withdrawal.
func (a *Account) ValidateWithdraw(p domain.Principal, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := a.checkOwner(p); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return &domain.InsufficientFundsError{AccountID: a.ID, Required: amount, Available: a.Balance}
	}
	return a.checkOperable()
}

// ValidateTransfer checks a transfer from a to dest. Ownership of a is
// checked separately by the caller before dest is resolved.
//
// Order: same account, positive amount, funds, currency, status.
func (a *Account) ValidateTransfer(dest *Account, amount decimal.Decimal) error {
	if a.ID == dest.ID {
		return &domain.InvalidAmountError{Amount: amount, Reason: "same account"}
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return &domain.InsufficientFundsError{AccountID: a.ID, Required: amount, Available: a.Balance}
	}
	if a.Currency != dest.Currency {
		return &domain.CurrencyMismatchError{From: string(a.Currency), To: string(dest.Currency)}
	}
	if err := a.checkOperable(); err != nil {
		return err
	}
	return dest.checkOperable()
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal, at time.Time) {
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = at
}

// Debit subtracts amount from the balance. It refuses to go negative.
func (a *Account) Debit(amount decimal.Decimal, at time.Time) error {
	if a.Balance.LessThan(amount) {
		return &domain.InsufficientFundsError{AccountID: a.ID, Required: amount, Available: a.Balance}
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = at
	return nil
}

// ChangeStatus moves the account to s following ACTIVE ⇄ BLOCKED → CLOSED.
func (a *Account) ChangeStatus(s Status, at time.Time) error {
	if !s.Valid() {
		return domain.InvalidOperation(fmt.Sprintf("unknown account status %q", s))
	}
	if a.IsClosed() {
		return domain.InvalidOperation("cannot update status of closed account")
	}
	if s == StatusClosed {
		return a.Close(at)
	}
	a.Status = s
	a.UpdatedAt = at
	return nil
}

// Close moves the account to CLOSED. The balance must be zero.
func (a *Account) Close(at time.Time) error {
	if !a.Balance.IsZero() {
		return domain.InvalidOperation("cannot close account with non-zero balance")
	}
	if a.IsClosed() {
		return domain.InvalidOperation("account is already closed")
	}
	a.Status = StatusClosed
	a.UpdatedAt = at
	return nil
}
