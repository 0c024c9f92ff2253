package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error kinds. Every error produced by the ledger, account and card services
// matches exactly one of these with errors.Is.
var (
	// ErrInvalidAmount is returned for non-positive amounts and same-account transfers.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds is returned when a balance is below the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrCurrencyMismatch is returned when a transfer crosses currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrAccountNotFound is returned when an account lookup by id or number fails.
	ErrAccountNotFound = errors.New("account not found")
	// ErrCardNotFound is returned when a card lookup fails.
	ErrCardNotFound = errors.New("card not found")
	// ErrCardAlreadyBlocked is returned when blocking a card that is already blocked.
	ErrCardAlreadyBlocked = errors.New("card already blocked")
	// ErrAccessDenied is returned on ownership or role violations.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidOperation is returned for illegal state transitions.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when registering a duplicate email or phone.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when login or password checks fail.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNumberGenerationExhausted is returned when no unique account or card
	// number could be drawn within the retry bound.
	ErrNumberGenerationExhausted = errors.New("unique number generation exhausted")
)

// LookupBy tells which key an account lookup used.
type LookupBy string

const (
	LookupByID     LookupBy = "ID"
	LookupByNumber LookupBy = "NUMBER"
)

// InvalidAmountError carries the reason an amount was rejected.
type InvalidAmountError struct {
	Amount decimal.Decimal
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Amount.StringFixed(2), e.Reason)
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// InsufficientFundsError carries the account and the amounts involved.
type InsufficientFundsError struct {
	AccountID uuid.UUID
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: required %s, available %s",
		e.AccountID, e.Required.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// CurrencyMismatchError carries both currencies of a rejected transfer.
type CurrencyMismatchError struct {
	From string
	To   string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s to %s", e.From, e.To)
}

func (e *CurrencyMismatchError) Is(target error) bool { return target == ErrCurrencyMismatch }

// AccountNotFoundError records the key used for the failed lookup.
type AccountNotFoundError struct {
	By    LookupBy
	Value string
}

func (e *AccountNotFoundError) Error() string {
	if e.By == LookupByNumber {
		return "account not found with number: " + e.Value
	}
	return "account not found with id: " + e.Value
}

func (e *AccountNotFoundError) Is(target error) bool { return target == ErrAccountNotFound }

// AccountNotFoundByID builds an AccountNotFoundError for an id lookup.
func AccountNotFoundByID(id uuid.UUID) error {
	return &AccountNotFoundError{By: LookupByID, Value: id.String()}
}

// AccountNotFoundByNumber builds an AccountNotFoundError for a number lookup.
func AccountNotFoundByNumber(number string) error {
	return &AccountNotFoundError{By: LookupByNumber, Value: number}
}

type CardNotFoundError struct {
	CardID uuid.UUID
}

func (e *CardNotFoundError) Error() string { return "card not found with id: " + e.CardID.String() }

func (e *CardNotFoundError) Is(target error) bool { return target == ErrCardNotFound }

type CardAlreadyBlockedError struct {
	CardID uuid.UUID
}

func (e *CardAlreadyBlockedError) Error() string {
	return "card is already blocked: " + e.CardID.String()
}

func (e *CardAlreadyBlockedError) Is(target error) bool { return target == ErrCardAlreadyBlocked }

// AccessDeniedError records who was refused access to which resource.
type AccessDeniedError struct {
	PrincipalID uuid.UUID
	Resource    string
	ResourceID  uuid.UUID
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to %s %s", e.Resource, e.ResourceID)
}

func (e *AccessDeniedError) Is(target error) bool { return target == ErrAccessDenied }

// InvalidOperationError describes an illegal state transition.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string { return e.Reason }

func (e *InvalidOperationError) Is(target error) bool { return target == ErrInvalidOperation }

// InvalidOperation is shorthand for &InvalidOperationError{Reason: reason}.
func InvalidOperation(reason string) error {
	return &InvalidOperationError{Reason: reason}
}

type UserNotFoundError struct {
	Key string
}

func (e *UserNotFoundError) Error() string { return "user not found: " + e.Key }

func (e *UserNotFoundError) Is(target error) bool { return target == ErrUserNotFound }

// UserAlreadyExistsError names the unique field that collided.
type UserAlreadyExistsError struct {
	Field string
	Value string
}

func (e *UserAlreadyExistsError) Error() string {
	return fmt.Sprintf("user with %s %s already exists", e.Field, e.Value)
}

func (e *UserAlreadyExistsError) Is(target error) bool { return target == ErrUserAlreadyExists }
