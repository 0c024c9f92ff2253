package account_test

import (
	"testing"
	"time"

	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain"
	domainaccount "github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, owner uuid.UUID, c currency.Code, balance string) *domainaccount.Account {
	t.Helper()
	acc, err := domainaccount.New().
		WithUserID(owner).
		WithNumber("40817000000000000001").
		WithCurrency(c).
		WithBalance(decimal.RequireFromString(balance)).
		Build()
	require.NoError(t, err)
	return acc
}

func TestNewAccount(t *testing.T) {
	t.Parallel()
	acc, err := domainaccount.New().WithUserID(uuid.New()).WithCurrency(currency.RUB).Build()
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, acc.ID)
	assert.Equal(t, domainaccount.StatusActive, acc.Status)
	assert.True(t, acc.Balance.IsZero())
	assert.Equal(t, domainaccount.TypeChecking, acc.Type)
}

func TestBuildRejectsInvalidFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		b    *domainaccount.Builder
	}{
		{"missing user", domainaccount.New().WithCurrency(currency.USD)},
		{"unsupported currency", domainaccount.New().WithUserID(uuid.New()).WithCurrency("GBP")},
		{"unknown type", domainaccount.New().WithUserID(uuid.New()).WithCurrency(currency.USD).WithType("LOAN")},
		{"negative balance", domainaccount.New().WithUserID(uuid.New()).WithCurrency(currency.USD).
			WithBalance(decimal.NewFromInt(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			assert.Error(t, err)
		})
	}
}

func TestValidateDeposit(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	acc := newAccount(t, owner, currency.USD, "0")
	p := domain.Principal{ID: owner, Role: domain.RoleUser}

	assert.NoError(t, acc.ValidateDeposit(p, decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, acc.ValidateDeposit(p, decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, acc.ValidateDeposit(p, decimal.NewFromInt(-5)), domain.ErrInvalidAmount)
	assert.ErrorIs(t, acc.ValidateDeposit(p, decimal.RequireFromString("1.005")), domain.ErrInvalidAmount,
		"balances are stored with two fraction digits")
	assert.NoError(t, acc.ValidateDeposit(p, decimal.RequireFromString("1.500")))

	stranger := domain.Principal{ID: uuid.New(), Role: domain.RoleUser}
	assert.ErrorIs(t, acc.ValidateDeposit(stranger, decimal.NewFromInt(1)), domain.ErrAccessDenied)

	admin := domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}
	assert.ErrorIs(t, acc.ValidateDeposit(admin, decimal.NewFromInt(1)), domain.ErrAccessDenied,
		"admins cannot move money on accounts they do not own")

	acc.Status = domainaccount.StatusBlocked
	assert.ErrorIs(t, acc.ValidateDeposit(p, decimal.NewFromInt(1)), domain.ErrInvalidOperation)
}

func TestValidateWithdraw(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	acc := newAccount(t, owner, currency.USD, "100.00")
	p := domain.Principal{ID: owner}

	t.Run("full balance", func(t *testing.T) {
		assert.NoError(t, acc.ValidateWithdraw(p, decimal.RequireFromString("100.00")))
	})

	t.Run("insufficient funds carries amounts", func(t *testing.T) {
		err := acc.ValidateWithdraw(p, decimal.RequireFromString("100.01"))
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		var ife *domain.InsufficientFundsError
		require.ErrorAs(t, err, &ife)
		assert.Equal(t, acc.ID, ife.AccountID)
		assert.True(t, ife.Required.Equal(decimal.RequireFromString("100.01")))
		assert.True(t, ife.Available.Equal(decimal.RequireFromString("100")))
	})

	t.Run("not owner", func(t *testing.T) {
		err := acc.ValidateWithdraw(domain.Principal{ID: uuid.New()}, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestValidateTransfer(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	src := newAccount(t, owner, currency.USD, "100.00")
	dst := newAccount(t, uuid.New(), currency.USD, "10.00")
	eur := newAccount(t, uuid.New(), currency.EUR, "0")

	assert.NoError(t, src.ValidateTransfer(dst, decimal.NewFromInt(40)))

	err := src.ValidateTransfer(src, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	var iae *domain.InvalidAmountError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "same account", iae.Reason)

	assert.ErrorIs(t, src.ValidateTransfer(dst, decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, src.ValidateTransfer(dst, decimal.NewFromInt(101)), domain.ErrInsufficientFunds)

	err = src.ValidateTransfer(eur, decimal.NewFromInt(1))
	var cme *domain.CurrencyMismatchError
	require.ErrorAs(t, err, &cme)
	assert.Equal(t, "USD", cme.From)
	assert.Equal(t, "EUR", cme.To)

	// funds are checked before currency
	assert.ErrorIs(t, src.ValidateTransfer(eur, decimal.NewFromInt(500)), domain.ErrInsufficientFunds)

	dst.Status = domainaccount.StatusClosed
	assert.ErrorIs(t, src.ValidateTransfer(dst, decimal.NewFromInt(1)), domain.ErrInvalidOperation)
}

func TestCreditDebit(t *testing.T) {
	t.Parallel()
	acc := newAccount(t, uuid.New(), currency.RUB, "0.10")
	at := time.Now().UTC()

	acc.Credit(decimal.RequireFromString("0.20"), at)
	assert.Equal(t, "0.30", acc.Balance.StringFixed(2))
	assert.Equal(t, at, acc.UpdatedAt)

	require.NoError(t, acc.Debit(decimal.RequireFromString("0.30"), at))
	assert.True(t, acc.Balance.IsZero())

	assert.ErrorIs(t, acc.Debit(decimal.RequireFromString("0.01"), at), domain.ErrInsufficientFunds)
	assert.True(t, acc.Balance.IsZero())
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()
	at := time.Now().UTC()

	t.Run("active to blocked and back", func(t *testing.T) {
		acc := newAccount(t, uuid.New(), currency.USD, "5")
		require.NoError(t, acc.ChangeStatus(domainaccount.StatusBlocked, at))
		assert.Equal(t, domainaccount.StatusBlocked, acc.Status)
		require.NoError(t, acc.ChangeStatus(domainaccount.StatusActive, at))
		assert.Equal(t, domainaccount.StatusActive, acc.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		acc := newAccount(t, uuid.New(), currency.USD, "5")
		assert.ErrorIs(t, acc.ChangeStatus("FROZEN", at), domain.ErrInvalidOperation)
	})

	t.Run("close requires zero balance", func(t *testing.T) {
		acc := newAccount(t, uuid.New(), currency.USD, "5.00")
		err := acc.Close(at)
		require.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.Equal(t, domainaccount.StatusActive, acc.Status)

		err = acc.ChangeStatus(domainaccount.StatusClosed, at)
		require.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("closed is terminal", func(t *testing.T) {
		acc := newAccount(t, uuid.New(), currency.USD, "0")
		require.NoError(t, acc.Close(at))
		assert.ErrorIs(t, acc.Close(at), domain.ErrInvalidOperation)
		assert.ErrorIs(t, acc.ChangeStatus(domainaccount.StatusActive, at), domain.ErrInvalidOperation)
		assert.Equal(t, domainaccount.StatusClosed, acc.Status)
	})

	t.Run("blocked account can be closed", func(t *testing.T) {
		acc := newAccount(t, uuid.New(), currency.USD, "0")
		require.NoError(t, acc.ChangeStatus(domainaccount.StatusBlocked, at))
		require.NoError(t, acc.ChangeStatus(domainaccount.StatusClosed, at))
		assert.True(t, acc.IsClosed())
	})
}

func TestNewTransactions(t *testing.T) {
	t.Parallel()
	at := time.Now().UTC()
	a := newAccount(t, uuid.New(), currency.USD, "10")
	b := newAccount(t, uuid.New(), currency.USD, "10")

	dep := domainaccount.NewDeposit(a, decimal.NewFromInt(1), "cash", at)
	assert.Nil(t, dep.FromAccountID)
	require.NotNil(t, dep.ToAccountID)
	assert.Equal(t, a.ID, *dep.ToAccountID)
	assert.Equal(t, domainaccount.TransactionCompleted, dep.Status)
	require.NotNil(t, dep.CompletedAt)

	wd := domainaccount.NewWithdrawal(a, decimal.NewFromInt(1), "", at)
	assert.Nil(t, wd.ToAccountID)
	assert.True(t, wd.Involves(a.ID))
	assert.False(t, wd.Involves(b.ID))

	tr := domainaccount.NewTransfer(a, b, decimal.NewFromInt(1), "rent", at)
	assert.Equal(t, domainaccount.TransactionTransfer, tr.Type)
	assert.Equal(t, currency.USD, tr.Currency)
	assert.True(t, tr.Involves(a.ID))
	assert.True(t, tr.Involves(b.ID))
}
