package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	infraeventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/internal/fixtures/mocks"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	uow   *memory.UoW
	bus   *infraeventbus.MemoryEventBus
	owner domain.Principal
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.NewUoW(memory.NewStore())
	bus := infraeventbus.NewWithMemory(logger)
	return &fixture{
		svc:   NewService(config.Deps{Uow: uow, EventBus: bus, Logger: logger}),
		uow:   uow,
		bus:   bus,
		owner: domain.Principal{ID: uuid.New(), Role: domain.RoleUser},
	}
}

func (f *fixture) open(t *testing.T, owner uuid.UUID, c currency.Code, balance string, status account.Status) *account.Account {
	t.Helper()
	f.seq++
	acc, err := account.New().
		WithUserID(owner).
		WithNumber(fmt.Sprintf("40817%015d", f.seq)).
		WithCurrency(c).
		WithBalance(decimal.RequireFromString(balance)).
		WithStatus(status).
		Build()
	require.NoError(t, err)
	repo, err := f.uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), acc))
	return acc
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) string {
	t.Helper()
	repo, err := f.uow.AccountRepository()
	require.NoError(t, err)
	acc, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance.StringFixed(2)
}

func (f *fixture) history(t *testing.T, id uuid.UUID) []*account.Transaction {
	t.Helper()
	repo, err := f.uow.TransactionRepository()
	require.NoError(t, err)
	txs, err := repo.ListByAccount(context.Background(), id)
	require.NoError(t, err)
	return txs
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("smallest amount succeeds", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, f.owner.ID, currency.USD, "0", account.StatusActive)

		tx, err := f.svc.Deposit(ctx, f.owner, acc.ID, amt("0.01"), "salary")
		require.NoError(t, err)
		assert.Equal(t, account.TransactionDeposit, tx.Type)
		assert.Equal(t, account.TransactionCompleted, tx.Status)
		assert.Nil(t, tx.FromAccountID)
		require.NotNil(t, tx.ToAccountID)
		assert.Equal(t, acc.ID, *tx.ToAccountID)
		assert.Equal(t, "0.01", f.balance(t, acc.ID))
		assert.Len(t, f.history(t, acc.ID), 1)

		published := f.bus.Published()
		require.Len(t, published, 1)
		evt, ok := published[0].(*events.TransactionCompleted)
		require.True(t, ok)
		assert.Equal(t, tx.ID, evt.TransactionID)
		assert.Equal(t, "DEPOSIT", evt.Kind)
	})

	for _, bad := range []string{"0", "-1", "-0.01", "0.001", "12.345"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			f := newFixture(t)
			acc := f.open(t, f.owner.ID, currency.USD, "10", account.StatusActive)

			_, err := f.svc.Deposit(ctx, f.owner, acc.ID, amt(bad), "")
			assert.ErrorIs(t, err, domain.ErrInvalidAmount)
			assert.Equal(t, "10.00", f.balance(t, acc.ID))
			assert.Empty(t, f.history(t, acc.ID))
			assert.Empty(t, f.bus.Published())
		})
	}

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()
		_, err := f.svc.Deposit(ctx, f.owner, id, amt("1"), "")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
		var nf *domain.AccountNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, domain.LookupByID, nf.By)
	})

	t.Run("other user's account", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, uuid.New(), currency.USD, "10", account.StatusActive)
		_, err := f.svc.Deposit(ctx, f.owner, acc.ID, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrAccessDenied)

		admin := domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}
		_, err = f.svc.Deposit(ctx, admin, acc.ID, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrAccessDenied, "admins cannot move money on behalf of users")
		assert.Equal(t, "10.00", f.balance(t, acc.ID))
	})

	t.Run("blocked account", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, f.owner.ID, currency.USD, "10", account.StatusBlocked)
		_, err := f.svc.Deposit(ctx, f.owner, acc.ID, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.Equal(t, "10.00", f.balance(t, acc.ID))
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("full balance leaves zero", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, f.owner.ID, currency.RUB, "25.50", account.StatusActive)

		tx, err := f.svc.Withdraw(ctx, f.owner, acc.ID, amt("25.50"), "cash")
		require.NoError(t, err)
		assert.Equal(t, account.TransactionWithdraw, tx.Type)
		assert.Nil(t, tx.ToAccountID)
		require.NotNil(t, tx.FromAccountID)
		assert.Equal(t, acc.ID, *tx.FromAccountID)
		assert.Equal(t, "0.00", f.balance(t, acc.ID))
	})

	t.Run("one cent more than balance", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, f.owner.ID, currency.RUB, "25.50", account.StatusActive)

		_, err := f.svc.Withdraw(ctx, f.owner, acc.ID, amt("25.51"), "")
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		var ife *domain.InsufficientFundsError
		require.True(t, errors.As(err, &ife))
		assert.Equal(t, acc.ID, ife.AccountID)
		assert.Equal(t, "25.51", ife.Required.String())
		assert.Equal(t, "25.5", ife.Available.String())
		assert.Equal(t, "25.50", f.balance(t, acc.ID))
		assert.Empty(t, f.history(t, acc.ID))
	})

	t.Run("zero amount", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, f.owner.ID, currency.RUB, "1", account.StatusActive)
		_, err := f.svc.Withdraw(ctx, f.owner, acc.ID, decimal.Zero, "")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("closed account", func(t *testing.T) {
		f := newFixture(t)
		acc := f.open(t, f.owner.ID, currency.RUB, "0", account.StatusClosed)
		_, err := f.svc.Withdraw(ctx, f.owner, acc.ID, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds, "funds are checked before status")
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds and records one entry", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, f.owner.ID, currency.USD, "100.00", account.StatusActive)
		b := f.open(t, uuid.New(), currency.USD, "10.00", account.StatusActive)

		tx, err := f.svc.Transfer(ctx, f.owner, a.ID, b.Number, amt("40.00"), "rent")
		require.NoError(t, err)
		assert.Equal(t, "60.00", f.balance(t, a.ID))
		assert.Equal(t, "50.00", f.balance(t, b.ID))

		assert.Equal(t, account.TransactionTransfer, tx.Type)
		require.NotNil(t, tx.FromAccountID)
		require.NotNil(t, tx.ToAccountID)
		assert.Equal(t, a.ID, *tx.FromAccountID)
		assert.Equal(t, b.ID, *tx.ToAccountID)
		assert.Equal(t, "rent", tx.Description)

		assert.Len(t, f.history(t, a.ID), 1)
		assert.Len(t, f.history(t, b.ID), 1)
		assert.Equal(t, tx.ID, f.history(t, b.ID)[0].ID)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, f.owner.ID, currency.USD, "100.00", account.StatusActive)
		c := f.open(t, uuid.New(), currency.EUR, "5.00", account.StatusActive)

		_, err := f.svc.Transfer(ctx, f.owner, a.ID, c.Number, amt("1"), "")
		require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
		var cm *domain.CurrencyMismatchError
		require.True(t, errors.As(err, &cm))
		assert.Equal(t, "USD", cm.From)
		assert.Equal(t, "EUR", cm.To)
		assert.Equal(t, "100.00", f.balance(t, a.ID))
		assert.Equal(t, "5.00", f.balance(t, c.ID))
		assert.Empty(t, f.history(t, a.ID))
	})

	t.Run("same account", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, f.owner.ID, currency.USD, "100.00", account.StatusActive)
		_, err := f.svc.Transfer(ctx, f.owner, a.ID, a.Number, amt("1"), "")
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		var ia *domain.InvalidAmountError
		require.True(t, errors.As(err, &ia))
		assert.Equal(t, "same account", ia.Reason)
	})

	t.Run("precondition order", func(t *testing.T) {
		f := newFixture(t)
		mine := f.open(t, f.owner.ID, currency.USD, "1.00", account.StatusBlocked)
		theirs := f.open(t, uuid.New(), currency.EUR, "0", account.StatusActive)

		_, err := f.svc.Transfer(ctx, f.owner, uuid.New(), theirs.Number, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound, "missing source first")

		_, err = f.svc.Transfer(ctx, f.owner, theirs.ID, "40817999999999999999", amt("-1"), "")
		assert.ErrorIs(t, err, domain.ErrAccessDenied, "ownership before destination lookup")

		_, err = f.svc.Transfer(ctx, f.owner, mine.ID, "40817999999999999999", amt("-1"), "")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
		var nf *domain.AccountNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, domain.LookupByNumber, nf.By)

		_, err = f.svc.Transfer(ctx, f.owner, mine.ID, theirs.Number, amt("-1"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = f.svc.Transfer(ctx, f.owner, mine.ID, theirs.Number, amt("2"), "")
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		_, err = f.svc.Transfer(ctx, f.owner, mine.ID, theirs.Number, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

		usd := f.open(t, uuid.New(), currency.USD, "0", account.StatusActive)
		_, err = f.svc.Transfer(ctx, f.owner, mine.ID, usd.Number, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidOperation, "status is checked last")
	})

	t.Run("closed destination", func(t *testing.T) {
		f := newFixture(t)
		a := f.open(t, f.owner.ID, currency.USD, "10", account.StatusActive)
		b := f.open(t, uuid.New(), currency.USD, "0", account.StatusClosed)
		_, err := f.svc.Transfer(ctx, f.owner, a.ID, b.Number, amt("1"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
		assert.Equal(t, "10.00", f.balance(t, a.ID))
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.open(t, f.owner.ID, currency.USD, "0", account.StatusActive)
	b := f.open(t, uuid.New(), currency.USD, "0", account.StatusActive)

	_, err := f.svc.Deposit(ctx, f.owner, a.ID, amt("10"), "first")
	require.NoError(t, err)
	_, err = f.svc.Transfer(ctx, f.owner, a.ID, b.Number, amt("3"), "second")
	require.NoError(t, err)

	txs, err := f.svc.History(ctx, f.owner, a.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "second", txs[0].Description)
	assert.Equal(t, "first", txs[1].Description)

	_, err = f.svc.History(ctx, domain.Principal{ID: uuid.New(), Role: domain.RoleUser}, a.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	admin := domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}
	txs, err = f.svc.History(ctx, admin, b.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestConcurrentDepositsHaveNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.open(t, f.owner.ID, currency.USD, "100.00", account.StatusActive)

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := amt("1.25")
			if i%2 == 1 {
				amount = amt("0.75")
			}
			_, err := f.svc.Deposit(ctx, f.owner, acc.ID, amount, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "140.00", f.balance(t, acc.ID))
	assert.Len(t, f.history(t, acc.ID), workers)
}

func TestConcurrentTransfersKeepTotalAndNonNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := domain.Principal{ID: uuid.New(), Role: domain.RoleUser}
	a := f.open(t, f.owner.ID, currency.USD, "50.00", account.StatusActive)
	b := f.open(t, other.ID, currency.USD, "50.00", account.StatusActive)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.svc.Transfer(ctx, f.owner, a.ID, b.Number, amt("7"), "")
			} else {
				_, err = f.svc.Transfer(ctx, other, b.ID, a.Number, amt("5"), "")
			}
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	ba, bb := amt(f.balance(t, a.ID)), amt(f.balance(t, b.ID))
	assert.False(t, ba.IsNegative())
	assert.False(t, bb.IsNegative())
	assert.Equal(t, "100.00", ba.Add(bb).StringFixed(2))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.NewUoW(memory.NewStore())
	bus := mocks.NewMockBus()
	bus.On("Emit", mock.Anything, mock.AnythingOfType("*events.TransactionCompleted")).
		Return(errors.New("broker down")).Once()

	f := &fixture{
		svc:   NewService(config.Deps{Uow: uow, EventBus: bus, Logger: logger}),
		uow:   uow,
		owner: domain.Principal{ID: uuid.New(), Role: domain.RoleUser},
	}
	acc := f.open(t, f.owner.ID, currency.EUR, "0", account.StatusActive)

	_, err := f.svc.Deposit(ctx, f.owner, acc.ID, amt("5"), "")
	require.NoError(t, err)
	assert.Equal(t, "5.00", f.balance(t, acc.ID))
	bus.AssertExpectations(t)
}
