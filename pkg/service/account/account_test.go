package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	infraeventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memory.UoW, *infraeventbus.MemoryEventBus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.NewUoW(memory.NewStore())
	bus := infraeventbus.NewWithMemory(logger)
	return NewService(config.Deps{Uow: uow, EventBus: bus, Logger: logger}), uow, bus
}

func user() domain.Principal {
	return domain.Principal{ID: uuid.New(), Role: domain.RoleUser}
}

func setBalance(t *testing.T, uow *memory.UoW, id uuid.UUID, balance string) {
	t.Helper()
	repo, err := uow.AccountRepository()
	require.NoError(t, err)
	acc, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	acc.Balance = decimal.RequireFromString(balance)
	require.NoError(t, repo.Update(context.Background(), acc))
}

func TestDrawNumber(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := DrawNumber()
		require.NoError(t, err)
		assert.Len(t, n, account.NumberLength)
		assert.True(t, strings.HasPrefix(n, account.NumberPrefix))
		assert.NotEqual(t, '0', rune(n[5]), "suffix is drawn from [10^14, 10^15)")
	}
}

func TestCreateAccount(t *testing.T) {
	svc, _, bus := newTestService(t)
	p := user()

	acc, err := svc.CreateAccount(context.Background(), p, account.TypeSavings, currency.EUR)
	require.NoError(t, err)
	assert.Equal(t, p.ID, acc.UserID)
	assert.Equal(t, account.TypeSavings, acc.Type)
	assert.Equal(t, currency.EUR, acc.Currency)
	assert.Equal(t, account.StatusActive, acc.Status)
	assert.True(t, acc.Balance.IsZero())
	assert.Len(t, acc.Number, 20)

	require.Len(t, bus.Published(), 1)
	opened, ok := bus.Published()[0].(*events.AccountOpened)
	require.True(t, ok)
	assert.Equal(t, acc.ID, opened.AccountID)
	assert.NotContains(t, opened.MaskedNumber, acc.Number[6:18])

	_, err = svc.CreateAccount(context.Background(), p, account.TypeSavings, currency.Code("GBP"))
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestCreateAccountRetriesCollisions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := user()

	svc.draw = func() (string, error) { return "40817000000000000001", nil }
	_, err := svc.CreateAccount(ctx, p, account.TypeChecking, currency.USD)
	require.NoError(t, err)

	calls := 0
	svc.draw = func() (string, error) {
		calls++
		if calls < 4 {
			return "40817000000000000001", nil
		}
		return "40817000000000000002", nil
	}
	acc, err := svc.CreateAccount(ctx, p, account.TypeChecking, currency.USD)
	require.NoError(t, err)
	assert.Equal(t, "40817000000000000002", acc.Number)
	assert.Equal(t, 4, calls)

	calls = 0
	svc.draw = func() (string, error) {
		calls++
		return "40817000000000000001", nil
	}
	_, err = svc.CreateAccount(ctx, p, account.TypeChecking, currency.USD)
	assert.ErrorIs(t, err, domain.ErrNumberGenerationExhausted)
	assert.Equal(t, 10, calls)
}

func TestReadAccess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner, stranger := user(), user()
	admin := domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}

	acc, err := svc.CreateAccount(ctx, owner, account.TypeChecking, currency.RUB)
	require.NoError(t, err)

	got, err := svc.GetAccount(ctx, owner, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Number, got.Number)

	_, err = svc.GetAccount(ctx, stranger, acc.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = svc.GetAccountByNumber(ctx, admin, acc.Number)
	assert.NoError(t, err)

	_, err = svc.GetAccountByNumber(ctx, owner, "40817000000000000000")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = svc.GetAccount(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	bal, err := svc.GetBalance(ctx, owner, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, currency.RUB, bal.Currency)
	assert.True(t, bal.Balance.IsZero())
}

func TestListAndTotals(t *testing.T) {
	svc, uow, _ := newTestService(t)
	ctx := context.Background()
	p := user()

	a, err := svc.CreateAccount(ctx, p, account.TypeChecking, currency.USD)
	require.NoError(t, err)
	b, err := svc.CreateAccount(ctx, p, account.TypeSavings, currency.USD)
	require.NoError(t, err)
	c, err := svc.CreateAccount(ctx, p, account.TypeDeposit, currency.EUR)
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, user(), account.TypeChecking, currency.USD)
	require.NoError(t, err)

	setBalance(t, uow, a.ID, "10.50")
	setBalance(t, uow, b.ID, "4.50")
	setBalance(t, uow, c.ID, "99")

	all, err := svc.ListAccounts(ctx, p, dto.AccountFilter{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Len(t, all, 3, "user filter is forced to the principal")

	usd, err := svc.ListAccounts(ctx, p, dto.AccountFilter{Currency: currency.USD})
	require.NoError(t, err)
	assert.Len(t, usd, 2)

	savings, err := svc.ListAccounts(ctx, p, dto.AccountFilter{Type: account.TypeSavings})
	require.NoError(t, err)
	require.Len(t, savings, 1)
	assert.Equal(t, b.ID, savings[0].ID)

	n, err := svc.CountAccounts(ctx, p)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	total, err := svc.TotalBalance(ctx, p, currency.USD)
	require.NoError(t, err)
	assert.Equal(t, "15", total.Total.String())
	assert.Equal(t, 2, total.Accounts)

	_, err = svc.UpdateAccountStatus(ctx, p, b.ID, account.StatusBlocked)
	require.NoError(t, err)
	total, err = svc.TotalBalance(ctx, p, currency.USD)
	require.NoError(t, err)
	assert.Equal(t, "10.5", total.Total.String(), "blocked accounts are excluded")
	assert.Equal(t, 1, total.Accounts)

	_, err = svc.TotalBalance(ctx, p, currency.Code("XXX"))
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestListUserAccountsIsAdminOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := user()
	_, err := svc.CreateAccount(ctx, owner, account.TypeChecking, currency.USD)
	require.NoError(t, err)

	_, err = svc.ListUserAccounts(ctx, owner, owner.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	list, err := svc.ListUserAccounts(ctx, domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateAccountStatus(t *testing.T) {
	svc, uow, bus := newTestService(t)
	ctx := context.Background()
	p := user()
	acc, err := svc.CreateAccount(ctx, p, account.TypeChecking, currency.USD)
	require.NoError(t, err)
	bus.ClearPublished()

	got, err := svc.UpdateAccountStatus(ctx, p, acc.ID, account.StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, account.StatusBlocked, got.Status)
	require.Len(t, bus.Published(), 1)
	changed := bus.Published()[0].(*events.AccountStatusChanged)
	assert.Equal(t, "ACTIVE", changed.From)
	assert.Equal(t, "BLOCKED", changed.To)

	got, err = svc.UpdateAccountStatus(ctx, p, acc.ID, account.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, account.StatusActive, got.Status)

	_, err = svc.UpdateAccountStatus(ctx, p, acc.ID, account.Status("FROZEN"))
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = svc.UpdateAccountStatus(ctx, user(), acc.ID, account.StatusBlocked)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	admin := domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}
	_, err = svc.UpdateAccountStatus(ctx, admin, acc.ID, account.StatusBlocked)
	assert.ErrorIs(t, err, domain.ErrAccessDenied, "status changes are owner only")

	setBalance(t, uow, acc.ID, "1")
	_, err = svc.UpdateAccountStatus(ctx, p, acc.ID, account.StatusClosed)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	setBalance(t, uow, acc.ID, "0")
	got, err = svc.UpdateAccountStatus(ctx, p, acc.ID, account.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, account.StatusClosed, got.Status)

	_, err = svc.UpdateAccountStatus(ctx, p, acc.ID, account.StatusActive)
	var op *domain.InvalidOperationError
	require.True(t, errors.As(err, &op))
	assert.Equal(t, "cannot update status of closed account", op.Reason)
}

func TestCloseAccount(t *testing.T) {
	svc, uow, _ := newTestService(t)
	ctx := context.Background()
	p := user()
	acc, err := svc.CreateAccount(ctx, p, account.TypeChecking, currency.USD)
	require.NoError(t, err)
	setBalance(t, uow, acc.ID, "5.00")

	_, err = svc.CloseAccount(ctx, p, acc.ID)
	var op *domain.InvalidOperationError
	require.True(t, errors.As(err, &op))
	assert.Equal(t, "cannot close account with non-zero balance", op.Reason)

	got, err := svc.GetAccount(ctx, p, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, account.StatusActive, got.Status)
	assert.Equal(t, "5", got.Balance.String())

	setBalance(t, uow, acc.ID, "0.00")
	closed, err := svc.CloseAccount(ctx, p, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, account.StatusClosed, closed.Status)

	_, err = svc.CloseAccount(ctx, p, acc.ID)
	require.True(t, errors.As(err, &op))
	assert.Equal(t, "account is already closed", op.Reason)

	_, err = svc.CloseAccount(ctx, p, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
