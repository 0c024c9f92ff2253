package notification

import (
	"context"
	"io"
	"log/slog"
	"testing"

	infraeventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotificationsFollowEvents(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.NewUoW(memory.NewStore())
	users, _ := uow.UserRepository()
	u := &user.User{ID: uuid.New(), Email: "olga@example.com", Phone: "+79000000001", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, u))

	sender := &recordingSender{}
	bus := infraeventbus.NewWithMemory(logger)
	NewService(uow, sender, logger).Register(bus)

	require.NoError(t, bus.Emit(ctx, &events.TransactionCompleted{
		UserID:   u.ID,
		Kind:     "DEPOSIT",
		Amount:   decimal.RequireFromString("12.5"),
		Currency: "RUB",
	}))
	require.NoError(t, bus.Emit(ctx, &events.CardStatusChanged{
		UserID:       u.ID,
		MaskedNumber: "**** **** **** 4242",
		Status:       "BLOCKED",
	}))
	require.NoError(t, bus.Emit(ctx, &events.CardStatusChanged{UserID: uuid.New()}))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "olga@example.com", sender.sent[0].To)
	assert.Equal(t, "Your DEPOSIT of 12.50 RUB was completed.", sender.sent[0].Body)
	assert.Equal(t, "Your card **** **** **** 4242 is now BLOCKED.", sender.sent[1].Body)
}

func TestHandlersRejectOtherEvents(t *testing.T) {
	svc := NewService(nil, &recordingSender{}, slog.Default())
	assert.Error(t, svc.HandleTransactionCompleted(context.Background(), &events.CardIssued{}))
	assert.Error(t, svc.HandleCardStatusChanged(context.Background(), &events.CardIssued{}))
}
