package card_test

import (
	"testing"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYears = 5

func newCard(t *testing.T, owner uuid.UUID, now time.Time) *card.Card {
	t.Helper()
	c, err := card.New(card.Params{
		AccountID:     uuid.New(),
		UserID:        owner,
		Number:        "1234567812345678",
		HolderName:    "Ivan Petrov",
		CVVHash:       "$2a$04$hash",
		Type:          card.TypeDebit,
		PaymentSystem: card.PaymentSystemMir,
		ValidYears:    validYears,
		Now:           now,
	})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newCard(t, uuid.New(), now)
	assert.Equal(t, card.StatusActive, c.Status)
	assert.Equal(t, "IVAN PETROV", c.HolderName)
	assert.Equal(t, time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC), c.ExpiryDate)
	assert.Equal(t, now, c.CreatedAt)

	_, err := card.New(card.Params{AccountID: uuid.New(), UserID: uuid.New(), Number: "123"})
	assert.Error(t, err)

	_, err = card.New(card.Params{
		AccountID: uuid.New(), UserID: uuid.New(), Number: "1234567812345678",
		CVVHash: "x", Type: card.TypeCredit, PaymentSystem: "AMEX", ValidYears: validYears,
	})
	assert.Error(t, err)

	_, err = card.New(card.Params{
		AccountID: uuid.New(), UserID: uuid.New(), Number: "1234567812345678",
		CVVHash: "x", Type: card.TypeCredit, PaymentSystem: card.PaymentSystemVisa,
	})
	assert.Error(t, err, "zero validity")
}

func TestExpiryIsCalendarYears(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"window crosses leap day", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Date(2029, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"window starts before leap day", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), time.Date(2028, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"issued on leap day", time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), time.Date(2029, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCard(t, uuid.New(), tt.now)
			assert.Equal(t, tt.want, c.ExpiryDate)
			assert.Equal(t, card.StatusActive, c.EffectiveStatus(tt.want))
			assert.Equal(t, card.StatusExpired, c.EffectiveStatus(tt.want.Add(time.Second)))
		})
	}
}

func TestBlockUnblock(t *testing.T) {
	now := time.Now().UTC()
	c := newCard(t, uuid.New(), now)
	later := now.Add(time.Hour)

	require.NoError(t, c.Block(later))
	assert.Equal(t, card.StatusBlocked, c.Status)
	assert.Equal(t, later, c.UpdatedAt)

	err := c.Block(later.Add(time.Hour))
	require.ErrorIs(t, err, domain.ErrCardAlreadyBlocked)
	assert.Equal(t, later, c.UpdatedAt, "failed block must not touch updatedAt")

	require.NoError(t, c.Unblock(later))
	assert.Equal(t, card.StatusActive, c.Status)

	err = c.Unblock(later)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now().UTC()
	c := newCard(t, uuid.New(), now)

	assert.Equal(t, card.StatusActive, c.EffectiveStatus(now))
	assert.Equal(t, card.StatusExpired, c.EffectiveStatus(now.AddDate(validYears, 0, 0).Add(time.Second)))
	assert.Equal(t, card.StatusActive, c.Status, "expiry is derived, not stored")

	require.NoError(t, c.Block(now))
	assert.Equal(t, card.StatusBlocked, c.EffectiveStatus(now))
	assert.ErrorIs(t, c.Unblock(now.AddDate(validYears, 0, 0).Add(time.Second)), domain.ErrInvalidOperation)
}

func TestCheckAccess(t *testing.T) {
	owner := uuid.New()
	c := newCard(t, owner, time.Now())

	assert.NoError(t, c.CheckAccess(domain.Principal{ID: owner, Role: domain.RoleUser}))
	assert.NoError(t, c.CheckAccess(domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}))
	assert.ErrorIs(t, c.CheckAccess(domain.Principal{ID: uuid.New(), Role: domain.RoleUser}), domain.ErrAccessDenied)
}
