package repository

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/google/uuid"
)

// AccountRepository is the Account Store. Reads return value snapshots.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error
	Update(ctx context.Context, a *account.Account) error
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByNumber(ctx context.Context, number string) (*account.Account, error)
	// GetForUpdate loads the account and holds a row lock on it until the
	// surrounding unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	// LockForUpdate locks all given accounts in ascending id order and
	// returns them keyed by id. Missing ids are absent from the map.
	LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter dto.AccountFilter) ([]*account.Account, error)
	Count(ctx context.Context, filter dto.AccountFilter) (int64, error)
}

// TransactionRepository is the append-only Transaction Log.
type TransactionRepository interface {
	Create(ctx context.Context, tx *account.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error)
	// ListByAccount returns entries where the account is either side, newest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error)
}

// CardRepository stores cards.
type CardRepository interface {
	Create(ctx context.Context, c *card.Card) error
	Update(ctx context.Context, c *card.Card) error
	Get(ctx context.Context, id uuid.UUID) (*card.Card, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*card.Card, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*card.Card, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*card.Card, error)
}

// UserRepository stores users.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	Update(ctx context.Context, u *user.User) error
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}
