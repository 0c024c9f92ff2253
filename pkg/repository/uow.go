package repository

import "context"

// UnitOfWork defines the transaction boundary and repository access.
//
// Repositories obtained from the UnitOfWork passed to fn share its
// transaction. Do commits when fn returns nil and rolls back otherwise,
// so a failed operation leaves no trace in storage.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
	CardRepository() (CardRepository, error)
	UserRepository() (UserRepository, error)
}
