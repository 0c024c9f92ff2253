package memory

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/google/uuid"
)

// UoW implements repository.UnitOfWork over a Store.
type UoW struct {
	store *Store
	cs    *changeSet
	held  map[uuid.UUID]bool
	order []uuid.UUID
}

// NewUoW creates a unit of work factory over store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Do stages every write made through the repositories of the UoW passed to
// fn and commits them together when fn returns nil. Locks taken inside are
// released when Do returns. A Do nested in another Do joins the outer one.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.cs != nil {
		return fn(u)
	}
	tx := &UoW{store: u.store, cs: newChangeSet(), held: make(map[uuid.UUID]bool)}
	defer tx.releaseAll()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return u.store.commit(tx.cs)
}

func (u *UoW) lock(ctx context.Context, ids ...uuid.UUID) error {
	if u.cs == nil {
		return nil
	}
	for _, id := range sortIDs(ids) {
		if u.held[id] {
			continue
		}
		if err := u.store.locks.acquire(ctx, id); err != nil {
			return err
		}
		u.held[id] = true
		u.order = append(u.order, id)
	}
	return nil
}

func (u *UoW) releaseAll() {
	for i := len(u.order) - 1; i >= 0; i-- {
		u.store.locks.release(u.order[i])
	}
	u.order = nil
	u.held = nil
}

// write stages fn's changes, committing immediately outside of Do.
func (u *UoW) write(fn func(cs *changeSet) error) error {
	if u.cs != nil {
		return fn(u.cs)
	}
	cs := newChangeSet()
	if err := fn(cs); err != nil {
		return err
	}
	return u.store.commit(cs)
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepository{uow: u}, nil
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepository{uow: u}, nil
}

func (u *UoW) CardRepository() (repository.CardRepository, error) {
	return &cardRepository{uow: u}, nil
}

func (u *UoW) UserRepository() (repository.UserRepository, error) {
	return &userRepository{uow: u}, nil
}
