package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/google/uuid"
)

type accountRepository struct {
	uow *UoW
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	ok, err := r.ExistsByNumber(ctx, a.Number)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("duplicate account number %s", a.Number)
	}
	return r.uow.write(func(cs *changeSet) error {
		cs.accounts[a.ID] = *a
		cs.newAccounts[a.ID] = true
		return nil
	})
}

func (r *accountRepository) Update(_ context.Context, a *account.Account) error {
	if _, ok := r.find(a.ID); !ok {
		return domain.AccountNotFoundByID(a.ID)
	}
	return r.uow.write(func(cs *changeSet) error {
		cs.accounts[a.ID] = *a
		return nil
	})
}

func (r *accountRepository) find(id uuid.UUID) (account.Account, bool) {
	if r.uow.cs != nil {
		if a, ok := r.uow.cs.accounts[id]; ok {
			return a, true
		}
	}
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()
	a, ok := r.uow.store.accounts[id]
	return a, ok
}

func (r *accountRepository) Get(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := r.find(id)
	if !ok {
		return nil, domain.AccountNotFoundByID(id)
	}
	return &a, nil
}

func (r *accountRepository) GetByNumber(_ context.Context, number string) (*account.Account, error) {
	for _, a := range r.all() {
		if a.Number == number {
			return a, nil
		}
	}
	return nil, domain.AccountNotFoundByNumber(number)
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := r.uow.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *accountRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	if err := r.uow.lock(ctx, ids...); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		if a, ok := r.find(id); ok {
			out[id] = &a
		}
	}
	return out, nil
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, a := range r.all() {
		if a.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *accountRepository) List(_ context.Context, filter dto.AccountFilter) ([]*account.Account, error) {
	var out []*account.Account
	for _, a := range r.all() {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *accountRepository) Count(ctx context.Context, filter dto.AccountFilter) (int64, error) {
	list, err := r.List(ctx, filter)
	return int64(len(list)), err
}

// all merges committed accounts with the staged ones.
func (r *accountRepository) all() []*account.Account {
	r.uow.store.mu.RLock()
	merged := make(map[uuid.UUID]account.Account, len(r.uow.store.accounts))
	for id, a := range r.uow.store.accounts {
		merged[id] = a
	}
	r.uow.store.mu.RUnlock()
	if r.uow.cs != nil {
		for id, a := range r.uow.cs.accounts {
			merged[id] = a
		}
	}
	out := make([]*account.Account, 0, len(merged))
	for _, a := range merged {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out
}

type transactionRepository struct {
	uow *UoW
}

func (r *transactionRepository) Create(_ context.Context, tx *account.Transaction) error {
	return r.uow.write(func(cs *changeSet) error {
		cs.transactions = append(cs.transactions, *tx)
		return nil
	})
}

func (r *transactionRepository) all() []account.Transaction {
	r.uow.store.mu.RLock()
	out := make([]account.Transaction, len(r.uow.store.transactions))
	copy(out, r.uow.store.transactions)
	r.uow.store.mu.RUnlock()
	if r.uow.cs != nil {
		out = append(out, r.uow.cs.transactions...)
	}
	return out
}

func (r *transactionRepository) Get(_ context.Context, id uuid.UUID) (*account.Transaction, error) {
	for _, tx := range r.all() {
		if tx.ID == id {
			tx := tx
			return &tx, nil
		}
	}
	return nil, fmt.Errorf("transaction %s not found", id)
}

func (r *transactionRepository) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	all := r.all()
	out := make([]*account.Transaction, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Involves(accountID) {
			tx := all[i]
			out = append(out, &tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type cardRepository struct {
	uow *UoW
}

func (r *cardRepository) Create(ctx context.Context, c *card.Card) error {
	ok, err := r.ExistsByNumber(ctx, c.Number)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("duplicate card number")
	}
	return r.uow.write(func(cs *changeSet) error {
		cs.cards[c.ID] = *c
		cs.newCards[c.ID] = true
		return nil
	})
}

func (r *cardRepository) Update(_ context.Context, c *card.Card) error {
	if _, ok := r.find(c.ID); !ok {
		return &domain.CardNotFoundError{CardID: c.ID}
	}
	return r.uow.write(func(cs *changeSet) error {
		cs.cards[c.ID] = *c
		return nil
	})
}

func (r *cardRepository) find(id uuid.UUID) (card.Card, bool) {
	if r.uow.cs != nil {
		if c, ok := r.uow.cs.cards[id]; ok {
			return c, true
		}
	}
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()
	c, ok := r.uow.store.cards[id]
	return c, ok
}

func (r *cardRepository) Get(_ context.Context, id uuid.UUID) (*card.Card, error) {
	c, ok := r.find(id)
	if !ok {
		return nil, &domain.CardNotFoundError{CardID: id}
	}
	return &c, nil
}

func (r *cardRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*card.Card, error) {
	if err := r.uow.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *cardRepository) all() []*card.Card {
	r.uow.store.mu.RLock()
	merged := make(map[uuid.UUID]card.Card, len(r.uow.store.cards))
	for id, c := range r.uow.store.cards {
		merged[id] = c
	}
	r.uow.store.mu.RUnlock()
	if r.uow.cs != nil {
		for id, c := range r.uow.cs.cards {
			merged[id] = c
		}
	}
	out := make([]*card.Card, 0, len(merged))
	for _, c := range merged {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *cardRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, c := range r.all() {
		if c.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *cardRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*card.Card, error) {
	var out []*card.Card
	for _, c := range r.all() {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *cardRepository) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*card.Card, error) {
	var out []*card.Card
	for _, c := range r.all() {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

type userRepository struct {
	uow *UoW
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	ok, err := r.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if ok {
		return &domain.UserAlreadyExistsError{Field: "email", Value: u.Email}
	}
	if ok, err = r.ExistsByPhone(ctx, u.Phone); err != nil {
		return err
	}
	if ok {
		return &domain.UserAlreadyExistsError{Field: "phone", Value: u.Phone}
	}
	return r.uow.write(func(cs *changeSet) error {
		cs.users[u.ID] = *u
		cs.newUsers[u.ID] = true
		return nil
	})
}

func (r *userRepository) Update(_ context.Context, u *user.User) error {
	if _, ok := r.find(u.ID); !ok {
		return &domain.UserNotFoundError{Key: u.ID.String()}
	}
	return r.uow.write(func(cs *changeSet) error {
		cs.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) find(id uuid.UUID) (user.User, bool) {
	if r.uow.cs != nil {
		if u, ok := r.uow.cs.users[id]; ok {
			return u, true
		}
	}
	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()
	u, ok := r.uow.store.users[id]
	return u, ok
}

func (r *userRepository) all() []user.User {
	r.uow.store.mu.RLock()
	merged := make(map[uuid.UUID]user.User, len(r.uow.store.users))
	for id, u := range r.uow.store.users {
		merged[id] = u
	}
	r.uow.store.mu.RUnlock()
	if r.uow.cs != nil {
		for id, u := range r.uow.cs.users {
			merged[id] = u
		}
	}
	out := make([]user.User, 0, len(merged))
	for _, u := range merged {
		out = append(out, u)
	}
	return out
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.find(id)
	if !ok {
		return nil, &domain.UserNotFoundError{Key: id.String()}
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	email = strings.ToLower(email)
	for _, u := range r.all() {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, &domain.UserNotFoundError{Key: email}
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	email = strings.ToLower(email)
	for _, u := range r.all() {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, u := range r.all() {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}
