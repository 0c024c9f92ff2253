// Package memory is an in-process implementation of the repository
// contracts. Units of work stage their writes and apply them atomically on
// commit; row locks are per-id channels acquired in ascending id order.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/google/uuid"
)

// Store holds committed state.
type Store struct {
	mu sync.RWMutex

	accounts       map[uuid.UUID]account.Account
	accountNumbers map[string]uuid.UUID
	cards          map[uuid.UUID]card.Card
	cardNumbers    map[string]uuid.UUID
	users          map[uuid.UUID]user.User
	userEmails     map[string]uuid.UUID
	userPhones     map[string]uuid.UUID
	transactions   []account.Transaction

	locks *lockTable
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:       make(map[uuid.UUID]account.Account),
		accountNumbers: make(map[string]uuid.UUID),
		cards:          make(map[uuid.UUID]card.Card),
		cardNumbers:    make(map[string]uuid.UUID),
		users:          make(map[uuid.UUID]user.User),
		userEmails:     make(map[string]uuid.UUID),
		userPhones:     make(map[string]uuid.UUID),
		locks:          newLockTable(),
	}
}

// lockTable hands out one exclusive lock per id.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uuid.UUID]chan struct{})}
}

func (t *lockTable) get(id uuid.UUID) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[id] = ch
	}
	return ch
}

// acquire blocks until id is locked or ctx is done.
func (t *lockTable) acquire(ctx context.Context, id uuid.UUID) error {
	select {
	case t.get(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *lockTable) release(id uuid.UUID) {
	<-t.get(id)
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// changeSet is the staged write set of one unit of work.
type changeSet struct {
	accounts     map[uuid.UUID]account.Account
	newAccounts  map[uuid.UUID]bool
	cards        map[uuid.UUID]card.Card
	newCards     map[uuid.UUID]bool
	users        map[uuid.UUID]user.User
	newUsers     map[uuid.UUID]bool
	transactions []account.Transaction
}

func newChangeSet() *changeSet {
	return &changeSet{
		accounts:    make(map[uuid.UUID]account.Account),
		newAccounts: make(map[uuid.UUID]bool),
		cards:       make(map[uuid.UUID]card.Card),
		newCards:    make(map[uuid.UUID]bool),
		users:       make(map[uuid.UUID]user.User),
		newUsers:    make(map[uuid.UUID]bool),
	}
}

// commit validates the change set against committed state and applies it
// in one critical section. Nothing is applied if validation fails.
func (s *Store) commit(cs *changeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validate(cs); err != nil {
		return err
	}
	for id, a := range cs.accounts {
		s.accounts[id] = a
		s.accountNumbers[a.Number] = id
	}
	for id, c := range cs.cards {
		s.cards[id] = c
		s.cardNumbers[c.Number] = id
	}
	for id, u := range cs.users {
		if old, ok := s.users[id]; ok {
			delete(s.userEmails, old.Email)
			delete(s.userPhones, old.Phone)
		}
		s.users[id] = u
		s.userEmails[u.Email] = id
		s.userPhones[u.Phone] = id
	}
	s.transactions = append(s.transactions, cs.transactions...)
	return nil
}

func (s *Store) validate(cs *changeSet) error {
	for id, a := range cs.accounts {
		_, exists := s.accounts[id]
		if cs.newAccounts[id] {
			if exists {
				return fmt.Errorf("account %s already exists", id)
			}
			if other, ok := s.accountNumbers[a.Number]; ok && other != id {
				return fmt.Errorf("duplicate account number %s", a.Number)
			}
		} else if !exists {
			return domain.AccountNotFoundByID(id)
		}
	}
	for id, c := range cs.cards {
		_, exists := s.cards[id]
		if cs.newCards[id] {
			if exists {
				return fmt.Errorf("card %s already exists", id)
			}
			if other, ok := s.cardNumbers[c.Number]; ok && other != id {
				return fmt.Errorf("duplicate card number")
			}
		} else if !exists {
			return &domain.CardNotFoundError{CardID: id}
		}
	}
	for id, u := range cs.users {
		_, exists := s.users[id]
		if !cs.newUsers[id] && !exists {
			return &domain.UserNotFoundError{Key: id.String()}
		}
		if other, ok := s.userEmails[u.Email]; ok && other != id {
			return &domain.UserAlreadyExistsError{Field: "email", Value: u.Email}
		}
		if other, ok := s.userPhones[u.Phone]; ok && other != id {
			return &domain.UserAlreadyExistsError{Field: "phone", Value: u.Phone}
		}
	}
	return nil
}
