package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUoW_DoCommits(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		acctRepo, err := txUow.AccountRepository()
		require.NoError(t, err)
		_, ok := acctRepo.(*accountRepository)
		assert.True(t, ok)

		txRepo, err := txUow.TransactionRepository()
		require.NoError(t, err)
		_, ok = txRepo.(*transactionRepository)
		assert.True(t, ok)

		cardRepo, err := txUow.CardRepository()
		require.NoError(t, err)
		_, ok = cardRepo.(*cardRepository)
		assert.True(t, ok)

		userRepo, err := txUow.UserRepository()
		require.NoError(t, err)
		_, ok = userRepo.(*userRepository)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repo, err := txUow.AccountRepository()
		require.NoError(t, err)
		require.NoError(t, repo.Update(context.Background(), mapAccountToDomain(&Account{Status: "ACTIVE"})))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_RepositoriesOutsideTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db)

	accountRepo, err := uow.AccountRepository()
	require.NoError(t, err)
	assert.NotNil(t, accountRepo)

	userRepo, err := uow.UserRepository()
	require.NoError(t, err)
	assert.NotNil(t, userRepo)
}
