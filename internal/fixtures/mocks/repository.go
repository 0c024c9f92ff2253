package mocks

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock of repository.UnitOfWork. Do runs fn with the
// mock itself unless an error is configured.
type MockUnitOfWork struct {
	mock.Mock
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{}
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockUnitOfWork) AccountRepository() (repository.AccountRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.AccountRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) TransactionRepository() (repository.TransactionRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.TransactionRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) CardRepository() (repository.CardRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.CardRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) UserRepository() (repository.UserRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.UserRepository)
	return repo, args.Error(1)
}

// MockUserRepository is a mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

var (
	_ repository.UnitOfWork     = (*MockUnitOfWork)(nil)
	_ repository.UserRepository = (*MockUserRepository)(nil)
)
