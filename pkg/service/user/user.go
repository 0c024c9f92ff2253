// Package user provides registration, profile and password operations, plus
// the administrative role and status changes used by the CLI.
package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
)

// Registration is the input of Register.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// Service provides business logic for user operations.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// NewService creates a new Service from the shared dependencies.
func NewService(deps config.Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: deps.Uow, bus: deps.EventBus, logger: logger}
}

// Register creates an ACTIVE user with role USER. Email and phone must be unused.
func (s *Service) Register(ctx context.Context, r Registration) (*user.User, error) {
	return s.create(ctx, r, domain.RoleUser)
}

// CreateAdmin registers a user with role ADMIN.
func (s *Service) CreateAdmin(ctx context.Context, r Registration) (*user.User, error) {
	return s.create(ctx, r, domain.RoleAdmin)
}

func (s *Service) create(ctx context.Context, r Registration, role domain.Role) (u *user.User, err error) {
	logger := s.logger.With("email", utils.MaskEmail(r.Email), "role", role)
	logger.Info("Register started")
	u, err = user.NewUser(r.FirstName, r.LastName, r.Email, r.Phone, r.Password)
	if err != nil {
		logger.Warn("Register failed: invalid input", "error", err)
		return nil, domain.InvalidOperation(err.Error())
	}
	u.Role = role
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if taken, err := repo.ExistsByEmail(ctx, u.Email); err != nil {
			return err
		} else if taken {
			return &domain.UserAlreadyExistsError{Field: "email", Value: u.Email}
		}
		if taken, err := repo.ExistsByPhone(ctx, u.Phone); err != nil {
			return err
		} else if taken {
			return &domain.UserAlreadyExistsError{Field: "phone", Value: u.Phone}
		}
		return repo.Create(ctx, u)
	})
	if err != nil {
		logger.Error("Register failed", "error", err)
		return nil, err
	}
	logger.Info("Register successful", "userID", u.ID)
	if s.bus != nil {
		evt := &events.UserRegistered{UserID: u.ID, MaskedEmail: utils.MaskEmail(u.Email), OccurredAt: u.CreatedAt}
		if err := s.bus.Emit(ctx, evt); err != nil {
			logger.Warn("failed to publish event", "type", evt.Type(), "error", err)
		}
	}
	return u, nil
}

// Me returns the principal's own profile.
func (s *Service) Me(ctx context.Context, principal domain.Principal) (u *user.User, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = repo.Get(ctx, principal.ID)
		return err
	})
	return u, err
}

// ChangePassword replaces the principal's password.
func (s *Service) ChangePassword(
	ctx context.Context,
	principal domain.Principal,
	oldPassword, newPassword, repeat string,
) error {
	logger := s.logger.With("userID", principal.ID)
	logger.Info("ChangePassword started")
	err := s.update(ctx, func(repo repository.UserRepository) (*user.User, error) {
		u, err := repo.Get(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		return u, u.ChangePassword(oldPassword, newPassword, repeat)
	})
	if err != nil {
		logger.Error("ChangePassword failed", "error", err)
		return err
	}
	logger.Info("ChangePassword successful")
	return nil
}

// Promote grants ADMIN to the user with email.
func (s *Service) Promote(ctx context.Context, email string) (*user.User, error) {
	return s.updateByEmail(ctx, "Promote", email, func(u *user.User) { u.Role = domain.RoleAdmin })
}

// Block sets the user with email to BLOCKED so that logins are refused.
func (s *Service) Block(ctx context.Context, email string) (*user.User, error) {
	return s.updateByEmail(ctx, "Block", email, func(u *user.User) { u.Status = user.StatusBlocked })
}

// GetByEmail looks a user up by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (u *user.User, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = repo.GetByEmail(ctx, email)
		return err
	})
	return u, err
}

func (s *Service) updateByEmail(ctx context.Context, op, email string, apply func(u *user.User)) (u *user.User, err error) {
	logger := s.logger.With("op", op, "email", utils.MaskEmail(email))
	err = s.update(ctx, func(repo repository.UserRepository) (*user.User, error) {
		found, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		apply(found)
		found.UpdatedAt = time.Now().UTC()
		u = found
		return found, nil
	})
	if err != nil {
		logger.Error(op+" failed", "error", err)
		return nil, err
	}
	logger.Info(op+" successful", "userID", u.ID)
	return u, nil
}

func (s *Service) update(ctx context.Context, fn func(repo repository.UserRepository) (*user.User, error)) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err := fn(repo)
		if err != nil {
			return err
		}
		return repo.Update(ctx, u)
	})
}
