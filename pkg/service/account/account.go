// Package account provides the account lifecycle: opening accounts, reading
// balances and moving accounts through ACTIVE, BLOCKED and CLOSED.
//
// Every operation receives the caller as an explicit domain.Principal and
// runs inside one unit of work. Money movement lives in the ledger package.
package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service provides business logic for account operations.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
	draw   func() (string, error)
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uow:    deps.Uow,
		bus:    deps.EventBus,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		draw:   DrawNumber,
	}
}

// CreateAccount opens an ACTIVE zero-balance account for the principal.
func (s *Service) CreateAccount(
	ctx context.Context,
	principal domain.Principal,
	typ account.Type,
	code currency.Code,
) (acc *account.Account, err error) {
	logger := s.logger.With("userID", principal.ID, "type", typ, "currency", code)
	logger.Info("CreateAccount started")
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		number, err := uniqueNumber(ctx, repo, s.draw)
		if err != nil {
			return err
		}
		now := s.now()
		acc, err = account.New().
			WithUserID(principal.ID).
			WithNumber(number).
			WithType(typ).
			WithCurrency(code).
			WithCreatedAt(now).
			WithUpdatedAt(now).
			Build()
		if err != nil {
			return domain.InvalidOperation(err.Error())
		}
		return repo.Create(ctx, acc)
	})
	if err != nil {
		logger.Error("CreateAccount failed", "error", err)
		return nil, err
	}
	logger.Info("CreateAccount successful", "accountID", acc.ID, "number", utils.MaskAccountNumber(acc.Number))
	s.emit(ctx, &events.AccountOpened{
		AccountID:    acc.ID,
		UserID:       acc.UserID,
		MaskedNumber: utils.MaskAccountNumber(acc.Number),
		Currency:     acc.Currency.String(),
		OccurredAt:   acc.CreatedAt,
	})
	return acc, nil
}

// GetAccount returns an account the principal owns, or any account for admins.
func (s *Service) GetAccount(
	ctx context.Context,
	principal domain.Principal,
	id uuid.UUID,
) (acc *account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if acc, err = repo.Get(ctx, id); err != nil {
			return err
		}
		return acc.CheckReadable(principal)
	})
	if err != nil {
		s.logger.Debug("GetAccount failed", "accountID", id, "error", err)
		return nil, err
	}
	return acc, nil
}

// GetAccountByNumber looks an account up by its 20-digit number.
func (s *Service) GetAccountByNumber(
	ctx context.Context,
	principal domain.Principal,
	number string,
) (acc *account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if acc, err = repo.GetByNumber(ctx, number); err != nil {
			return err
		}
		return acc.CheckReadable(principal)
	})
	if err != nil {
		s.logger.Debug("GetAccountByNumber failed", "number", utils.MaskAccountNumber(number), "error", err)
		return nil, err
	}
	return acc, nil
}

// ListAccounts lists the principal's own accounts matching filter.
// filter.UserID is always replaced by the principal.
func (s *Service) ListAccounts(
	ctx context.Context,
	principal domain.Principal,
	filter dto.AccountFilter,
) ([]*account.Account, error) {
	filter.UserID = principal.ID
	return s.list(ctx, filter)
}

// ListUserAccounts lists any user's accounts. Admin only.
func (s *Service) ListUserAccounts(
	ctx context.Context,
	principal domain.Principal,
	userID uuid.UUID,
) ([]*account.Account, error) {
	if !principal.IsAdmin() {
		s.logger.Warn("ListUserAccounts denied", "principalID", principal.ID, "userID", userID)
		return nil, &domain.AccessDeniedError{PrincipalID: principal.ID, Resource: "user accounts", ResourceID: userID}
	}
	return s.list(ctx, dto.AccountFilter{UserID: userID})
}

func (s *Service) list(ctx context.Context, filter dto.AccountFilter) (accounts []*account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		accounts, err = repo.List(ctx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("ListAccounts failed", "userID", filter.UserID, "error", err)
		return nil, err
	}
	return accounts, nil
}

// CountAccounts returns how many accounts the principal holds.
func (s *Service) CountAccounts(ctx context.Context, principal domain.Principal) (n int64, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		n, err = repo.Count(ctx, dto.AccountFilter{UserID: principal.ID})
		return err
	})
	return n, err
}

// GetBalance returns the balance of one readable account.
func (s *Service) GetBalance(
	ctx context.Context,
	principal domain.Principal,
	id uuid.UUID,
) (*dto.AccountBalance, error) {
	acc, err := s.GetAccount(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return &dto.AccountBalance{AccountID: acc.ID, Balance: acc.Balance, Currency: acc.Currency}, nil
}

// TotalBalance sums the principal's ACTIVE accounts in code.
func (s *Service) TotalBalance(
	ctx context.Context,
	principal domain.Principal,
	code currency.Code,
) (*dto.TotalBalance, error) {
	if !code.IsSupported() {
		return nil, domain.InvalidOperation("unsupported currency " + code.String())
	}
	accounts, err := s.list(ctx, dto.AccountFilter{
		UserID:   principal.ID,
		Currency: code,
		Status:   account.StatusActive,
	})
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return &dto.TotalBalance{UserID: principal.ID, Currency: code, Total: total, Accounts: len(accounts)}, nil
}

// UpdateAccountStatus moves the principal's account to status. A CLOSED
// target goes through the close rules.
func (s *Service) UpdateAccountStatus(
	ctx context.Context,
	principal domain.Principal,
	id uuid.UUID,
	status account.Status,
) (*account.Account, error) {
	return s.transition(ctx, "UpdateAccountStatus", principal, id, func(acc *account.Account, at time.Time) error {
		return acc.ChangeStatus(status, at)
	})
}

// CloseAccount closes the principal's zero-balance account. CLOSED is terminal.
func (s *Service) CloseAccount(
	ctx context.Context,
	principal domain.Principal,
	id uuid.UUID,
) (*account.Account, error) {
	return s.transition(ctx, "CloseAccount", principal, id, func(acc *account.Account, at time.Time) error {
		return acc.Close(at)
	})
}

func (s *Service) transition(
	ctx context.Context,
	op string,
	principal domain.Principal,
	id uuid.UUID,
	apply func(acc *account.Account, at time.Time) error,
) (acc *account.Account, err error) {
	logger := s.logger.With("op", op, "userID", principal.ID, "accountID", id)
	logger.Info(op + " started")
	var from account.Status
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if acc, err = repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := acc.CheckOwner(principal); err != nil {
			return err
		}
		from = acc.Status
		if err := apply(acc, s.now()); err != nil {
			return err
		}
		return repo.Update(ctx, acc)
	})
	if err != nil {
		logger.Error(op+" failed", "error", err)
		return nil, err
	}
	logger.Info(op+" successful", "from", from, "to", acc.Status)
	if from != acc.Status {
		s.emit(ctx, &events.AccountStatusChanged{
			AccountID:  acc.ID,
			UserID:     acc.UserID,
			From:       string(from),
			To:         string(acc.Status),
			OccurredAt: acc.UpdatedAt,
		})
	}
	return acc, nil
}

func (s *Service) emit(ctx context.Context, evt events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", "type", evt.Type(), "error", err)
	}
}
