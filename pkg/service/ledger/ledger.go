// Package ledger moves money between accounts. Every operation runs in one
// unit of work with the touched account rows locked, and appends exactly one
// immutable transaction record when it succeeds.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service implements deposits, withdrawals, transfers and history.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a ledger service from the shared dependencies.
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
	}
}

// Deposit credits amount to the principal's account.
func (s *Service) Deposit(
	ctx context.Context,
	principal domain.Principal,
	accountID uuid.UUID,
	amount decimal.Decimal,
	description string,
) (tx *account.Transaction, err error) {
	logger := s.logger.With("op", "Deposit", "userID", principal.ID, "accountID", accountID, "amount", amount)
	logger.Info("Deposit started")
	if err = account.ValidateAmount(amount); err != nil {
		logger.Warn("Deposit failed: invalid amount", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err := acc.ValidateDeposit(principal, amount); err != nil {
			return err
		}
		now := s.now()
		acc.Credit(amount, now)
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		tx = account.NewDeposit(acc, amount, description, now)
		return appendTransaction(ctx, uow, tx)
	})
	if err != nil {
		logger.Error("Deposit failed", "error", err)
		return nil, err
	}
	logger.Info("Deposit successful", "transactionID", tx.ID)
	s.publish(ctx, principal, tx)
	return tx, nil
}

// Withdraw debits amount from the principal's account.
func (s *Service) Withdraw(
	ctx context.Context,
	principal domain.Principal,
	accountID uuid.UUID,
	amount decimal.Decimal,
	description string,
) (tx *account.Transaction, err error) {
	logger := s.logger.With("op", "Withdraw", "userID", principal.ID, "accountID", accountID, "amount", amount)
	logger.Info("Withdraw started")
	if err = account.ValidateAmount(amount); err != nil {
		logger.Warn("Withdraw failed: invalid amount", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err := acc.ValidateWithdraw(principal, amount); err != nil {
			return err
		}
		now := s.now()
		if err := acc.Debit(amount, now); err != nil {
			return err
		}
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		tx = account.NewWithdrawal(acc, amount, description, now)
		return appendTransaction(ctx, uow, tx)
	})
	if err != nil {
		logger.Error("Withdraw failed", "error", err)
		return nil, err
	}
	logger.Info("Withdraw successful", "transactionID", tx.ID)
	s.publish(ctx, principal, tx)
	return tx, nil
}

// Transfer moves amount from the principal's account to the account with
// number toNumber. Both rows are locked in ascending id order before any
// balance rule is checked.
func (s *Service) Transfer(
	ctx context.Context,
	principal domain.Principal,
	fromAccountID uuid.UUID,
	toNumber string,
	amount decimal.Decimal,
	description string,
) (tx *account.Transaction, err error) {
	logger := s.logger.With(
		"op", "Transfer",
		"userID", principal.ID,
		"fromAccountID", fromAccountID,
		"to", utils.MaskAccountNumber(toNumber),
		"amount", amount,
	)
	logger.Info("Transfer started")

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		src, err := accounts.Get(ctx, fromAccountID)
		if err != nil {
			return err
		}
		if err := src.CheckOwner(principal); err != nil {
			return err
		}
		dst, err := accounts.GetByNumber(ctx, toNumber)
		if err != nil {
			return err
		}

		locked, err := accounts.LockForUpdate(ctx, src.ID, dst.ID)
		if err != nil {
			return err
		}
		if src = locked[src.ID]; src == nil {
			return domain.AccountNotFoundByID(fromAccountID)
		}
		if dst = locked[dst.ID]; dst == nil {
			return domain.AccountNotFoundByNumber(toNumber)
		}
		if err := src.ValidateTransfer(dst, amount); err != nil {
			return err
		}

		now := s.now()
		if err := src.Debit(amount, now); err != nil {
			return err
		}
		dst.Credit(amount, now)
		if err := accounts.Update(ctx, src); err != nil {
			return err
		}
		if err := accounts.Update(ctx, dst); err != nil {
			return err
		}
		tx = account.NewTransfer(src, dst, amount, description, now)
		return appendTransaction(ctx, uow, tx)
	})
	if err != nil {
		logger.Error("Transfer failed", "error", err)
		return nil, err
	}
	logger.Info("Transfer successful", "transactionID", tx.ID)
	s.publish(ctx, principal, tx)
	return tx, nil
}

// History lists the transactions touching an account, newest first.
// The owner and admins may read it.
func (s *Service) History(
	ctx context.Context,
	principal domain.Principal,
	accountID uuid.UUID,
) (txs []*account.Transaction, err error) {
	logger := s.logger.With("op", "History", "userID", principal.ID, "accountID", accountID)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if err := acc.CheckReadable(principal); err != nil {
			return err
		}
		transactions, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, err = transactions.ListByAccount(ctx, accountID)
		return err
	})
	if err != nil {
		logger.Error("History failed", "error", err)
		return nil, err
	}
	logger.Debug("History successful", "count", len(txs))
	return txs, nil
}

func appendTransaction(ctx context.Context, uow repository.UnitOfWork, tx *account.Transaction) error {
	transactions, err := uow.TransactionRepository()
	if err != nil {
		return err
	}
	return transactions.Create(ctx, tx)
}

// publish runs after commit; a failure here never undoes the operation.
func (s *Service) publish(ctx context.Context, principal domain.Principal, tx *account.Transaction) {
	if s.bus == nil {
		return
	}
	evt := &events.TransactionCompleted{
		TransactionID: tx.ID,
		UserID:        principal.ID,
		Kind:          string(tx.Type),
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount,
		Currency:      tx.Currency.String(),
		OccurredAt:    tx.CreatedAt,
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", "type", evt.Type(), "transactionID", tx.ID, "error", err)
	}
}
