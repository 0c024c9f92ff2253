// Package card implements the card registry: issuing cards against
// accounts, blocking and unblocking them, and reading them back.
package card

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/google/uuid"
)

const defaultValidityYears = 5

// Service is the card registry.
type Service struct {
	uow      repository.UnitOfWork
	bus      eventbus.Bus
	logger   *slog.Logger
	validity int
	now      func() time.Time
	draw     func() (string, error)
}

// NewService creates a card service.
func NewService(deps config.Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validity := defaultValidityYears
	if deps.Config != nil {
		validity = deps.Config.CardValidityYears()
	}
	return &Service{
		uow:      deps.Uow,
		bus:      deps.EventBus,
		logger:   logger,
		validity: validity,
		now:      func() time.Time { return time.Now().UTC() },
		draw:     DrawNumber,
	}
}

// DrawNumber returns a random 16-digit card number.
func DrawNumber() (string, error) {
	head, err := utils.RandomInt(0, 1_000_000_000)
	if err != nil {
		return "", err
	}
	tail, err := utils.RandomInt(0, 10_000_000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%09d%07d", head, tail), nil
}

func drawCVV() (string, error) {
	n, err := utils.RandomInt(100, 999)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

// CreateCard issues an ACTIVE card on accountID. The card belongs to the
// account owner and carries the owner's name. The verification code is only
// stored hashed.
func (s *Service) CreateCard(
	ctx context.Context,
	principal domain.Principal,
	accountID uuid.UUID,
	typ card.Type,
	system card.PaymentSystem,
) (c *card.Card, err error) {
	logger := s.logger.With("userID", principal.ID, "accountID", accountID, "type", typ, "paymentSystem", system)
	logger.Info("CreateCard started")
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
		if acc.IsClosed() {
			return domain.InvalidOperation("cannot issue a card on a closed account")
		}
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		owner, err := users.Get(ctx, acc.UserID)
		if err != nil {
			return err
		}
		cards, err := uow.CardRepository()
		if err != nil {
			return err
		}
		number, err := utils.UniqueNumber(ctx, s.draw, cards.ExistsByNumber, domain.ErrNumberGenerationExhausted)
		if err != nil {
			return err
		}
		cvv, err := drawCVV()
		if err != nil {
			return err
		}
		cvvHash, err := utils.HashSecret(cvv)
		if err != nil {
			return err
		}
		c, err = card.New(card.Params{
			AccountID:     acc.ID,
			UserID:        acc.UserID,
			Number:        number,
			HolderName:    owner.FullName(),
			CVVHash:       cvvHash,
			Type:          typ,
			PaymentSystem: system,
			ValidYears:    s.validity,
			Now:           s.now(),
		})
		if err != nil {
			return domain.InvalidOperation(err.Error())
		}
		return cards.Create(ctx, c)
	})
	if err != nil {
		logger.Error("CreateCard failed", "error", err)
		return nil, err
	}
	masked := utils.MaskCardNumber(c.Number)
	logger.Info("CreateCard successful", "cardID", c.ID, "number", masked)
	s.emit(ctx, &events.CardIssued{
		CardID:       c.ID,
		AccountID:    c.AccountID,
		UserID:       c.UserID,
		MaskedNumber: masked,
		OccurredAt:   c.CreatedAt,
	})
	return c, nil
}

// BlockCard blocks a card. Blocking a blocked card fails with CardAlreadyBlocked.
func (s *Service) BlockCard(ctx context.Context, principal domain.Principal, id uuid.UUID) (*card.Card, error) {
	return s.transition(ctx, "BlockCard", principal, id, (*card.Card).Block)
}

// UnblockCard reactivates a blocked, unexpired card.
func (s *Service) UnblockCard(ctx context.Context, principal domain.Principal, id uuid.UUID) (*card.Card, error) {
	return s.transition(ctx, "UnblockCard", principal, id, (*card.Card).Unblock)
}

func (s *Service) transition(
	ctx context.Context,
	op string,
	principal domain.Principal,
	id uuid.UUID,
	apply func(c *card.Card, at time.Time) error,
) (c *card.Card, err error) {
	logger := s.logger.With("op", op, "userID", principal.ID, "cardID", id)
	logger.Info(op + " started")
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		cards, err := uow.CardRepository()
		if err != nil {
			return err
		}
		if c, err = cards.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := c.CheckAccess(principal); err != nil {
			return err
		}
		if err := apply(c, s.now()); err != nil {
			return err
		}
		return cards.Update(ctx, c)
	})
	if err != nil {
		logger.Error(op+" failed", "error", err)
		return nil, err
	}
	logger.Info(op+" successful", "status", c.Status)
	s.emit(ctx, &events.CardStatusChanged{
		CardID:       c.ID,
		UserID:       c.UserID,
		MaskedNumber: utils.MaskCardNumber(c.Number),
		Status:       string(c.Status),
		OccurredAt:   c.UpdatedAt,
	})
	return c, nil
}

// GetCard returns a card visible to the principal.
func (s *Service) GetCard(ctx context.Context, principal domain.Principal, id uuid.UUID) (c *card.Card, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		cards, err := uow.CardRepository()
		if err != nil {
			return err
		}
		if c, err = cards.Get(ctx, id); err != nil {
			return err
		}
		return c.CheckAccess(principal)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCards lists the principal's cards.
func (s *Service) ListCards(ctx context.Context, principal domain.Principal) ([]*card.Card, error) {
	return s.listByUser(ctx, principal.ID)
}

// ListUserCards lists any user's cards. Admin only.
func (s *Service) ListUserCards(ctx context.Context, principal domain.Principal, userID uuid.UUID) ([]*card.Card, error) {
	if !principal.IsAdmin() {
		s.logger.Warn("ListUserCards denied", "principalID", principal.ID, "userID", userID)
		return nil, &domain.AccessDeniedError{PrincipalID: principal.ID, Resource: "user cards", ResourceID: userID}
	}
	return s.listByUser(ctx, userID)
}

func (s *Service) listByUser(ctx context.Context, userID uuid.UUID) (list []*card.Card, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		cards, err := uow.CardRepository()
		if err != nil {
			return err
		}
		list, err = cards.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		s.logger.Error("ListCards failed", "userID", userID, "error", err)
		return nil, err
	}
	return list, nil
}

// GetCardBalance returns the balance of the account behind a card.
func (s *Service) GetCardBalance(ctx context.Context, principal domain.Principal, id uuid.UUID) (bal *dto.CardBalance, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		cards, err := uow.CardRepository()
		if err != nil {
			return err
		}
		c, err := cards.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := c.CheckAccess(principal); err != nil {
			return err
		}
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.Get(ctx, c.AccountID)
		if err != nil {
			return err
		}
		bal = &dto.CardBalance{CardID: c.ID, AccountID: acc.ID, Balance: acc.Balance, Currency: acc.Currency}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// Now is the clock used for derived card status.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) emit(ctx context.Context, evt events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", "type", evt.Type(), "error", err)
	}
}
