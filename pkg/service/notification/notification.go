// Package notification tells users about money movement and card status
// changes. Messages are rendered as mail and handed to a Sender.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/google/uuid"
)

// Message is one outgoing notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of a mail server.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("notification sent", "to", utils.MaskEmail(msg.To), "subject", msg.Subject, "body", msg.Body)
	return nil
}

// Service turns events into messages for the affected user.
type Service struct {
	uow    repository.UnitOfWork
	sender Sender
	logger *slog.Logger
}

func NewService(uow repository.UnitOfWork, sender Sender, logger *slog.Logger) *Service {
	return &Service{uow: uow, sender: sender, logger: logger}
}

// Register subscribes the service to the events it notifies about.
func (s *Service) Register(bus eventbus.Bus) {
	bus.Register(events.EventTypeTransactionCompleted, s.HandleTransactionCompleted)
	bus.Register(events.EventTypeCardStatusChanged, s.HandleCardStatusChanged)
}

func (s *Service) HandleTransactionCompleted(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.TransactionCompleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", e)
	}
	return s.notify(ctx, evt.UserID,
		"Transaction completed",
		fmt.Sprintf("Your %s of %s %s was completed.", evt.Kind, evt.Amount.StringFixed(2), evt.Currency),
	)
}

func (s *Service) HandleCardStatusChanged(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.CardStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected event %T", e)
	}
	return s.notify(ctx, evt.UserID,
		"Card status changed",
		fmt.Sprintf("Your card %s is now %s.", evt.MaskedNumber, evt.Status),
	)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, subject, body string) error {
	var email string
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err := repo.Get(ctx, userID)
		if err != nil {
			return err
		}
		email = u.Email
		return nil
	})
	if err != nil {
		s.logger.Warn("notification skipped", "userID", userID, "error", err)
		return err
	}
	return s.sender.Send(ctx, Message{To: email, Subject: subject, Body: body})
}
