package common

import (
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/google/uuid"
)

// Money amounts are rendered as fixed two-decimal strings.

type AccountView struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"accountNumber"`
	AccountType   string    `json:"accountType"`
	Currency      string    `json:"currency"`
	Balance       string    `json:"balance"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewAccountView(a *account.Account) AccountView {
	return AccountView{
		ID:            a.ID,
		AccountNumber: a.Number,
		AccountType:   string(a.Type),
		Currency:      a.Currency.String(),
		Balance:       a.Balance.StringFixed(2),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

func NewAccountViews(list []*account.Account) []AccountView {
	views := make([]AccountView, 0, len(list))
	for _, a := range list {
		views = append(views, NewAccountView(a))
	}
	return views
}

type TransactionView struct {
	ID            uuid.UUID  `json:"id"`
	FromAccountID *uuid.UUID `json:"fromAccountId"`
	ToAccountID   *uuid.UUID `json:"toAccountId"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

func NewTransactionView(tx *account.Transaction) TransactionView {
	return TransactionView{
		ID:            tx.ID,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Type:          string(tx.Type),
		Amount:        tx.Amount.StringFixed(2),
		Currency:      tx.Currency.String(),
		Description:   tx.Description,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt,
		CompletedAt:   tx.CompletedAt,
	}
}

func NewTransactionViews(list []*account.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(list))
	for _, tx := range list {
		views = append(views, NewTransactionView(tx))
	}
	return views
}

// CardView never carries the full number or the verification code.
type CardView struct {
	ID             uuid.UUID `json:"id"`
	CardNumber     string    `json:"cardNumber"`
	CardHolderName string    `json:"cardHolderName"`
	ExpiryDate     string    `json:"expiryDate"`
	CardType       string    `json:"cardType"`
	PaymentSystem  string    `json:"paymentSystem"`
	CardStatus     string    `json:"cardStatus"`
	AccountID      uuid.UUID `json:"accountId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewCardView reports the status as of now, so expired cards show EXPIRED.
func NewCardView(c *card.Card, now time.Time) CardView {
	return CardView{
		ID:             c.ID,
		CardNumber:     utils.MaskCardNumber(c.Number),
		CardHolderName: c.HolderName,
		ExpiryDate:     c.ExpiryDate.Format(time.DateOnly),
		CardType:       string(c.Type),
		PaymentSystem:  string(c.PaymentSystem),
		CardStatus:     string(c.EffectiveStatus(now)),
		AccountID:      c.AccountID,
		CreatedAt:      c.CreatedAt,
	}
}

func NewCardViews(list []*card.Card, now time.Time) []CardView {
	views := make([]CardView, 0, len(list))
	for _, c := range list {
		views = append(views, NewCardView(c, now))
	}
	return views
}

type UserView struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserView(u *user.User) UserView {
	return UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}
