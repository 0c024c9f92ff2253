package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Models carry no association fields; related rows are loaded through
// explicit repository lookups.

// User represents a user record in the database.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName    string    `gorm:"size:100;not null"`
	LastName     string    `gorm:"size:100;not null"`
	Email        string    `gorm:"size:254;not null;uniqueIndex"`
	Phone        string    `gorm:"size:12;not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:16;not null;default:'USER'"`
	Status       string    `gorm:"size:16;not null;default:'ACTIVE'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Account represents an account record in the database.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number    string          `gorm:"column:account_number;size:20;not null;uniqueIndex"`
	Type      string          `gorm:"size:16;not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(19,2);not null"`
	Status    string          `gorm:"size:16;not null;default:'ACTIVE'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Card represents a card record in the database.
type Card struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Number        string    `gorm:"column:card_number;size:16;not null;uniqueIndex"`
	HolderName    string    `gorm:"size:200;not null"`
	CVVHash       string    `gorm:"column:cvv_hash;not null"`
	ExpiryDate    time.Time `gorm:"not null"`
	Type          string    `gorm:"size:16;not null"`
	PaymentSystem string    `gorm:"size:16;not null"`
	Status        string    `gorm:"size:16;not null;default:'ACTIVE'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction represents a persisted ledger entry.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FromAccountID *uuid.UUID      `gorm:"type:uuid;index"`
	ToAccountID   *uuid.UUID      `gorm:"type:uuid;index"`
	Type          string          `gorm:"size:16;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(19,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Description   string          `gorm:"size:500"`
	Status        string          `gorm:"size:16;not null"`
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

func (User) TableName() string        { return "users" }
func (Account) TableName() string     { return "accounts" }
func (Card) TableName() string        { return "cards" }
func (Transaction) TableName() string { return "transactions" }
