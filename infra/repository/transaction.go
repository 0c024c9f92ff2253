package repository

import (
	"context"
	"fmt"

	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm backed transaction log.
func NewTransactionRepository(db *gorm.DB) *transactionRepository {
	return &transactionRepository{db: db}
}

// Create appends tx. The log has no update path.
func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	m := mapTransactionToModel(tx)
	return mapGormError(r.db.WithContext(ctx).Create(&m).Error, nil)
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err, func() error { return fmt.Errorf("transaction %s: %w", id, err) })
	}
	return mapTransactionToDomain(&m), nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	var rows []Transaction
	err := r.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*account.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mapTransactionToDomain(&rows[i]))
	}
	return out, nil
}

func mapTransactionToModel(tx *account.Transaction) Transaction {
	return Transaction{
		ID:            tx.ID,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      string(tx.Currency),
		Description:   tx.Description,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt,
		CompletedAt:   tx.CompletedAt,
	}
}

func mapTransactionToDomain(m *Transaction) *account.Transaction {
	return &account.Transaction{
		ID:            m.ID,
		FromAccountID: m.FromAccountID,
		ToAccountID:   m.ToAccountID,
		Type:          account.TransactionType(m.Type),
		Amount:        m.Amount,
		Currency:      currency.Code(m.Currency),
		Description:   m.Description,
		Status:        account.TransactionStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
	}
}
