package repository

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/card"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a gorm backed card store.
func NewCardRepository(db *gorm.DB) *cardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(ctx context.Context, c *card.Card) error {
	m := mapCardToModel(c)
	return mapGormError(r.db.WithContext(ctx).Create(&m).Error, nil)
}

func (r *cardRepository) Update(ctx context.Context, c *card.Card) error {
	res := r.db.WithContext(ctx).Model(&Card{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"status":     string(c.Status),
			"updated_at": c.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.CardNotFoundError{CardID: c.ID}
	}
	return nil
}

func (r *cardRepository) Get(ctx context.Context, id uuid.UUID) (*card.Card, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *cardRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*card.Card, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *cardRepository) get(q *gorm.DB, id uuid.UUID) (*card.Card, error) {
	var m Card
	if err := q.First(&m, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err, func() error { return &domain.CardNotFoundError{CardID: id} })
	}
	return mapCardToDomain(&m), nil
}

func (r *cardRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Card{}).Where("card_number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *cardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*card.Card, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *cardRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*card.Card, error) {
	return r.list(r.db.WithContext(ctx).Where("account_id = ?", accountID))
}

func (r *cardRepository) list(q *gorm.DB) ([]*card.Card, error) {
	var rows []Card
	if err := q.Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*card.Card, 0, len(rows))
	for i := range rows {
		out = append(out, mapCardToDomain(&rows[i]))
	}
	return out, nil
}

func mapCardToModel(c *card.Card) Card {
	return Card{
		ID:            c.ID,
		AccountID:     c.AccountID,
		UserID:        c.UserID,
		Number:        c.Number,
		HolderName:    c.HolderName,
		CVVHash:       c.CVVHash,
		ExpiryDate:    c.ExpiryDate,
		Type:          string(c.Type),
		PaymentSystem: string(c.PaymentSystem),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func mapCardToDomain(m *Card) *card.Card {
	return &card.Card{
		ID:            m.ID,
		AccountID:     m.AccountID,
		UserID:        m.UserID,
		Number:        m.Number,
		HolderName:    m.HolderName,
		CVVHash:       m.CVVHash,
		ExpiryDate:    m.ExpiryDate,
		Type:          card.Type(m.Type),
		PaymentSystem: card.PaymentSystem(m.PaymentSystem),
		Status:        card.Status(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
