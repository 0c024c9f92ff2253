package repository

import (
	"bytes"
	"context"
	"sort"

	"github.com/amirasaad/bankledger/pkg/currency"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a gorm backed account store.
func NewAccountRepository(db *gorm.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	return mapGormError(r.db.WithContext(ctx).Create(&m).Error, nil)
}

// Update writes the mutable columns of a.
func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	res := r.db.WithContext(ctx).Model(&Account{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"balance":    a.Balance,
			"status":     string(a.Status),
			"updated_at": a.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.AccountNotFoundByID(a.ID)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err, func() error { return domain.AccountNotFoundByID(id) })
	}
	return mapAccountToDomain(&m), nil
}

func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "account_number = ?", number).Error; err != nil {
		return nil, mapGormError(err, func() error { return domain.AccountNotFoundByNumber(number) })
	}
	return mapAccountToDomain(&m), nil
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, mapGormError(err, func() error { return domain.AccountNotFoundByID(id) })
	}
	return mapAccountToDomain(&m), nil
}

// LockForUpdate issues one SELECT ... ORDER BY id FOR UPDATE so rows are
// locked in ascending id order regardless of argument order.
func (r *accountRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	sorted := sortedUnique(ids)
	var rows []Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*account.Account, len(rows))
	for i := range rows {
		out[rows[i].ID] = mapAccountToDomain(&rows[i])
	}
	return out, nil
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Account{}).Where("account_number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *accountRepository) List(ctx context.Context, filter dto.AccountFilter) ([]*account.Account, error) {
	var rows []Account
	if err := applyAccountFilter(r.db.WithContext(ctx), filter).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*account.Account, 0, len(rows))
	for i := range rows {
		out = append(out, mapAccountToDomain(&rows[i]))
	}
	return out, nil
}

func (r *accountRepository) Count(ctx context.Context, filter dto.AccountFilter) (int64, error) {
	var n int64
	err := applyAccountFilter(r.db.WithContext(ctx).Model(&Account{}), filter).Count(&n).Error
	return n, err
}

func applyAccountFilter(q *gorm.DB, f dto.AccountFilter) *gorm.DB {
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Currency != "" {
		q = q.Where("currency = ?", string(f.Currency))
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	return q
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func mapAccountToModel(a *account.Account) Account {
	return Account{
		ID:        a.ID,
		UserID:    a.UserID,
		Number:    a.Number,
		Type:      string(a.Type),
		Currency:  string(a.Currency),
		Balance:   a.Balance,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func mapAccountToDomain(m *Account) *account.Account {
	return &account.Account{
		ID:        m.ID,
		UserID:    m.UserID,
		Number:    m.Number,
		Type:      account.Type(m.Type),
		Currency:  currency.Code(m.Currency),
		Balance:   m.Balance,
		Status:    account.Status(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
