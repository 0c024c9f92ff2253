package repository

import (
	"context"
	"strings"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a gorm backed user store.
func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := mapUserToModel(u)
	err := r.db.WithContext(ctx).Create(&m).Error
	if IsDuplicate(err) {
		return &domain.UserAlreadyExistsError{Field: "email or phone", Value: u.Email}
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"first_name":    u.FirstName,
			"last_name":     u.LastName,
			"password_hash": u.PasswordHash,
			"role":          string(u.Role),
			"status":        string(u.Status),
			"updated_at":    u.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.UserNotFoundError{Key: u.ID.String()}
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err, func() error { return &domain.UserNotFoundError{Key: id.String()} })
	}
	return mapUserToDomain(&m), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(email)
	var m User
	if err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		return nil, mapGormError(err, func() error { return &domain.UserNotFoundError{Key: email} })
	}
	return mapUserToDomain(&m), nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", strings.ToLower(email)).Count(&n).Error
	return n > 0, err
}

func (r *userRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("phone = ?", phone).Count(&n).Error
	return n > 0, err
}

func mapUserToModel(u *user.User) User {
	return User{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func mapUserToDomain(m *User) *user.User {
	return &user.User{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Status:       user.Status(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
