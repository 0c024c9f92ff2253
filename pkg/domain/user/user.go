package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/google/uuid"
)

// Status is the login state of a user.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

var phonePattern = regexp.MustCompile(`^\+7\d{10}$`)

// User represents a bank customer or administrator.
type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         domain.Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates an ACTIVE user with role USER and a hashed password.
func NewUser(firstName, lastName, email, phone, password string) (*User, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	if firstName == "" || lastName == "" {
		return nil, errors.New("first and last name are required")
	}
	if !utils.IsEmail(email) {
		return nil, errors.New("invalid email")
	}
	if !phonePattern.MatchString(phone) {
		return nil, errors.New("phone must match +7XXXXXXXXXX")
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Phone:        phone,
		PasswordHash: hashed,
		Role:         domain.RoleUser,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FullName is "First Last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Principal returns the identity used for service calls.
func (u *User) Principal() domain.Principal {
	return domain.Principal{ID: u.ID, Role: u.Role}
}

func (u *User) IsBlocked() bool { return u.Status == StatusBlocked }

// ChangePassword replaces the password hash after checking the old password
// and that the new one differs and was repeated correctly.
func (u *User) ChangePassword(oldPassword, newPassword, repeat string) error {
	if !utils.CheckPasswordHash(oldPassword, u.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if newPassword == oldPassword {
		return domain.InvalidOperation("new password must differ from the old one")
	}
	if newPassword != repeat {
		return domain.InvalidOperation("new password and repeat do not match")
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hashed
	u.UpdatedAt = time.Now().UTC()
	return nil
}
