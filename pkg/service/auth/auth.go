// Package auth resolves callers into domain principals: it checks
// credentials and issues and reads the JWTs carried by API requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// dummyHash is compared against when the user does not exist so that unknown
// and known emails take the same time.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Strategy issues and reads tokens for authenticated users.
type Strategy interface {
	GenerateToken(ctx context.Context, u *user.User) (string, error)
	ParseToken(raw string) (*jwt.Token, error)
	Principal(token *jwt.Token) (domain.Principal, error)
}

type Service struct {
	uow      repository.UnitOfWork
	strategy Strategy
	logger   *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	strategy Strategy,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, strategy: strategy, logger: logger}
}

func NewWithJWT(
	uow repository.UnitOfWork,
	cfg *config.Jwt,
	logger *slog.Logger,
) *Service {
	return New(uow, NewJWTStrategy(cfg, logger), logger)
}

// Login checks email and password. Unknown emails and wrong passwords both
// fail with ErrInvalidCredentials; blocked users are refused with AccessDenied.
func (s *Service) Login(
	ctx context.Context,
	email, password string,
) (u *user.User, err error) {
	log := s.logger.With("context", "Login", "email", utils.MaskEmail(email))
	log.Debug("Login called")
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return fmt.Errorf("failed to get user repository: %w", err)
		}
		u, err = repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = utils.CheckPasswordHash(password, dummyHash)
			return domain.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if !utils.CheckPasswordHash(password, u.PasswordHash) {
			return domain.ErrInvalidCredentials
		}
		if u.IsBlocked() {
			return &domain.AccessDeniedError{PrincipalID: u.ID, Resource: "user", ResourceID: u.ID}
		}
		return nil
	})
	if err != nil {
		log.Error("Login failed", "error", err)
		return nil, err
	}
	log.Info("Login successful", "userID", u.ID)
	return u, nil
}

func (s *Service) GenerateToken(
	ctx context.Context,
	u *user.User,
) (string, error) {
	log := s.logger.With("userID", u.ID)
	token, err := s.strategy.GenerateToken(ctx, u)
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Debug("GenerateToken successful")
	return token, nil
}

// Principal resolves the caller of a verified token. The token only names
// the user: role and status are read from the store on every call, so a
// promotion or a block takes effect without waiting for a new token.
// Unknown users fail with ErrInvalidCredentials, blocked ones with
// AccessDenied.
func (s *Service) Principal(ctx context.Context, token *jwt.Token) (domain.Principal, error) {
	claimed, err := s.strategy.Principal(token)
	if err != nil {
		s.logger.Warn("Principal failed", "error", err)
		return domain.Principal{}, err
	}
	var u *user.User
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return fmt.Errorf("failed to get user repository: %w", err)
		}
		u, err = repo.Get(ctx, claimed.ID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	})
	if err != nil {
		s.logger.Warn("Principal failed", "userID", claimed.ID, "error", err)
		return domain.Principal{}, err
	}
	if u.IsBlocked() {
		s.logger.Warn("Principal refused: user blocked", "userID", u.ID)
		return domain.Principal{}, &domain.AccessDeniedError{PrincipalID: u.ID, Resource: "user", ResourceID: u.ID}
	}
	return u.Principal(), nil
}

// Authenticate verifies a raw token string and resolves its caller.
func (s *Service) Authenticate(ctx context.Context, raw string) (domain.Principal, error) {
	token, err := s.strategy.ParseToken(raw)
	if err != nil {
		s.logger.Warn("Authenticate failed", "error", err)
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	return s.Principal(ctx, token)
}

// JWTStrategy issues HS256 tokens with user_id, email, role and exp claims.
type JWTStrategy struct {
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

func NewJWTStrategy(cfg *config.Jwt, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{cfg: cfg, logger: logger, now: time.Now}
}

func (s *JWTStrategy) GenerateToken(_ context.Context, u *user.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"email":   u.Email,
		"role":    string(u.Role),
		"exp":     s.now().Add(s.cfg.Expiry).Unix(),
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *JWTStrategy) Principal(token *jwt.Token) (domain.Principal, error) {
	if token == nil {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	role := domain.RoleUser
	if r, _ := claims["role"].(string); domain.Role(r) == domain.RoleAdmin {
		role = domain.RoleAdmin
	}
	return domain.Principal{ID: id, Role: role}, nil
}

// ParseToken verifies a signed token string with the configured secret.
func (s *JWTStrategy) ParseToken(raw string) (*jwt.Token, error) {
	return jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now))
}
