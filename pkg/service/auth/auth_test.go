package auth_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/internal/fixtures/mocks"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/user"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	utils.SetHashCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

var jwtCfg = &config.Jwt{Secret: "test-secret", Expiry: time.Hour}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("Anna", "Smirnova", "anna@example.com", "+79001112233", "password1")
	require.NoError(t, err)
	return u
}

func setup(t *testing.T) (*authsvc.Service, *mocks.MockUnitOfWork, *mocks.MockUserRepository) {
	t.Helper()
	uow := mocks.NewMockUnitOfWork()
	repo := mocks.NewMockUserRepository()
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("UserRepository").Return(repo, nil)
	t.Cleanup(func() {
		uow.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
	return authsvc.NewWithJWT(uow, jwtCfg, discard()), uow, repo
}

func TestLogin_Success(t *testing.T) {
	svc, _, repo := setup(t)
	u := newUser(t)
	repo.On("GetByEmail", mock.Anything, "anna@example.com").Return(u, nil).Once()

	got, err := svc.Login(context.Background(), " Anna@Example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, repo := setup(t)
	repo.On("GetByEmail", mock.Anything, "anna@example.com").Return(newUser(t), nil).Once()

	_, err := svc.Login(context.Background(), "anna@example.com", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, repo := setup(t)
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, &domain.UserNotFoundError{Key: "ghost@example.com"}).Once()

	_, err := svc.Login(context.Background(), "ghost@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_BlockedUser(t *testing.T) {
	svc, _, repo := setup(t)
	u := newUser(t)
	u.Status = user.StatusBlocked
	repo.On("GetByEmail", mock.Anything, "anna@example.com").Return(u, nil).Once()

	_, err := svc.Login(context.Background(), "anna@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _, repo := setup(t)
	strategy := authsvc.NewJWTStrategy(jwtCfg, discard())
	u := newUser(t)
	u.Role = domain.RoleAdmin
	repo.On("Get", mock.Anything, u.ID).Return(u, nil).Once()

	raw, err := svc.GenerateToken(context.Background(), u)
	require.NoError(t, err)

	token, err := strategy.ParseToken(raw)
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, u.Email, claims["email"])
	assert.Equal(t, "ADMIN", claims["role"])

	p, err := svc.Principal(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{ID: u.ID, Role: domain.RoleAdmin}, p)

	_, err = authsvc.NewJWTStrategy(&config.Jwt{Secret: "other", Expiry: time.Hour}, discard()).ParseToken(raw)
	assert.Error(t, err)
}

func TestPrincipal_ReadsRoleAndStatusFromStore(t *testing.T) {
	ctx := context.Background()
	svc, _, repo := setup(t)
	u := newUser(t)

	raw, err := svc.GenerateToken(ctx, u)
	require.NoError(t, err)

	promoted := *u
	promoted.Role = domain.RoleAdmin
	repo.On("Get", mock.Anything, u.ID).Return(&promoted, nil).Once()
	p, err := svc.Authenticate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role, "role follows the store, not the USER claim")

	blocked := *u
	blocked.Status = user.StatusBlocked
	repo.On("Get", mock.Anything, u.ID).Return(&blocked, nil).Once()
	_, err = svc.Authenticate(ctx, raw)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	repo.On("Get", mock.Anything, u.ID).Return(nil, domain.ErrUserNotFound).Once()
	_, err = svc.Authenticate(ctx, raw)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	svc := authsvc.NewWithJWT(mocks.NewMockUnitOfWork(), jwtCfg, discard())

	_, err := svc.Authenticate(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	other := authsvc.NewWithJWT(mocks.NewMockUnitOfWork(), &config.Jwt{Secret: "other", Expiry: time.Hour}, discard())
	raw, err := other.GenerateToken(context.Background(), newUser(t))
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestPrincipal_BadClaims(t *testing.T) {
	strategy := authsvc.NewJWTStrategy(jwtCfg, discard())

	_, err := strategy.Principal(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = strategy.Principal(&jwt.Token{Claims: jwt.MapClaims{"user_id": "not-a-uuid"}})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = strategy.Principal(&jwt.Token{Claims: jwt.MapClaims{}})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	id := uuid.New()
	p, err := strategy.Principal(&jwt.Token{Claims: jwt.MapClaims{"user_id": id.String(), "role": "ROOT"}})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role, "unknown roles fall back to USER")
}
