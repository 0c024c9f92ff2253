// Package testutils holds the HTTP test harness shared by the webapi suites.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/infra"
	infraeventbus "github.com/amirasaad/bankledger/infra/eventbus"
	infrarepo "github.com/amirasaad/bankledger/infra/repository"
	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/app"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/repository"
	usersvc "github.com/amirasaad/bankledger/pkg/service/user"
	"github.com/amirasaad/bankledger/pkg/utils"
	"github.com/amirasaad/bankledger/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

const DefaultPassword = "password123"

var phoneSeq atomic.Int64

// TestUser is a registered user with a live token.
type TestUser struct {
	ID    uuid.UUID
	Email string
	Token string
}

// WebAPITestSuite runs the full fiber app on the in-memory store. Every test
// gets a fresh store, bus and app.
type WebAPITestSuite struct {
	suite.Suite
	App  *fiber.App
	Core *app.App
	Cfg  *config.App
	Bus  *infraeventbus.MemoryEventBus
	UoW  repository.UnitOfWork
}

// TestConfig is an app configuration suitable for handler tests.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{MaxRequests: 10_000, Window: time.Minute},
		Card:      &config.Card{ValidityYears: 5},
	}
}

func (s *WebAPITestSuite) SetupSuite() {
	utils.SetHashCost(bcrypt.MinCost)
}

func (s *WebAPITestSuite) SetupTest() {
	if s.Cfg == nil {
		s.Cfg = TestConfig()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Bus = infraeventbus.NewWithMemory(logger)
	s.UoW = memory.NewUoW(memory.NewStore())
	s.Core = app.New(config.Deps{Uow: s.UoW, EventBus: s.Bus, Logger: logger, Config: s.Cfg})
	s.App = webapi.SetupApp(s.Core, nil)
}

// MakeRequest sends a request through the app. body may be a string or any
// value encodable as JSON.
func (s *WebAPITestSuite) MakeRequest(method, path string, body any, token string) *http.Response {
	return MakeRequest(s.T(), s.App, method, path, body, token)
}

// MakeRequest sends a request through app, failing t on transport errors.
func MakeRequest(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	return resp
}

// Decode reads a JSON response body into T and closes it.
func Decode[T any](s *suite.Suite, resp *http.Response) T {
	defer resp.Body.Close() //nolint:errcheck
	var out T
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// RegisterUser registers a fresh user over HTTP and returns its token.
func (s *WebAPITestSuite) RegisterUser() TestUser {
	email, phone := nextIdentity()
	resp := s.MakeRequest(fiber.MethodPost, "/api/auth/register", map[string]string{
		"firstName": "Ivan",
		"lastName":  "Petrov",
		"email":     email,
		"phone":     phone,
		"password":  DefaultPassword,
	}, "")
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	out := Decode[struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}](&s.Suite, resp)
	return TestUser{ID: uuid.MustParse(out.UserID), Email: email, Token: out.Token}
}

// CreateAdmin registers an ADMIN directly through the user service.
func (s *WebAPITestSuite) CreateAdmin() TestUser {
	ctx := context.Background()
	email, phone := nextIdentity()
	u, err := s.Core.UserService.CreateAdmin(ctx, usersvc.Registration{
		FirstName: "Anna",
		LastName:  "Admin",
		Email:     email,
		Phone:     phone,
		Password:  DefaultPassword,
	})
	s.Require().NoError(err)
	token, err := s.Core.AuthService.GenerateToken(ctx, u)
	s.Require().NoError(err)
	return TestUser{ID: u.ID, Email: email, Token: token}
}

// Login logs in over HTTP and returns the raw response.
func (s *WebAPITestSuite) Login(email, password string) *http.Response {
	return s.MakeRequest(fiber.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
}

// OpenAccount opens an account for token and returns its id and number.
func (s *WebAPITestSuite) OpenAccount(token, typ, currency string) (id, number string) {
	resp := s.MakeRequest(fiber.MethodPost, "/api/accounts", map[string]string{
		"type":     typ,
		"currency": currency,
	}, token)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	out := Decode[struct {
		ID            string `json:"id"`
		AccountNumber string `json:"accountNumber"`
	}](&s.Suite, resp)
	return out.ID, out.AccountNumber
}

// Deposit credits amount to accountID and requires success.
func (s *WebAPITestSuite) Deposit(token, accountID, amount string) {
	resp := s.MakeRequest(fiber.MethodPost, "/api/transactions/deposit", map[string]string{
		"accountId": accountID,
		"amount":    amount,
	}, token)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
}

func nextIdentity() (email, phone string) {
	n := phoneSeq.Add(1)
	return fmt.Sprintf("user%d_%s@example.com", n, uuid.NewString()[:8]), fmt.Sprintf("+7999%07d", n)
}

// E2ETestSuite runs the app against a real Postgres started with
// testcontainers. It is skipped in short mode or without Docker.
type E2ETestSuite struct {
	WebAPITestSuite
	pgContainer *tcpostgres.PostgresContainer
	dsn         string
	closeDB     func() error
}

func (s *E2ETestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping postgres container suite in short mode")
	}
	s.WebAPITestSuite.SetupSuite()
	ctx := context.Background()
	pg, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("bankledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		s.T().Skipf("docker not available: %v", err)
	}
	s.pgContainer = pg
	s.dsn, err = pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
}

func (s *E2ETestSuite) SetupTest() {
	s.Cfg = TestConfig()
	s.Cfg.DB = &config.DB{Driver: "postgres", Url: s.dsn}
	db, err := infra.NewDBConnection(s.Cfg.DB, s.Cfg.Env)
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	s.closeDB = sqlDB.Close
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Require().NoError(infra.RunMigrations(db, logger))
	s.Require().NoError(db.Exec("TRUNCATE transactions, cards, accounts, users CASCADE").Error)

	s.Bus = infraeventbus.NewWithMemory(logger)
	s.UoW = infrarepo.NewUoW(db)
	s.Core = app.New(config.Deps{Uow: s.UoW, EventBus: s.Bus, Logger: logger, Config: s.Cfg})
	s.App = webapi.SetupApp(s.Core, nil)
}

func (s *E2ETestSuite) TearDownTest() {
	if s.closeDB != nil {
		_ = s.closeDB()
	}
}

func (s *E2ETestSuite) TearDownSuite() {
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}
