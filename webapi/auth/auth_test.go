package auth_test

import (
	"context"
	"testing"

	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/amirasaad/bankledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type AuthTestSuite struct {
	testutils.WebAPITestSuite
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func (s *AuthTestSuite) TestRegister() {
	body := map[string]string{
		"firstName": "Ivan",
		"lastName":  "Petrov",
		"email":     "ivan@example.com",
		"phone":     "+79991234567",
		"password":  "secret",
	}

	s.Run("creates user and returns bearer token", func() {
		resp := s.MakeRequest(fiber.MethodPost, "/api/auth/register", body, "")
		s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
		out := testutils.Decode[map[string]string](&s.Suite, resp)
		s.Equal("Bearer", out["type"])
		s.Equal("ivan@example.com", out["email"])
		s.NotEmpty(out["token"])
		s.NotEmpty(out["userId"])
	})

	s.Run("duplicate email conflicts", func() {
		dup := map[string]string{}
		for k, v := range body {
			dup[k] = v
		}
		dup["phone"] = "+79990000001"
		resp := s.MakeRequest(fiber.MethodPost, "/api/auth/register", dup, "")
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusConflict, resp.StatusCode)
	})

	s.Run("bad phone is rejected", func() {
		bad := map[string]string{
			"firstName": "Ivan",
			"lastName":  "Petrov",
			"email":     "other@example.com",
			"phone":     "89991234567",
			"password":  "secret",
		}
		resp := s.MakeRequest(fiber.MethodPost, "/api/auth/register", bad, "")
		s.Require().Equal(fiber.StatusBadRequest, resp.StatusCode)
		out := testutils.Decode[common.ErrorResponse](&s.Suite, resp)
		s.Contains(out.Message, "phone")
		s.Equal("/api/auth/register", out.Path)
	})

	s.Run("malformed body", func() {
		resp := s.MakeRequest(fiber.MethodPost, "/api/auth/register", "{", "")
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	})
}

func (s *AuthTestSuite) TestLogin() {
	u := s.RegisterUser()

	s.Run("valid credentials", func() {
		resp := s.Login(u.Email, testutils.DefaultPassword)
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)
		out := testutils.Decode[map[string]string](&s.Suite, resp)
		s.Equal(u.ID.String(), out["userId"])
		s.NotEmpty(out["token"])
	})

	s.Run("wrong password", func() {
		resp := s.Login(u.Email, "nope")
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("unknown email", func() {
		resp := s.Login("ghost@example.com", testutils.DefaultPassword)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("blocked user is refused", func() {
		_, err := s.Core.UserService.Block(context.Background(), u.Email)
		s.Require().NoError(err)
		resp := s.Login(u.Email, testutils.DefaultPassword)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusForbidden, resp.StatusCode)
	})
}
