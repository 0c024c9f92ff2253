package common

import (
	"errors"

	"github.com/amirasaad/bankledger/pkg/domain"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CurrentPrincipal resolves the caller of the token JwtProtected stored.
// Blocked users get 403, tokens of unknown users 401.
func CurrentPrincipal(c *fiber.Ctx, authSvc *authsvc.Service) (domain.Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return domain.Principal{}, fiber.NewError(fiber.StatusUnauthorized, "missing user context")
	}
	p, err := authSvc.Principal(c.UserContext(), token)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, domain.ErrAccessDenied):
		return domain.Principal{}, err
	case errors.Is(err, domain.ErrInvalidCredentials):
		return domain.Principal{}, fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
	default:
		return domain.Principal{}, err
	}
}

// ParseID reads a UUID path parameter.
func ParseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, &ValidationError{Message: param + " must be a valid UUID"}
	}
	return id, nil
}
