package auth

import (
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	usersvc "github.com/amirasaad/bankledger/pkg/service/user"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the public authentication endpoints.
//
//   - POST /api/auth/register
//   - POST /api/auth/login
func Routes(app *fiber.App, authSvc *authsvc.Service, userSvc *usersvc.Service) {
	app.Post("/api/auth/register", Register(authSvc, userSvc))
	app.Post("/api/auth/login", Login(authSvc))
}

// Register creates a user and returns a token for it.
// @Summary Register a new user
// @Description Creates an ACTIVE user with role USER. Email and phone must be unique.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse
// @Failure 429 {object} common.ErrorResponse
// @Router /api/auth/register [post]
func Register(authSvc *authsvc.Service, userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RegisterRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		u, err := userSvc.Register(c.UserContext(), usersvc.Registration{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Password:  input.Password,
		})
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		token, err := authSvc.GenerateToken(c.UserContext(), u)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(TokenResponse{
			Token:  token,
			Type:   "Bearer",
			UserID: u.ID.String(),
			Email:  u.Email,
		})
	}
}

// Login checks credentials and returns a token.
// @Summary User login
// @Description Authenticate with email and password. Blocked users are refused.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 401 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 429 {object} common.ErrorResponse
// @Router /api/auth/login [post]
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		u, err := authSvc.Login(c.UserContext(), input.Email, input.Password)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		token, err := authSvc.GenerateToken(c.UserContext(), u)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(TokenResponse{
			Token:  token,
			Type:   "Bearer",
			UserID: u.ID.String(),
			Email:  u.Email,
		})
	}
}
