package user

import (
	"errors"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/middleware"
	authsvc "github.com/amirasaad/bankledger/pkg/service/auth"
	usersvc "github.com/amirasaad/bankledger/pkg/service/user"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// ChangePasswordRequest is the body of PATCH /api/users/password.
type ChangePasswordRequest struct {
	OldPassword    string `json:"oldPassword" validate:"required"`
	NewPassword    string `json:"newPassword" validate:"required,max=128"`
	RepeatPassword string `json:"repeatPassword" validate:"required"`
}

func Routes(app *fiber.App, userSvc *usersvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Get("/api/users/me", middleware.JwtProtected(cfg.Auth.Jwt), Me(userSvc, authSvc))
	app.Patch("/api/users/password", middleware.JwtProtected(cfg.Auth.Jwt), ChangePassword(userSvc, authSvc))
}

// Me returns the caller's profile.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} common.UserView
// @Failure 401 {object} common.ErrorResponse
// @Router /api/users/me [get]
// @Security Bearer
func Me(userSvc *usersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		u, err := userSvc.Me(c.UserContext(), p)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.NewUserView(u))
	}
}

// ChangePassword replaces the caller's password.
// @Summary Change password
// @Description The old password must match; the new one must differ from it and equal the repeat.
// @Tags users
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} common.MessageResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 401 {object} common.ErrorResponse
// @Router /api/users/password [patch]
// @Security Bearer
func ChangePassword(userSvc *usersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[ChangePasswordRequest](c)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		err = userSvc.ChangePassword(c.UserContext(), p, input.OldPassword, input.NewPassword, input.RepeatPassword)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return common.ErrorJSON(c, &common.ValidationError{Message: "old password is incorrect"})
		}
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return c.JSON(common.MessageResponse{Message: "Password changed successfully"})
	}
}
