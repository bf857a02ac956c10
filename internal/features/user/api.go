package user

import (
	"go-shareguard/internal/config"
	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	admin := app.Group("/api/admin", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireAdmin())

	admin.Post("/users", h.controller.CreateUser)
	admin.Put("/companies/:company/security-group", h.controller.SetSecurityGroup)
}
