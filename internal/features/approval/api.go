package approval

import (
	"go-shareguard/internal/config"
	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApprovalApi struct {
	controller *ApprovalController
	config     *config.Config
}

func NewApprovalApi(controller *ApprovalController, config *config.Config) *ApprovalApi {
	return &ApprovalApi{
		controller: controller,
		config:     config,
	}
}

func (h *ApprovalApi) Setup(app *fiber.App) {
	api := app.Group("/api/approvals", middleware.AuthMiddleware(h.config.SkipAuth))

	api.Get("/:token", h.controller.GetApprovalInfo)
	api.Post("/:token/decision", h.controller.Decide)
}
