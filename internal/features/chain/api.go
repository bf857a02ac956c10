package chain

import (
	"go-shareguard/internal/config"
	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ChainApi struct {
	controller *ChainController
	config     *config.Config
}

func NewChainApi(controller *ChainController, config *config.Config) *ChainApi {
	return &ChainApi{
		controller: controller,
		config:     config,
	}
}

func (h *ChainApi) Setup(app *fiber.App) {
	admin := app.Group("/api/admin", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireAdmin())

	admin.Get("/approval-chains", h.controller.CountDepartmentChains)
	admin.Put("/approval-chains", h.controller.ReplaceDepartmentChains)

	admin.Get("/user-approval-chains", h.controller.CountUserChains)
	admin.Put("/user-approval-chains", h.controller.ReplaceUserChains)
	admin.Get("/user-approval-chains/:email", h.controller.GetUserChain)
	admin.Post("/user-approval-chains/:email", h.controller.SetUserChain)
	admin.Delete("/user-approval-chains/:email", h.controller.DeleteUserChain)
}
