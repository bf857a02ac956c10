package link

import (
	"go-shareguard/internal/config"
	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LinkApi struct {
	controller *LinkController
	config     *config.Config
}

func NewLinkApi(controller *LinkController, config *config.Config) *LinkApi {
	return &LinkApi{
		controller: controller,
		config:     config,
	}
}

func (h *LinkApi) Setup(app *fiber.App) {
	links := app.Group("/api/share-links", middleware.AuthMiddleware(h.config.SkipAuth))

	links.Post("/", h.controller.CreateLink)
	links.Get("/:token", h.controller.GetLink)
	links.Get("/:token/access", h.controller.CheckAccess)
	links.Post("/:token/download", h.controller.RecordDownload)
}
