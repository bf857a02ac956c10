package report

import (
	"go-shareguard/internal/config"
	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	admin := app.Group("/api/admin/reports", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireAdmin())

	admin.Get("/share-links", h.controller.ExportShareLinks)
}
