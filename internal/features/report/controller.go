package report

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// ExportShareLinks godoc
func (c *ReportController) ExportShareLinks(ctx *fiber.Ctx) error {
	end := time.Now()
	start := end.AddDate(0, -1, 0)

	if q := ctx.Query("start"); q != "" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start invalid, want YYYY-MM-DD"})
		}
		start = t
	}
	if q := ctx.Query("end"); q != "" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end invalid, want YYYY-MM-DD"})
		}
		// Inclusive end of day.
		end = t.Add(24*time.Hour - time.Second)
	}
	if end.Before(start) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end before start"})
	}

	data, filename, err := c.ReportService.ExportShareLinks(ctx.Context(), start, end)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Send(data)
}
