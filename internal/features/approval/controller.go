package approval

import (
	"errors"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApprovalController struct {
	service ApprovalService
}

func NewApprovalController(service ApprovalService) *ApprovalController {
	return &ApprovalController{service: service}
}

// GetApprovalInfo godoc
func (c *ApprovalController) GetApprovalInfo(ctx *fiber.Ctx) error {
	info, err := c.service.Info(ctx.Context(), ctx.Params("token"))
	if err != nil {
		if errors.Is(err, link.ErrLinkNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(info)
}

type decideRequest struct {
	Pass     bool   `json:"pass"`
	Msg      string `json:"msg"`
	Identity string `json:"identity"`
}

// Decide godoc
func (c *ApprovalController) Decide(ctx *fiber.Ctx) error {
	var req decideRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body invalid"})
	}

	// The authenticated user decides; the identity field only works for the
	// unauthenticated test deployments.
	identity := middleware.CurrentUser(ctx)
	if identity == "" {
		identity = req.Identity
	}
	if identity == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identity missing"})
	}

	decision := common_models.StatusVeto
	if req.Pass {
		decision = common_models.StatusPass
	}

	err := c.service.Decide(ctx.Context(), ctx.Params("token"), identity, decision, req.Msg)
	switch {
	case err == nil:
		return ctx.JSON(fiber.Map{"success": true})
	case errors.Is(err, link.ErrLinkNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
	case errors.Is(err, ErrUnknownReviewer):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyDecided):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
