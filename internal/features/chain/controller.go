package chain

import (
	"github.com/gofiber/fiber/v2"
)

type ChainController struct {
	service ChainService
}

func NewChainController(service ChainService) *ChainController {
	return &ChainController{service: service}
}

type replaceChainsRequest struct {
	Chains []string `json:"chains"`
}

// CountDepartmentChains godoc
func (c *ChainController) CountDepartmentChains(ctx *fiber.Ctx) error {
	count, err := c.service.CountDepartments(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"count": count})
}

// ReplaceDepartmentChains godoc
func (c *ChainController) ReplaceDepartmentChains(ctx *fiber.Ctx) error {
	var req replaceChainsRequest
	if err := ctx.BodyParser(&req); err != nil || len(req.Chains) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chains invalid"})
	}

	success, failed := c.service.ReplaceDepartmentChains(ctx.Context(), req.Chains)
	return ctx.JSON(fiber.Map{"success": success, "failed": failed})
}

// CountUserChains godoc
func (c *ChainController) CountUserChains(ctx *fiber.Ctx) error {
	count, err := c.service.CountUsers(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"count": count})
}

// ReplaceUserChains godoc
func (c *ChainController) ReplaceUserChains(ctx *fiber.Ctx) error {
	var req replaceChainsRequest
	if err := ctx.BodyParser(&req); err != nil || len(req.Chains) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chains invalid"})
	}

	success, failed := c.service.ReplaceUserChains(ctx.Context(), req.Chains)
	return ctx.JSON(fiber.Map{"success": success, "failed": failed})
}

// GetUserChain godoc
func (c *ChainController) GetUserChain(ctx *fiber.Ctx) error {
	email := ctx.Params("email")
	stored, err := c.service.GetUserChain(ctx.Context(), email)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if stored == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "chain not found"})
	}
	return ctx.JSON(fiber.Map{"user": stored.User, "chain": stored.Steps.String()})
}

type setUserChainRequest struct {
	Chain string `json:"chain"`
}

// SetUserChain godoc
func (c *ChainController) SetUserChain(ctx *fiber.Ctx) error {
	email := ctx.Params("email")
	var req setUserChainRequest
	if err := ctx.BodyParser(&req); err != nil || req.Chain == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chain invalid"})
	}

	stored, err := c.service.ReplaceUserChain(ctx.Context(), email, req.Chain)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"user": email, "chain": stored.String()})
}

// DeleteUserChain godoc
func (c *ChainController) DeleteUserChain(ctx *fiber.Ctx) error {
	email := ctx.Params("email")
	stored, err := c.service.GetUserChain(ctx.Context(), email)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if stored == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "chain not found"})
	}
	if err := c.service.DeleteUserChain(ctx.Context(), email); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"success": true})
}
