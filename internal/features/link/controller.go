package link

import (
	"time"

	"go-shareguard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LinkController struct {
	service LinkService
}

func NewLinkController(service LinkService) *LinkController {
	return &LinkController{service: service}
}

type createLinkRequest struct {
	RepoID    string   `json:"repo_id"`
	Path      string   `json:"path"`
	ExpireAt  string   `json:"expire_at"` // RFC 3339
	Receivers []string `json:"receivers"`
	Note      string   `json:"note"`
}

// CreateLink godoc
func (c *LinkController) CreateLink(ctx *fiber.Ctx) error {
	var req createLinkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.RepoID == "" || req.Path == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "repo_id and path are required"})
	}

	expireAt := time.Now().AddDate(0, 0, 7)
	if req.ExpireAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpireAt)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expire_at invalid"})
		}
		expireAt = parsed
	}

	owner := middleware.CurrentUser(ctx)
	l, err := c.service.CreateLink(ctx.Context(), req.RepoID, req.Path, owner, expireAt, req.Receivers, req.Note)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(l)
}

// GetLink godoc
func (c *LinkController) GetLink(ctx *fiber.Ctx) error {
	l, err := c.service.GetByToken(ctx.Context(), ctx.Params("token"))
	if err != nil {
		if err == ErrLinkNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(l)
}

// CheckAccess godoc
func (c *LinkController) CheckAccess(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	allowed, reason, err := c.service.CheckAccess(ctx.Context(), ctx.Params("token"), requester)
	if err != nil {
		if err == ErrLinkNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !allowed {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"allowed": false, "reason": reason})
	}
	return ctx.JSON(fiber.Map{"allowed": true})
}

// RecordDownload godoc
func (c *LinkController) RecordDownload(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	token := ctx.Params("token")

	allowed, reason, err := c.service.CheckAccess(ctx.Context(), token, requester)
	if err != nil {
		if err == ErrLinkNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !allowed {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"allowed": false, "reason": reason})
	}

	if err := c.service.RecordDownload(ctx.Context(), token); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"success": true})
}
