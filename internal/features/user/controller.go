package user

import (
	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{service: service}
}

// CreateUser godoc
func (c *UserController) CreateUser(ctx *fiber.Ctx) error {
	var u User
	if err := ctx.BodyParser(&u); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body invalid"})
	}

	if err := c.service.CreateUser(ctx.Context(), &u); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(u)
}

type setSecurityGroupRequest struct {
	Members []string `json:"members"`
}

// SetSecurityGroup godoc
func (c *UserController) SetSecurityGroup(ctx *fiber.Ctx) error {
	company := ctx.Params("company")
	var req setSecurityGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body invalid"})
	}

	if err := c.service.SetSecurityGroup(ctx.Context(), company, req.Members); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"success": true})
}
