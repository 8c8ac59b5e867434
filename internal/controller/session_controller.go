package controller

import (
	"log"

	"issue-agent-be/internal/dto"
	"issue-agent-be/internal/pkg/serverutils"
	"issue-agent-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	GetActivities(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
}

type sessionController struct {
	service  service.IAgentService
	validate *validator.Validate
}

func NewSessionController(service service.IAgentService) ISessionController {
	return &sessionController{
		service:  service,
		validate: validator.New(),
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions", serverutils.JwtMiddleware)
	h.Get("/:id/activities", c.GetActivities)
	h.Delete("/:id", c.Delete)
	h.Post("/cleanup", c.Cleanup)
}

func (c *sessionController) GetActivities(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	activities, err := c.service.GetSessionActivities(ctx.Context(), sessionID)
	if err != nil {
		log.Printf("[Session] ERROR - Failed to read activities: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse(activities))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	if err := c.service.DeleteSession(ctx.Context(), sessionID); err != nil {
		log.Printf("[Session] ERROR - Failed to delete session: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *sessionController) Cleanup(ctx *fiber.Ctx) error {
	var req dto.CleanupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := c.validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.CleanupSessions(ctx.Context(), &req)
	if err != nil {
		log.Printf("[Session] ERROR - Cleanup failed: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse(res))
}
