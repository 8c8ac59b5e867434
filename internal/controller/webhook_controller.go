package controller

import (
	"log"
	"strings"

	"issue-agent-be/internal/dto"
	"issue-agent-be/internal/pkg/serverutils"
	"issue-agent-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	HandleEvent(ctx *fiber.Ctx) error
}

type webhookController struct {
	service       service.IAgentService
	validate      *validator.Validate
	webhookSecret string
}

func NewWebhookController(service service.IAgentService, webhookSecret string) IWebhookController {
	return &webhookController{
		service:       service,
		validate:      validator.New(),
		webhookSecret: webhookSecret,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhook")
	h.Post("/", serverutils.WebhookSignatureMiddleware(c.webhookSecret), c.HandleEvent)
}

func (c *webhookController) HandleEvent(ctx *fiber.Ctx) error {
	var req dto.WebhookEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := c.validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	// Only issue events drive the agent. Everything else is acknowledged so
	// the tracker does not retry, and dropped.
	if !strings.HasPrefix(req.Type, "issue") {
		return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse(fiber.Map{
			"ignored": req.Type,
		}))
	}

	res, err := c.service.HandleWebhookEvent(ctx.Context(), &req)
	if err != nil {
		log.Printf("[Webhook] ERROR - Turn failed: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse(res))
}
