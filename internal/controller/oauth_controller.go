package controller

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"issue-agent-be/internal/pkg/serverutils"
	"issue-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Authorize(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service service.ITokenService

	// Outstanding state nonces, expired after ten minutes.
	states *cache.Cache
}

func NewOAuthController(service service.ITokenService) IOAuthController {
	return &oauthController{
		service: service,
		states:  cache.New(10*time.Minute, time.Minute),
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/oauth")
	h.Get("/authorize", c.Authorize)
	h.Get("/callback", c.Callback)
}

func (c *oauthController) Authorize(ctx *fiber.Ctx) error {
	state, err := randomState()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "Failed to generate state"))
	}
	c.states.SetDefault(state, true)

	url := c.service.AuthCodeURL(state)
	log.Printf("[OAuth] Redirecting workspace operator to provider")
	return ctx.Redirect(url)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	state := ctx.Query("state")
	if _, found := c.states.Get(state); !found {
		log.Printf("[OAuth] ERROR - Unknown or expired state")
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid state"))
	}
	c.states.Delete(state)

	code := ctx.Query("code")
	if code == "" {
		log.Printf("[OAuth] ERROR - Missing authorization code")
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing code"))
	}

	_, workspaceID, err := c.service.ExchangeCode(ctx.Context(), code)
	if err != nil {
		log.Printf("[OAuth] ERROR - Code exchange failed: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	log.Printf("[OAuth] Workspace %s authorized", workspaceID)
	return ctx.Status(fiber.StatusOK).JSON(serverutils.SuccessResponse(fiber.Map{
		"workspace_id": workspaceID,
	}))
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
