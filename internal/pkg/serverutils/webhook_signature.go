package serverutils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
)

// WebhookSignatureMiddleware verifies the tracker's HMAC-SHA256 signature over
// the raw request body. An empty secret disables verification (local setups).
func WebhookSignatureMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		signature := ctx.Get("X-Signature")
		if signature == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing signature"})
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(ctx.Body())
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid signature"})
		}

		return ctx.Next()
	}
}
