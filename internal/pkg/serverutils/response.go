package serverutils

import "github.com/gofiber/fiber/v2"

func ErrorResponse(code int, message string) fiber.Map {
	return fiber.Map{
		"code":    code,
		"message": message,
	}
}

func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"code": 200,
		"data": data,
	}
}
