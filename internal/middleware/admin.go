package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mmoforge/skillstore/internal/config"
	"github.com/mmoforge/skillstore/internal/dto"
)

// AdminRequired guards the maintenance routes. It accepts either the static
// X-Admin-Token header or a JWT bearer (signed with ADMIN_JWT_SECRET) whose
// role claim is "admin". With neither configured the routes stay closed.
func AdminRequired(cfg *config.Config) fiber.Handler {
	var jwtCheck fiber.Handler
	if cfg.AdminJWTSecret != "" {
		jwtCheck = jwtware.New(jwtware.Config{
			SigningKey: jwtware.SigningKey{Key: []byte(cfg.AdminJWTSecret)},
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized: invalid or expired token",
				})
			},
			SuccessHandler: func(c *fiber.Ctx) error {
				token, ok := c.Locals("user").(*jwt.Token)
				if !ok || token == nil {
					return forbidden(c)
				}
				claims, ok := token.Claims.(jwt.MapClaims)
				if !ok {
					return forbidden(c)
				}
				if role, _ := claims["role"].(string); role != "admin" {
					return forbidden(c)
				}
				return c.Next()
			},
		})
	}

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}
		if jwtCheck != nil {
			return jwtCheck(c)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: "Admin access required",
	})
}
