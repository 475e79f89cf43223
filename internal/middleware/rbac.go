package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/smart-student-hub/internal/utils"
)

// RequireRole admits only principals holding one of roles. Role names outside
// student, faculty and admin are ignored, so RequireRole("guest") admits no one.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if canonical := canonicalRole(role); canonical != "" {
			allowed[canonical] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[roleFrom(c)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func roleFrom(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalUserRole).(string)
	return canonicalRole(role)
}

func userIDFrom(c *fiber.Ctx) uint {
	switch id := c.Locals(LocalUserID).(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	}
	return 0
}
