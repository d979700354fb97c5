// file: internals/helpers/token.go
package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var ErrNoUserInContext = errors.New("user id tidak ada di context")

// GetUserUUID mengambil user_id yang ditaruh middleware auth di Locals.
func GetUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Locals("user_id")
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, ErrNoUserInContext
		}
		return id, nil
	default:
		return uuid.Nil, ErrNoUserInContext
	}
}

// GetUserRole mengambil role dari Locals (kosong jika tidak ada).
func GetUserRole(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_role").(string); ok {
		return v
	}
	return ""
}
