package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const LocalViewerID = "viewer_id"

// JWTMiddleware validates the viewer token and stores viewer_id in locals.
// Websocket clients cannot set headers, so a token query parameter is
// accepted too.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := parseClaims(token, secretBytes)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(LocalViewerID, claims.ViewerID)
		return c.Next()
	}
}

// SameViewer rejects requests whose route parameter names another viewer
// than the token does.
func SameViewer(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ViewerID(c) != c.Params(param) {
			return fiber.NewError(fiber.StatusForbidden, "token does not match viewer")
		}
		return c.Next()
	}
}

func ViewerID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalViewerID).(string)
	return id
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
