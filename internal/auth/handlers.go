package auth

import (
	"github.com/gofiber/fiber/v2"
)

type RefreshRequest struct {
	Token string `json:"token"`
}

// RegisterRoutes mounts token refresh and verification. exists reports
// whether a viewer is still live; expired viewers cannot refresh.
func RegisterRoutes(r fiber.Router, svc *Service, exists func(viewerID string) bool) {
	r.Post("/refresh", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token required")
		}

		viewerID, err := svc.Validate(req.Token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if exists != nil && !exists(viewerID) {
			return fiber.NewError(fiber.StatusUnauthorized, "viewer expired")
		}

		resp, err := svc.Issue(viewerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		viewerID, err := svc.Validate(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"viewer_id": viewerID})
	})
}
