package viewer

import (
	"errors"

	"github.com/MatFrancois/opotopo/internal/auth"
	"github.com/MatFrancois/opotopo/internal/filter"
	"github.com/MatFrancois/opotopo/internal/mapsync"

	"github.com/gofiber/fiber/v2"
)

const localViewer = "viewer"

// RegisterRoutes mounts the per-viewer table, filter and map routes. guards
// run first and must leave the viewer id in locals, as auth.JWTMiddleware does.
func RegisterRoutes(r fiber.Router, reg *Registry, guards ...fiber.Handler) {
	withViewer := func(c *fiber.Ctx) error {
		v, err := reg.Get(auth.ViewerID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		c.Locals(localViewer, v)
		return c.Next()
	}
	g := guarded{r: r, handlers: append(append([]fiber.Handler{}, guards...), withViewer)}

	g.Get("/table", func(c *fiber.Ctx) error {
		return c.JSON(current(c).Page(c.UserContext()))
	})

	g.Post("/table/draw", func(c *fiber.Ctx) error {
		var req DrawRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		return c.JSON(current(c).Draw(c.UserContext(), req))
	})

	g.Get("/filters", func(c *fiber.Ctx) error {
		return c.JSON(current(c).FilterState(c.UserContext()))
	})

	g.Post("/filters", func(c *fiber.Ctx) error {
		var form filter.Form
		if err := c.BodyParser(&form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		return c.JSON(current(c).ApplyFilters(c.UserContext(), form))
	})

	g.Post("/filters/clear", func(c *fiber.Ctx) error {
		return c.JSON(current(c).ClearFilters(c.UserContext()))
	})

	g.Post("/regions/toggle", func(c *fiber.Ctx) error {
		var req RegionRequest
		if err := c.BodyParser(&req); err != nil || req.Region == "" {
			return fiber.NewError(fiber.StatusBadRequest, "region required")
		}
		resp, err := current(c).ToggleRegion(c.UserContext(), req.Region)
		if errors.Is(err, filter.ErrUnknownRegion) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})

	g.Post("/regions/all", func(c *fiber.Ctx) error {
		return c.JSON(current(c).AllRegions(c.UserContext()))
	})

	g.Post("/map/load", func(c *fiber.Ctx) error {
		return c.JSON(current(c).LoadMap(c.UserContext()))
	})

	g.Get("/map", func(c *fiber.Ctx) error {
		return c.JSON(current(c).MapState(c.UserContext()))
	})

	g.Post("/map/click", func(c *fiber.Ctx) error {
		var req ClickRequest
		if err := c.BodyParser(&req); err != nil || req.RID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "rid required")
		}
		popup, err := current(c).Click(c.UserContext(), req)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(popup)
	})

	g.Post("/map/hover", func(c *fiber.Ctx) error {
		var req HoverRequest
		if err := c.BodyParser(&req); err != nil || req.RID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "rid required")
		}
		hover, err := current(c).Hover(c.UserContext(), req)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(hover)
	})
}

// guarded registers routes behind the token and viewer lookup without
// touching sibling routes of the same router.
type guarded struct {
	r        fiber.Router
	handlers []fiber.Handler
}

func (g guarded) Get(path string, h fiber.Handler) {
	g.r.Get(path, append(append([]fiber.Handler{}, g.handlers...), h)...)
}

func (g guarded) Post(path string, h fiber.Handler) {
	g.r.Post(path, append(append([]fiber.Handler{}, g.handlers...), h)...)
}

func current(c *fiber.Ctx) *Viewer {
	return c.Locals(localViewer).(*Viewer)
}

func mapError(err error) error {
	if errors.Is(err, mapsync.ErrNotDisplayed) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
