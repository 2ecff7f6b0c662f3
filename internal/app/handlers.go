package app

import (
	"errors"

	"github.com/MatFrancois/opotopo/internal/auth"
	"github.com/MatFrancois/opotopo/internal/mapsync"
	"github.com/MatFrancois/opotopo/internal/table"

	"github.com/gofiber/fiber/v2"
)

type BootstrapResponse struct {
	Regions      []string           `json:"regions"`
	Levels       []string           `json:"levels"`
	TableOptions table.Options      `json:"table_options"`
	Map          mapsync.MapOptions `json:"map"`
	Tracks       int                `json:"tracks"`
}

// Ready answers 503 with the banner while the catalogue is unavailable.
func (a *App) Ready() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, banner := a.Catalogue()
		if cat != nil {
			return c.Next()
		}
		if banner == nil {
			banner = NewBanner(ErrNotReady)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"banner": banner})
	}
}

func (a *App) RegisterRoutes(r fiber.Router, tokens *auth.Service) {
	r.Get("/bootstrap", a.Ready(), func(c *fiber.Ctx) error {
		cat, _ := a.Catalogue()
		a.mu.RLock()
		tracks := len(a.index)
		a.mu.RUnlock()
		return c.JSON(BootstrapResponse{
			Regions:      cat.Regions,
			Levels:       cat.Levels,
			TableOptions: cat.Options,
			Map:          mapsync.DefaultMapOptions(),
			Tracks:       tracks,
		})
	})

	r.Post("/viewers", a.Ready(), func(c *fiber.Ctx) error {
		v, err := a.viewers.Create()
		if errors.Is(err, ErrNotReady) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		token, err := tokens.Issue(v.ID)
		if err != nil {
			a.viewers.Remove(v.ID)
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(token)
	})
}
