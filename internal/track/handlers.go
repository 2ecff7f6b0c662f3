package track

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var ErrNoTrack = errors.New("no track for this hike")

// Resolver finds the preferred track URL of a hike.
type Resolver interface {
	First(id string) (string, bool)
}

type Handler struct {
	tracks  Resolver
	fetcher *Fetcher
}

func NewHandler(tracks Resolver, fetcher *Fetcher) *Handler {
	return &Handler{tracks: tracks, fetcher: fetcher}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/:rid", h.geometry)
}

// geometry serves the GeoJSON of the first track of a hike.
func (h *Handler) geometry(c *fiber.Ctx) error {
	url, ok := h.tracks.First(c.Params("rid"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, ErrNoTrack.Error())
	}
	fc, err := h.fetcher.Load(c.UserContext(), url)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fc, "application/geo+json")
}
