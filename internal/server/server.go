package server

import (
	"context"
	"net/http"
	"time"

	"github.com/MatFrancois/opotopo/internal/app"
	"github.com/MatFrancois/opotopo/internal/auth"
	"github.com/MatFrancois/opotopo/internal/config"
	"github.com/MatFrancois/opotopo/internal/db"
	"github.com/MatFrancois/opotopo/internal/hike"
	"github.com/MatFrancois/opotopo/internal/stream"
	"github.com/MatFrancois/opotopo/internal/track"
	"github.com/MatFrancois/opotopo/internal/viewer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const fetchTimeout = 30 * time.Second

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Tokens  *auth.Service
	Tracks  *track.Fetcher
	Catalog *app.App
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client) *Server {
	fiberApp := fiber.New()
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	client := &http.Client{Timeout: fetchTimeout}
	fetcher := track.NewFetcher(client, cfg.TrackProxy, cfg.TrackFetchRPS, track.NewCache(redisClient, cfg.TrackCacheTTL))
	hub := stream.NewHub(redisClient)

	s := &Server{
		App:     fiberApp,
		Cfg:     cfg,
		DB:      pg,
		Redis:   redisClient,
		Stream:  hub,
		Tokens:  auth.NewService(cfg.JWTSecret, cfg.ViewerIdleTimeout),
		Tracks:  fetcher,
		Catalog: app.New(cfg, newLoader(cfg, pg, client), client, fetcher, hub),
	}
	hub.SetGreeter(s.Catalog.Greeting)

	registerRoutes(s)
	return s
}

// newLoader picks the catalogue source. Postgres is used only when asked for
// and connected.
func newLoader(cfg config.Config, pg *pgxpool.Pool, client *http.Client) hike.Loader {
	if cfg.DataSource == "postgres" && pg != nil {
		return hike.NewPostgresLoader(pg)
	}
	return hike.NewJSONLoader(client, cfg.DataPath)
}

// Start loads the catalogue and starts dropping idle viewers. A load failure
// is reported through the banner, not returned.
func (s *Server) Start(ctx context.Context) {
	_ = s.Catalog.Bootstrap(ctx)
	go s.Catalog.Janitor(ctx)
}

func (s *Server) Close() {
	_ = s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"stores": db.Status(c.UserContext(), s.DB, s.Redis),
		})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	api := s.App.Group("/api")

	s.Catalog.RegisterRoutes(api, s.Tokens)
	auth.RegisterRoutes(api.Group("/auth"), s.Tokens, s.Catalog.Viewers().Exists)
	viewer.RegisterRoutes(api, s.Catalog.Viewers(), s.Catalog.Ready(), jwtMiddleware)
	track.NewHandler(s.Catalog, s.Tracks).RegisterRoutes(api.Group("/tracks", s.Catalog.Ready()))
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware, auth.SameViewer("viewerID"))
}
