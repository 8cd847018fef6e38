package http

import (
	"errors"

	"vote-preview/internal/config"
	mid "vote-preview/internal/http/middleware"
	"vote-preview/internal/page"
	"vote-preview/internal/preview"
	red "vote-preview/internal/redis"
	"vote-preview/internal/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct{ *fiber.App }

// Deps are the services behind the routes. Redis may be nil.
type Deps struct {
	Redis    *redis.Client
	Tokens   *tokens.Service
	Previews *preview.Service
	Pages    *page.Renderer
}

type errorBody struct {
	Error string `json:"error"`
}

func NewServer(cfg config.Config, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// cached keys and artifacts outlive the request buffers
		Immutable:    true,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(mid.RequestLogger())
	app.Use(mid.RateLimit(cfg, deps.Redis))

	// liveness & readiness
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/readyz", func(c *fiber.Ctx) error {
		if err := red.Ping(c.UserContext(), deps.Redis); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "redis not ready")
		}
		return c.SendString("ready")
	})

	tokensH := tokens.NewHandler(deps.Tokens)
	app.Get("/api/token/:address", tokensH.GetOne)
	app.Get("/api/trending", tokensH.Trending)

	previewH := preview.NewHandler(deps.Previews)
	app.Get("/og/:file", previewH.Image)

	app.Get("/*", page.Handler(deps.Pages))

	return &Server{app}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(errorBody{Error: err.Error()})
}
