package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"vision-chat/internal/container"
	"vision-chat/internal/logger"
)

const (
	mediaPrefix = "/media"
	bodyLimit   = 20 * 1024 * 1024
)

// NewServer собирает приложение Fiber с маршрутами API и раздачей медиафайлов.
func NewServer(app *container.Container, mediaDir string, log *logger.Logger) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               "vision-chat",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	server.Use(recover.New())

	h := NewHandler(app, log)

	server.Get("/health", h.Health)

	api := server.Group("/api")
	api.Post("/detect", h.Detect)
	api.Post("/chat", h.Chat)
	api.Get("/images/:id", h.GetImage)

	server.Static(mediaPrefix, mediaDir)

	return server
}

func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		log.Error("%s %s: %v", c.Method(), c.Path(), err)

		return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
	}
}
