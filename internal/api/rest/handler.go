package rest

import (
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vision-chat/internal/container"
	"vision-chat/internal/domain/entity"
	"vision-chat/internal/logger"
)

const (
	msgNoImage         = "No image provided"
	msgChatFieldsError = "image_id and question are required"
	msgNotFound        = "Not found."
)

// Handler обрабатывает запросы REST API
type Handler struct {
	app      *container.Container
	validate *validator.Validate
	log      *logger.Logger
}

// NewHandler создаёт обработчики поверх сервисов приложения
func NewHandler(app *container.Container, log *logger.Logger) *Handler {
	return &Handler{
		app:      app,
		validate: validator.New(),
		log:      log,
	}
}

// Detect принимает изображение в поле image, запускает анализ и возвращает запись.
func (h *Handler) Detect(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msgNoImage})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msgNoImage})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	record, err := h.app.AnalysisService.Analyze(c.UserContext(), data)
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case err != nil:
		h.log.Error("detect %s: %v", fh.Filename, err)
		resp := ErrorResponse{Error: err.Error()}
		if record != nil {
			resp.ID = record.ID
		}
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(toRecordResponse(record))
}

// Chat отвечает на вопрос об изображении. Сбои моделей возвращаются текстом ответа со статусом 200.
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msgChatFieldsError})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msgChatFieldsError})
	}

	answer, err := h.app.ChatService.Chat(c.UserContext(), req.ImageID, req.Question)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: msgNotFound})
	case errors.Is(err, entity.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msgChatFieldsError})
	case err != nil:
		return err
	}

	return c.JSON(ChatResponse{Answer: answer})
}

// GetImage возвращает запись анализа по ID.
func (h *Handler) GetImage(c *fiber.Ctx) error {
	record, err := h.app.AnalysisService.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, entity.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: msgNotFound})
	}
	if err != nil {
		return err
	}
	return c.JSON(toRecordResponse(record))
}

// Health сообщает, что сервис запущен.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
