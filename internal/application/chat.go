package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
	"vision-chat/internal/logger"
)

const chatErrorPrefix = "AI Error: "

// ChatModels имена моделей для каждого уровня
type ChatModels struct {
	Fast    string
	Capable string
	Text    string
}

// ChatOutcome итог прохода по уровням.
type ChatOutcome struct {
	Answer   string
	Tiers    []entity.TierResult // попытки в порядке выполнения
	Degraded bool                // ответ получен без изображения
	Err      error               // оборачивает entity.ErrChatService, если все уровни упали
}

// ChatService отвечает на вопросы об изображении с учётом детекций.
type ChatService struct {
	records   port.RecordRepository
	generator port.Generator
	models    ChatModels
	timeout   time.Duration
	log       *logger.Logger
}

// NewChatService создаёт сервис чата. timeout ограничивает каждый внешний вызов; 0 — без ограничения.
func NewChatService(records port.RecordRepository, generator port.Generator, models ChatModels, timeout time.Duration, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.Discard()
	}
	return &ChatService{
		records:   records,
		generator: generator,
		models:    models,
		timeout:   timeout,
		log:       log,
	}
}

// Chat находит запись и отвечает на вопрос о ней.
// Ошибки уровней генерации не возвращаются, они попадают в текст ответа.
func (s *ChatService) Chat(ctx context.Context, imageID, question string) (string, error) {
	imageID = strings.TrimSpace(imageID)
	question = strings.TrimSpace(question)
	if imageID == "" || question == "" {
		return "", entity.InputError("image_id and question are required")
	}

	record, err := s.records.Get(ctx, imageID)
	if err != nil {
		return "", err
	}

	return s.Answer(ctx, record.OriginalImage, record.Detections, question), nil
}

// Answer возвращает ответ модели или текст ошибки, никогда не падает.
func (s *ChatService) Answer(ctx context.Context, imagePath string, dets []entity.Detection, question string) string {
	return s.Run(ctx, imagePath, dets, question).Answer
}

// Run последовательно пробует уровни: быстрая модель, сильная модель, текстовая модель.
// Каждый мультимодальный уровень загружает изображение заново.
func (s *ChatService) Run(ctx context.Context, imagePath string, dets []entity.Detection, question string) ChatOutcome {
	var out ChatOutcome

	for _, tier := range []entity.ChatTier{entity.TierFast, entity.TierCapable, entity.TierTextOnly} {
		res := s.attempt(ctx, tier, imagePath, dets, question)
		out.Tiers = append(out.Tiers, res)
		if res.OK() {
			out.Answer = res.Text
			out.Degraded = !tier.Multimodal()
			if out.Degraded {
				s.log.Info("chat answered by text-only model %s", res.Model)
			}
			return out
		}
		s.log.Warning("chat tier %s (%s) failed: %v", tier, res.Model, res.Err)
	}

	out.Answer = compositeFailure(out.Tiers)
	out.Err = fmt.Errorf("%w: %s", entity.ErrChatService, strings.TrimPrefix(out.Answer, chatErrorPrefix))
	s.log.Error("chat failed on all tiers: %v", out.Err)
	return out
}

func (s *ChatService) model(tier entity.ChatTier) string {
	switch tier {
	case entity.TierFast:
		return s.models.Fast
	case entity.TierCapable:
		return s.models.Capable
	default:
		return s.models.Text
	}
}

// attempt делает ровно одну попытку на уровне tier.
func (s *ChatService) attempt(ctx context.Context, tier entity.ChatTier, imagePath string, dets []entity.Detection, question string) entity.TierResult {
	res := entity.TierResult{Tier: tier, Model: s.model(tier)}

	if !tier.Multimodal() {
		res.Text, res.Err = s.generate(ctx, res.Model, nil, BuildTextOnlyPrompt(dets, question))
		return res
	}

	uploadCtx, cancel := s.withTimeout(ctx)
	img, err := s.generator.Upload(uploadCtx, imagePath)
	cancel()
	if err != nil {
		res.Err = fmt.Errorf("upload: %w", err)
		return res
	}

	res.Text, res.Err = s.generate(ctx, res.Model, img, BuildPrompt(dets, question))
	return res
}

func (s *ChatService) generate(ctx context.Context, model string, img *entity.UploadedImage, prompt string) (string, error) {
	genCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.generator.Generate(genCtx, model, img, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}
	return text, nil
}

func (s *ChatService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// compositeFailure собирает текст ошибки из всех трёх попыток.
func compositeFailure(tiers []entity.TierResult) string {
	errText := func(t entity.ChatTier) string {
		for _, r := range tiers {
			if r.Tier == t && r.Err != nil {
				return r.Err.Error()
			}
		}
		return "not attempted"
	}
	return fmt.Sprintf("%simage analysis failed (fast: %s; capable: %s); text fallback failed: %s",
		chatErrorPrefix, errText(entity.TierFast), errText(entity.TierCapable), errText(entity.TierTextOnly))
}
