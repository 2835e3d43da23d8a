package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vision-chat/config"
	"vision-chat/internal/api/rest"
	"vision-chat/internal/api/telegram"
	app "vision-chat/internal/application"
	"vision-chat/internal/container"
	"vision-chat/internal/domain/port"
	"vision-chat/internal/infrastructure/llm"
	"vision-chat/internal/infrastructure/storage"
	"vision-chat/internal/infrastructure/vision"
	"vision-chat/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.NewFile(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logg.Close()

	if err := run(cfg, logg); err != nil {
		logg.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Хранилище файлов и записей
	media, err := storage.NewMediaStore(cfg.MediaDir)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}

	var records port.RecordRepository
	switch cfg.StoreBackend {
	case config.BackendMemory:
		records = storage.NewMemoryRecordRepository(media)
	default:
		db, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		records = storage.NewSQLiteRecordRepository(db, media)
	}

	// Детектор загружается один раз на процесс
	labels, err := vision.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}

	annotator := vision.NewAnnotator(cfg.FontPath, cfg.FontSize, cfg.JPEGQuality)
	if annotator.UsingFallbackFont() {
		logg.Warning("Font %s is unavailable, using built-in font: %v", cfg.FontPath, annotator.FontError())
	}

	detector, err := vision.NewYOLODetector(vision.DetectorConfig{
		ModelPath:           cfg.ModelPath,
		Labels:              labels,
		Workers:             cfg.InferenceWorkers,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NMSThreshold:        cfg.NMSThreshold,
	}, annotator, logg)
	if err != nil {
		return fmt.Errorf("load detector: %w", err)
	}
	defer detector.Close()

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	// Собираем сервисы приложения
	appContainer := container.New(container.Deps{
		Users:     storage.NewMemoryUserRepository(),
		Records:   records,
		Detector:  detector,
		Generator: generator,
		Models: app.ChatModels{
			Fast:    cfg.LLMFastModel,
			Capable: cfg.LLMCapableModel,
			Text:    cfg.LLMTextModel,
		},
		ChatTimeout: cfg.LLMTimeout(),
		Logger:      logg,
	})

	errCh := make(chan error, 2)

	server := rest.NewServer(appContainer, media.Dir(), logg)
	go func() {
		logg.Info("HTTP server listening on %s", cfg.HTTPAddr)
		errCh <- server.Listen(cfg.HTTPAddr)
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, logg)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		go func() {
			logg.Info("Bot is running...")
			errCh <- bot.Run(ctx)
		}()
	} else {
		logg.Info("TELEGRAM_TOKEN is not set, bot is disabled")
	}

	select {
	case <-ctx.Done():
		logg.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (port.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicGenerator(cfg.AnthropicAPIKey)
	default:
		return llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	}
}
