package app

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
	"vision-chat/internal/logger"
)

// AnalysisService сохраняет загруженные изображения и запускает на них детектор.
type AnalysisService struct {
	records  port.RecordRepository
	detector port.Detector
	log      *logger.Logger
}

// NewAnalysisService создаёт сервис анализа изображений.
func NewAnalysisService(records port.RecordRepository, detector port.Detector, log *logger.Logger) *AnalysisService {
	if log == nil {
		log = logger.Discard()
	}
	return &AnalysisService{records: records, detector: detector, log: log}
}

// Analyze сохраняет оригинал, запускает детекцию и записывает результат.
// При ошибке детекции запись остаётся необработанной и возвращается вместе с ошибкой.
func (s *AnalysisService) Analyze(ctx context.Context, data []byte) (*entity.AnalysisRecord, error) {
	if len(data) == 0 {
		return nil, entity.InputError("no image provided")
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, entity.InputError("unsupported file type %s", mt.String())
	}

	id, err := s.records.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.detector.Detect(ctx, record.OriginalImage)
	if err != nil {
		if !errors.Is(err, entity.ErrInvalidInput) && !errors.Is(err, entity.ErrDetection) {
			err = entity.DetectionError(err)
		}
		s.log.Error("detection failed for %s: %v", id, err)
		return record, err
	}

	if err := s.records.Update(ctx, id, out.Annotated, out.Detections); err != nil {
		return record, err
	}
	s.log.Info("image %s analyzed: %d objects detected", id, len(out.Detections))

	return s.records.Get(ctx, id)
}

// Get возвращает запись анализа по ID.
func (s *AnalysisService) Get(ctx context.Context, id string) (*entity.AnalysisRecord, error) {
	return s.records.Get(ctx, id)
}
