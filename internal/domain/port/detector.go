package port

import (
	"context"

	"vision-chat/internal/domain/entity"
)

// Detector интерфейс детектора объектов
type Detector interface {
	// Detect запускает модель на изображении по пути и возвращает детекции и размеченную копию
	Detect(ctx context.Context, imagePath string) (*entity.DetectionOutput, error)
}
