package port

import (
	"context"

	"vision-chat/internal/domain/entity"
)

// RecordRepository интерфейс хранилища записей анализа
type RecordRepository interface {
	// Create сохраняет оригинал и возвращает ID новой записи
	Create(ctx context.Context, original []byte) (string, error)

	// Update однократно записывает размеченное изображение и детекции
	Update(ctx context.Context, id string, annotated []byte, detections []entity.Detection) error

	// Get возвращает запись или entity.ErrNotFound
	Get(ctx context.Context, id string) (*entity.AnalysisRecord, error)
}
