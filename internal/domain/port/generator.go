package port

import (
	"context"

	"vision-chat/internal/domain/entity"
)

// Generator интерфейс генеративной модели
type Generator interface {
	// Upload передаёт изображение сервису и возвращает ссылку для запроса генерации
	Upload(ctx context.Context, imagePath string) (*entity.UploadedImage, error)

	// Generate запрашивает ответ у модели; img == nil означает текстовый запрос
	Generate(ctx context.Context, model string, img *entity.UploadedImage, prompt string) (string, error)
}
