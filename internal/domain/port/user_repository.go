package port

import (
	"context"

	"vision-chat/internal/domain/entity"
)

// UserRepository хранит состояние диалога пользователей бота
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние и привязанное изображение
	Save(ctx context.Context, user *entity.User) error
}
