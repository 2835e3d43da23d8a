package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"vision-chat/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для распознавания объектов на фотографиях.

📸 Отправьте мне фото, и я найду на нём объекты, а потом отвечу на ваши вопросы о нём.

📋 Команды:
/check — загрузить новое фото
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото
2️⃣ Бот найдёт объекты и пришлёт фото с рамками
3️⃣ Задавайте вопросы об изображении обычным текстом

💡 Рекомендации:
• Снимайте при хорошем освещении
• Фото должно быть чётким

📋 Команды:
/check — загрузить новое фото
/cancel — выйти из режима вопросов`

	msgAwaitingPhoto   = "📸 Отправьте фото для анализа."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для нового фото."
	msgSendPhoto       = "📸 Пожалуйста, сначала отправьте фото для анализа."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgStillProcessing = "⏳ Изображение ещё обрабатывается, подождите."
	msgNoObjects       = "🤷 Объекты не обнаружены."
	msgAskQuestion     = "💬 Задайте вопрос об этом изображении или отправьте новое фото."
	msgInvalidImage    = "⚠️ Не удалось прочитать изображение. Отправьте другой файл."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgImageLost       = "⚠️ Изображение не найдено. Отправьте фото ещё раз."
	msgChatError       = "⚠️ Не удалось получить ответ. Попробуйте ещё раз."

	// Telegram ограничивает подпись к фото.
	maxCaptionLength = 1024
)

// formatSummary описывает результат детекции для подписи к фото.
func formatSummary(record *entity.AnalysisRecord) string {
	var sb strings.Builder
	if len(record.Detections) == 0 {
		sb.WriteString(msgNoObjects)
	} else {
		fmt.Fprintf(&sb, "🔍 Найдено объектов: %d\n", len(record.Detections))
		for i, d := range record.Detections {
			fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, d.ClassName, d.ConfidencePercent())
		}
	}
	sb.WriteString("\n")
	sb.WriteString(msgAskQuestion)
	return truncate(sb.String(), maxCaptionLength)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
