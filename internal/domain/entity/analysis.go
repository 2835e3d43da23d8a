package entity

import "time"

// AnalysisRecord хранит результат анализа одного загруженного изображения.
type AnalysisRecord struct {
	ID             string
	OriginalImage  string // локальный путь к оригиналу
	AnnotatedImage string // локальный путь к размеченной копии, пусто до завершения детекции
	Detections     []Detection
	CreatedAt      time.Time
}

// Processed сообщает, завершилась ли детекция для записи.
// Пустые AnnotatedImage/Detections означают "ещё не обработано", а не ошибку.
func (r *AnalysisRecord) Processed() bool {
	return r.AnnotatedImage != ""
}

// UploadedImage — ссылка на изображение, переданное генеративной модели.
type UploadedImage struct {
	Name     string // имя на стороне сервиса, если есть
	URI      string // URI загруженного файла (Gemini Files API)
	MIMEType string
	Data     []byte // inline-данные для провайдеров без загрузки файлов
}
