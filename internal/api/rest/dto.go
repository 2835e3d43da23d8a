package rest

import (
	"path/filepath"
	"time"

	"vision-chat/internal/domain/entity"
)

// ChatRequest тело запроса POST /api/chat/
type ChatRequest struct {
	ImageID  string `json:"image_id" validate:"required"`
	Question string `json:"question" validate:"required"`
}

// ChatResponse ответ модели
type ChatResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"`
}

// DetectionResponse одна детекция; уверенность отдаётся в процентах
type DetectionResponse struct {
	Class      string `json:"class"`
	Confidence string `json:"confidence"`
	Box        [4]int `json:"box"`
}

// RecordResponse запись анализа
type RecordResponse struct {
	ID               string              `json:"id"`
	Image            string              `json:"image"`
	AnnotatedImage   *string             `json:"annotated_image"`
	DetectionResults []DetectionResponse `json:"detection_results"`
	DetectionCount   int                 `json:"detection_count"`
	UploadedAt       time.Time           `json:"uploaded_at"`
}

func toRecordResponse(r *entity.AnalysisRecord) RecordResponse {
	resp := RecordResponse{
		ID:               r.ID,
		Image:            mediaURL(r.OriginalImage),
		DetectionResults: make([]DetectionResponse, 0, len(r.Detections)),
		DetectionCount:   len(r.Detections),
		UploadedAt:       r.CreatedAt,
	}
	if r.Processed() {
		annotated := mediaURL(r.AnnotatedImage)
		resp.AnnotatedImage = &annotated
	}
	for _, d := range r.Detections {
		resp.DetectionResults = append(resp.DetectionResults, DetectionResponse{
			Class:      d.ClassName,
			Confidence: d.ConfidencePercent(),
			Box:        d.Box,
		})
	}
	return resp
}

// mediaURL переводит путь в каталоге медиа в URL раздачи /media/.
func mediaURL(path string) string {
	return mediaPrefix + "/" + filepath.Base(path)
}
