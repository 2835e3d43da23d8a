//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"os"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/logger"
)

// YOLODetector заглушка для сборки без OpenCV.
type YOLODetector struct {
	cfg DetectorConfig
}

// NewYOLODetector создаёт детектор-заглушку (без OpenCV).
func NewYOLODetector(cfg DetectorConfig, annotator *Annotator, log *logger.Logger) (*YOLODetector, error) {
	_ = annotator
	log.Warning("gocv build tag is not enabled, detection requests will fail")
	return &YOLODetector{cfg: cfg.withDefaults()}, nil
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Detect(ctx context.Context, imagePath string) (*entity.DetectionOutput, error) {
	_ = ctx
	if _, err := os.Stat(imagePath); err != nil {
		return nil, entity.InputError("read image: %v", err)
	}
	return nil, entity.DetectionError(errors.New("gocv build tag is not enabled"))
}

// Close ничего не делает.
func (d *YOLODetector) Close() error {
	return nil
}
