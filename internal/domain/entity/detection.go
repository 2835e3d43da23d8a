package entity

import (
	"fmt"
	"math"
)

// Detection представляет один найденный объект на изображении
type Detection struct {
	ClassName  string  `json:"class"`      // название класса из таблицы меток модели
	Confidence float64 `json:"confidence"` // уверенность модели в диапазоне [0,1]
	Box        [4]int  `json:"box"`        // [x1, y1, x2, y2] в пикселях изображения
}

// NewDetection создаёт детекцию, округляя уверенность и упорядочивая углы рамки.
func NewDetection(className string, confidence float64, x1, y1, x2, y2 int) Detection {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Detection{
		ClassName:  className,
		Confidence: RoundConfidence(confidence),
		Box:        [4]int{x1, y1, x2, y2},
	}
}

// RoundConfidence приводит уверенность к [0,1] и округляет до двух знаков.
func RoundConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}

// Valid проверяет инвариант рамки: x1 <= x2, y1 <= y2.
func (d Detection) Valid() bool {
	return d.Box[0] <= d.Box[2] && d.Box[1] <= d.Box[3]
}

// ConfidencePercent форматирует уверенность для отображения, например "87.00%".
func (d Detection) ConfidencePercent() string {
	return fmt.Sprintf("%.2f%%", d.Confidence*100)
}

// DetectionOutput содержит результат работы детектора.
type DetectionOutput struct {
	Detections []Detection // в порядке выдачи модели
	Annotated  []byte      // JPEG с нарисованными рамками
	Width      int
	Height     int
}
