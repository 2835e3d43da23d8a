package vision

import (
	"fmt"
	"image"

	"vision-chat/internal/domain/entity"
)

// candidate — рамка-кандидат до подавления немаксимумов.
type candidate struct {
	classID int
	score   float32
	rect    image.Rectangle
}

// decodeYOLOv8 разбирает выход YOLOv8 формы [1, 4+C, N]: для каждого якоря
// cx, cy, w, h во входных координатах и C оценок классов.
// Координаты масштабируются к исходному изображению и обрезаются по его границам.
func decodeYOLOv8(data []float32, numClasses, numAnchors int, scaleX, scaleY float64, width, height int, threshold float32) ([]candidate, error) {
	if numClasses <= 0 || numAnchors <= 0 {
		return nil, fmt.Errorf("invalid output shape: classes=%d anchors=%d", numClasses, numAnchors)
	}
	if len(data) < (4+numClasses)*numAnchors {
		return nil, fmt.Errorf("output too short: got %d values, want %d", len(data), (4+numClasses)*numAnchors)
	}

	at := func(row, anchor int) float32 {
		return data[row*numAnchors+anchor]
	}

	var out []candidate
	for i := 0; i < numAnchors; i++ {
		bestClass := -1
		var bestScore float32
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, i); bestClass < 0 || s > bestScore {
				bestClass, bestScore = c, s
			}
		}
		if bestScore < threshold {
			continue
		}

		cx, cy := float64(at(0, i)), float64(at(1, i))
		w, h := float64(at(2, i)), float64(at(3, i))

		x1 := clamp(int((cx-w/2)*scaleX), 0, width)
		y1 := clamp(int((cy-h/2)*scaleY), 0, height)
		x2 := clamp(int((cx+w/2)*scaleX), 0, width)
		y2 := clamp(int((cy+h/2)*scaleY), 0, height)

		out = append(out, candidate{
			classID: bestClass,
			score:   bestScore,
			rect:    image.Rect(x1, y1, x2, y2),
		})
	}
	return out, nil
}

// toDetections переводит оставленные кандидаты в детекции в порядке keep.
func toDetections(cands []candidate, keep []int, labels Labels) []entity.Detection {
	detections := make([]entity.Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(cands) {
			continue
		}
		c := cands[idx]
		detections = append(detections, entity.NewDetection(
			labels.Name(c.classID),
			float64(c.score),
			c.rect.Min.X, c.rect.Min.Y, c.rect.Max.X, c.rect.Max.Y,
		))
	}
	return detections
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
