package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

// yoloOutput собирает выход [4+C, N] из списка якорей.
func yoloOutput(numClasses int, anchors [][]float32) []float32 {
	n := len(anchors)
	data := make([]float32, (4+numClasses)*n)
	for i, a := range anchors {
		for row, v := range a {
			data[row*n+i] = v
		}
	}
	return data
}

func TestDecodeYOLOv8_ScalesAndThresholds(t *testing.T) {
	// Вход 640x640, изображение 640x480: scaleY = 0.75.
	data := yoloOutput(3, [][]float32{
		{200, 266.6667, 200, 266.6667, 0.10, 0.87, 0.05}, // класс 1, рамка [100,100,300,300]
		{50, 50, 20, 20, 0.10, 0.10, 0.20},               // ниже порога
	})

	cands, err := decodeYOLOv8(data, 3, 2, 1.0, 0.75, 640, 480, 0.25)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, 1, cands[0].classID)
	require.InDelta(t, 0.87, cands[0].score, 1e-6)
	require.Equal(t, image.Rect(100, 100, 300, 300), cands[0].rect)
}

func TestDecodeYOLOv8_ClipsToImage(t *testing.T) {
	data := yoloOutput(1, [][]float32{
		{630, 10, 100, 100, 0.9},
	})
	cands, err := decodeYOLOv8(data, 1, 1, 1.0, 1.0, 640, 480, 0.25)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	r := cands[0].rect
	require.Equal(t, 580, r.Min.X)
	require.Equal(t, 0, r.Min.Y)
	require.Equal(t, 640, r.Max.X)
	require.Equal(t, 60, r.Max.Y)
}

func TestDecodeYOLOv8_ShortOutput(t *testing.T) {
	_, err := decodeYOLOv8(make([]float32, 10), 80, 8400, 1, 1, 640, 640, 0.25)
	require.Error(t, err)

	_, err = decodeYOLOv8(nil, 0, 1, 1, 1, 640, 640, 0.25)
	require.Error(t, err)
}

func TestToDetections_OnePerKeptBox(t *testing.T) {
	cands := []candidate{
		{classID: 0, score: 0.91, rect: image.Rect(10, 10, 50, 80)},
		{classID: 16, score: 0.87, rect: image.Rect(100, 100, 300, 300)},
		{classID: 2, score: 0.40, rect: image.Rect(0, 0, 5, 5)},
	}
	keep := []int{1, 0}

	dets := toDetections(cands, keep, COCOLabels)
	require.Len(t, dets, len(keep))

	require.Equal(t, "dog", dets[0].ClassName)
	require.Equal(t, 0.87, dets[0].Confidence)
	require.Equal(t, [4]int{100, 100, 300, 300}, dets[0].Box)
	require.Equal(t, "person", dets[1].ClassName)

	for _, d := range dets {
		require.True(t, d.Valid())
	}
}

func TestToDetections_SkipsBadIndices(t *testing.T) {
	cands := []candidate{{classID: 0, score: 0.5, rect: image.Rect(0, 0, 1, 1)}}
	require.Len(t, toDetections(cands, []int{0, 5, -1}, COCOLabels), 1)
	require.Empty(t, toDetections(nil, nil, COCOLabels))
}
