package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-chat/internal/domain/entity"
)

// fakeGenerator отвечает заранее заданными текстами и ошибками по имени модели.
type fakeGenerator struct {
	mu        sync.Mutex
	uploadErr error
	answers   map[string]string
	errs      map[string]error
	block     map[string]bool // модель ждёт отмены контекста

	uploads  int
	calls    []string
	images   []*entity.UploadedImage
	prompts  []string
	uploaded []string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		answers: make(map[string]string),
		errs:    make(map[string]error),
		block:   make(map[string]bool),
	}
}

func (g *fakeGenerator) Upload(ctx context.Context, imagePath string) (*entity.UploadedImage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploads++
	g.uploaded = append(g.uploaded, imagePath)
	if g.uploadErr != nil {
		return nil, g.uploadErr
	}
	return &entity.UploadedImage{URI: imagePath, MIMEType: "image/jpeg"}, nil
}

func (g *fakeGenerator) Generate(ctx context.Context, model string, img *entity.UploadedImage, prompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, model)
	g.images = append(g.images, img)
	g.prompts = append(g.prompts, prompt)
	block := g.block[model]
	err := g.errs[model]
	answer := g.answers[model]
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

type fakeDetector struct {
	out   *entity.DetectionOutput
	err   error
	paths []string
}

func (d *fakeDetector) Detect(ctx context.Context, imagePath string) (*entity.DetectionOutput, error) {
	d.paths = append(d.paths, imagePath)
	if d.err != nil {
		return nil, d.err
	}
	return d.out, nil
}

var errQuota = errors.New("quota exceeded")

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}
