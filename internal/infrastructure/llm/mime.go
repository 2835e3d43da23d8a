package llm

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// detectImageMIME определяет тип файла по содержимому и отклоняет не-изображения.
func detectImageMIME(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect image type: %w", err)
	}
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("unsupported image type %s", mime)
	}
	return mime, nil
}
