package vision

import (
	"fmt"
	"image"
)

// BGRToRGBA переводит пиксели OpenCV (BGR, 3 байта на пиксель) в image.RGBA.
// Без этого шага JPEG получает переставленные красный и синий каналы.
func BGRToRGBA(pix []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("unexpected BGR buffer size %d for %dx%d", len(pix), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i+2]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}
