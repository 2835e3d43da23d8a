package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"vision-chat/internal/domain/entity"
)

const (
	boxThickness = 2
	labelPadding = 3
)

// DefaultPalette цвета рамок; детекция i получает palette[i % len(palette)].
var DefaultPalette = []color.RGBA{
	{R: 0xFF, G: 0x38, B: 0x38, A: 0xFF},
	{R: 0xFF, G: 0x9D, B: 0x97, A: 0xFF},
	{R: 0xFF, G: 0x70, B: 0x1F, A: 0xFF},
	{R: 0xFF, G: 0xB2, B: 0x1D, A: 0xFF},
	{R: 0x48, G: 0xF9, B: 0x0A, A: 0xFF},
	{R: 0x1A, G: 0x93, B: 0x34, A: 0xFF},
	{R: 0x00, G: 0xC2, B: 0xFF, A: 0xFF},
	{R: 0x84, G: 0x38, B: 0xFF, A: 0xFF},
}

// LabelTextColor цвет текста подписи поверх цветного фона.
var LabelTextColor = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// Annotator рисует рамки и подписи детекций и кодирует результат в JPEG.
// Разобранный шрифт разделяется между вызовами, font.Face создаётся на каждый вызов.
type Annotator struct {
	font     *opentype.Font
	fontErr  error
	fontSize float64
	quality  int
	palette  []color.RGBA
}

// NewAnnotator загружает TrueType-шрифт по fontPath. Если шрифт недоступен,
// используется встроенный basicfont; ошибка доступна через FontError.
func NewAnnotator(fontPath string, fontSize float64, quality int) *Annotator {
	if fontSize <= 0 {
		fontSize = 14
	}
	if quality < 1 || quality > 100 {
		quality = 90
	}

	a := &Annotator{
		fontSize: fontSize,
		quality:  quality,
		palette:  DefaultPalette,
	}
	a.font, a.fontErr = loadFont(fontPath)
	return a
}

func loadFont(path string) (*opentype.Font, error) {
	if path == "" {
		return nil, fmt.Errorf("font path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// UsingFallbackFont сообщает, что подписи рисуются встроенным шрифтом.
func (a *Annotator) UsingFallbackFont() bool {
	return a.font == nil
}

// FontError возвращает причину перехода на встроенный шрифт.
func (a *Annotator) FontError() error {
	return a.fontErr
}

// ColorFor возвращает цвет детекции с индексом i.
func (a *Annotator) ColorFor(i int) color.RGBA {
	return a.palette[i%len(a.palette)]
}

// Annotate рисует детекции на копии изображения и возвращает JPEG.
func (a *Annotator) Annotate(src image.Image, detections []entity.Detection) ([]byte, error) {
	dst := a.Draw(src, detections)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: a.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw возвращает RGBA-копию src с нарисованными рамками и подписями. src не изменяется.
func (a *Annotator) Draw(src image.Image, detections []entity.Detection) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	face, release := a.newFace()
	defer release()

	for i, d := range detections {
		c := a.ColorFor(i)
		box := image.Rect(d.Box[0], d.Box[1], d.Box[2], d.Box[3]).Intersect(dst.Bounds())
		drawOutline(dst, box, c)

		label := fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		drawLabel(dst, face, label, image.Pt(d.Box[0], d.Box[1]), c)
	}
	return dst
}

func (a *Annotator) newFace() (font.Face, func()) {
	if a.font != nil {
		face, err := opentype.NewFace(a.font, &opentype.FaceOptions{
			Size:    a.fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face, func() { face.Close() }
		}
	}
	return basicfont.Face7x13, func() {}
}

func drawOutline(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	t := boxThickness
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, minInt(r.Min.Y+t, r.Max.Y)),
		image.Rect(r.Min.X, maxInt(r.Max.Y-t, r.Min.Y), r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, minInt(r.Min.X+t, r.Max.X), r.Max.Y),
		image.Rect(maxInt(r.Max.X-t, r.Min.X), r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, s := range sides {
		draw.Draw(dst, s, u, image.Point{}, draw.Src)
	}
}

// drawLabel рисует подпись над рамкой, а если сверху нет места — внутри неё.
func drawLabel(dst *image.RGBA, face font.Face, label string, at image.Point, bg color.RGBA) {
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	textW := font.MeasureString(face, label).Ceil()
	bgW := textW + 2*labelPadding
	bgH := ascent + metrics.Descent.Ceil() + 2*labelPadding

	x, y := at.X, at.Y-bgH
	if y < 0 {
		y = at.Y
	}

	rect := image.Rect(x, y, x+bgW, y+bgH).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(dst, rect, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(LabelTextColor),
		Face: face,
		Dot:  fixed.P(x+labelPadding, y+labelPadding+ascent),
	}
	d.DrawString(label)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
