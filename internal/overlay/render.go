package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"road-damage-detector/pkg/models"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Цвета и толщина рамки, как на экране приложения
var (
	BoxColor        = color.RGBA{R: 0xFF, G: 0x6B, B: 0x35, A: 0xFF}
	LabelBackground = color.NRGBA{R: 0, G: 0, B: 0, A: 178}
	LabelTextColor  = color.White
	PaddingColor    = color.Black
)

const borderWidth = 2

// MaxLayoutSide наибольшая сторона холста в пикселях
const MaxLayoutSide = 8192

// Render рисует изображение, вписанное в область layout, и поверх него рамки
// детекций с подписями. Если layout не задан, используется исходный размер.
func Render(img image.Image, layout models.Size, detections []models.DetectionBox) (*image.RGBA, error) {
	bounds := img.Bounds()
	original := models.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}
	if !layout.Valid() {
		layout = original
	}

	if layout.Width > MaxLayoutSide || layout.Height > MaxLayoutSide {
		return nil, fmt.Errorf("%w: canvas %.0fx%.0f exceeds %d", ErrInvalidGeometry, layout.Width, layout.Height, MaxLayoutSide)
	}

	boxes, err := ProjectAll(layout, original, detections)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, round(layout.Width), round(layout.Height)))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(PaddingColor), image.Point{}, draw.Src)

	lb := Fit(layout, original)
	target := image.Rect(
		round(lb.PadX),
		round(lb.PadY),
		round(lb.PadX+lb.DisplayedWidth),
		round(lb.PadY+lb.DisplayedHeight),
	)
	if target.Dx() == bounds.Dx() && target.Dy() == bounds.Dy() {
		draw.Draw(canvas, target, img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(canvas, target, img, bounds, draw.Over, nil)
	}

	for _, box := range boxes {
		drawBox(canvas, box)
	}

	return canvas, nil
}

func drawBox(canvas *image.RGBA, box models.OverlayBox) {
	x0, y0 := round(box.Left), round(box.Top)
	x1, y1 := round(box.Left+box.Width), round(box.Top+box.Height)
	stroke := image.NewUniform(BoxColor)

	// draw.Draw сам обрезает прямоугольники по границам холста
	for _, edge := range []image.Rectangle{
		image.Rect(x0, y0, x1, y0+borderWidth),
		image.Rect(x0, y1-borderWidth, x1, y1),
		image.Rect(x0, y0, x0+borderWidth, y1),
		image.Rect(x1-borderWidth, y0, x1, y1),
	} {
		draw.Draw(canvas, edge, stroke, image.Point{}, draw.Src)
	}

	if box.Label == "" {
		return
	}

	lx, ly := round(box.LabelLeft), round(box.LabelTop)
	labelRect := image.Rect(lx, ly, lx+round(LabelWidth), ly+round(LabelHeight))
	draw.Draw(canvas, labelRect, image.NewUniform(LabelBackground), image.Point{}, draw.Over)

	face := basicfont.Face7x13
	metrics := face.Metrics()
	textWidth := font.MeasureString(face, box.Label).Ceil()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(LabelTextColor),
		Face: face,
		Dot: fixed.P(
			lx+(labelRect.Dx()-textWidth)/2,
			ly+(labelRect.Dy()-textHeight)/2+metrics.Ascent.Ceil(),
		),
	}
	drawer.DrawString(box.Label)
}

func round(v float64) int {
	return int(math.Round(v))
}
