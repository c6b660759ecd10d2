package overlay

import (
	"image"
	"image/color"
	"testing"

	"road-damage-detector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRender_LetterboxAndBox(t *testing.T) {
	green := color.RGBA{G: 200, A: 255}
	src := solidImage(40, 30, green)
	detections := []models.DetectionBox{
		{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5, Score: 0.9, ClassCode: "D40"},
	}

	canvas, err := Render(src, models.Size{Width: 80, Height: 80}, detections)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 80, 80), canvas.Bounds())

	// полосы сверху и снизу остаются черными
	assert.Equal(t, color.RGBA{A: 255}, canvas.RGBAAt(40, 2))
	assert.Equal(t, color.RGBA{A: 255}, canvas.RGBAAt(40, 77))

	inside := canvas.RGBAAt(5, 40)
	assert.InDelta(t, 200, int(inside.G), 2)
	assert.Equal(t, uint8(0), inside.R)

	// левая граница рамки: left = 20, top = 25, height = 30
	assert.Equal(t, BoxColor, canvas.RGBAAt(20, 40))
	assert.Equal(t, BoxColor, canvas.RGBAAt(59, 40))
	assert.Equal(t, BoxColor, canvas.RGBAAt(40, 25))

	// подпись над рамкой: затемненный фон
	label := canvas.RGBAAt(50, 15)
	assert.Less(t, int(label.G), 100)
	assert.Greater(t, int(label.G), 0)
	assert.Equal(t, uint8(0), label.R)
}

func TestRender_DefaultsToOriginalSize(t *testing.T) {
	src := solidImage(16, 12, color.RGBA{B: 255, A: 255})

	canvas, err := Render(src, models.Size{}, nil)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 16, 12), canvas.Bounds())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, canvas.RGBAAt(8, 6))
}

func TestRender_OutOfBoundsBoxIsClipped(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	detections := []models.DetectionBox{
		{X: 0.8, Y: -0.5, Width: 1, Height: 1, ClassCode: "D00"},
	}

	canvas, err := Render(src, models.Size{}, detections)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 10, 10), canvas.Bounds())
	assert.Equal(t, BoxColor, canvas.RGBAAt(8, 2))
}

func TestRender_RejectsOversizedCanvas(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{A: 255})

	tests := []struct {
		name   string
		layout models.Size
	}{
		{"both sides", models.Size{Width: 100000, Height: 100000}},
		{"width only", models.Size{Width: MaxLayoutSide + 1, Height: 10}},
		{"height only", models.Size{Width: 10, Height: MaxLayoutSide + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas, err := Render(src, tt.layout, nil)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
			assert.Nil(t, canvas)
		})
	}

	canvas, err := Render(src, models.Size{Width: MaxLayoutSide, Height: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxLayoutSide, canvas.Bounds().Dx())
}
