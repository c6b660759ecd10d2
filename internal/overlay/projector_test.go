package overlay

import (
	"testing"

	"road-damage-detector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestFit_LetterboxVertical(t *testing.T) {
	lb := Fit(models.Size{Width: 380, Height: 320}, models.Size{Width: 400, Height: 300})

	assert.InDelta(t, 0.95, lb.Scale, eps)
	assert.InDelta(t, 380, lb.DisplayedWidth, eps)
	assert.InDelta(t, 285, lb.DisplayedHeight, eps)
	assert.InDelta(t, 0, lb.PadX, eps)
	assert.InDelta(t, 17.5, lb.PadY, eps)
}

func TestFit_LetterboxHorizontal(t *testing.T) {
	lb := Fit(models.Size{Width: 400, Height: 100}, models.Size{Width: 200, Height: 100})

	assert.InDelta(t, 1, lb.Scale, eps)
	assert.InDelta(t, 100, lb.PadX, eps)
	assert.InDelta(t, 0, lb.PadY, eps)
}

func TestProject_ReferenceExample(t *testing.T) {
	det := models.DetectionBox{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1}

	rect := Project(models.Size{Width: 380, Height: 320}, models.Size{Width: 400, Height: 300}, det)

	assert.InDelta(t, 190, rect.Left, eps)
	assert.InDelta(t, 160, rect.Top, eps)
	assert.InDelta(t, 38, rect.Width, eps)
	assert.InDelta(t, 28.5, rect.Height, eps)
}

func TestProject_Idempotent(t *testing.T) {
	layout := models.Size{Width: 375, Height: 500}
	original := models.Size{Width: 4032, Height: 3024}
	det := models.DetectionBox{X: 0.12, Y: 0.77, Width: 0.3, Height: 0.05}

	first := Project(layout, original, det)
	second := Project(layout, original, det)

	assert.Equal(t, first, second)
}

func TestProject_NoClamping(t *testing.T) {
	det := models.DetectionBox{X: -0.1, Y: 0.9, Width: 0.5, Height: 0.5}

	rect := Project(models.Size{Width: 100, Height: 100}, models.Size{Width: 100, Height: 100}, det)

	assert.InDelta(t, -10, rect.Left, eps)
	assert.InDelta(t, 90, rect.Top, eps)
	assert.InDelta(t, 50, rect.Height, eps)
}

func TestProjectAll_LabelsAboveBoxes(t *testing.T) {
	detections := []models.DetectionBox{
		{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1, Score: 0.8, ClassCode: "D40"},
		{X: 0, Y: 0, Width: 1, Height: 1, Score: 0.3, ClassCode: "D00"},
	}

	boxes, err := ProjectAll(models.Size{Width: 380, Height: 320}, models.Size{Width: 400, Height: 300}, detections)
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.Equal(t, "D40", boxes[0].Label)
	assert.Equal(t, 0, boxes[0].Detection)
	assert.InDelta(t, 190, boxes[0].LabelLeft, eps)
	assert.InDelta(t, 160-LabelHeight, boxes[0].LabelTop, eps)
	assert.Equal(t, 0.8, boxes[0].Score)

	assert.Equal(t, "D00", boxes[1].Label)
	assert.InDelta(t, 0, boxes[1].Left, eps)
	assert.InDelta(t, 17.5, boxes[1].Top, eps)
	assert.InDelta(t, 380, boxes[1].Width, eps)
	assert.InDelta(t, 285, boxes[1].Height, eps)
}

func TestProjectAll_InvalidGeometry(t *testing.T) {
	det := []models.DetectionBox{{X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1}}

	tests := []struct {
		name     string
		layout   models.Size
		original models.Size
	}{
		{"zero original", models.Size{Width: 100, Height: 100}, models.Size{}},
		{"zero layout height", models.Size{Width: 100}, models.Size{Width: 10, Height: 10}},
		{"negative original", models.Size{Width: 100, Height: 100}, models.Size{Width: -1, Height: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectAll(tt.layout, tt.original, det)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestProjectAll_Empty(t *testing.T) {
	boxes, err := ProjectAll(models.Size{Width: 1, Height: 1}, models.Size{Width: 1, Height: 1}, nil)
	require.NoError(t, err)
	assert.Empty(t, boxes)
}
