package overlay

import (
	"errors"
	"math"

	"road-damage-detector/pkg/models"
)

// Размер подписи над рамкой детекции
const (
	LabelWidth  = 32.0
	LabelHeight = 22.0
)

// ErrInvalidGeometry размеры области отображения или исходного изображения не заданы
var ErrInvalidGeometry = errors.New("overlay: layout and original size must both be positive")

// Letterbox описывает вписывание изображения в область с сохранением пропорций
type Letterbox struct {
	Scale           float64
	DisplayedWidth  float64
	DisplayedHeight float64
	PadX            float64
	PadY            float64
}

// Fit вписывает исходное изображение в область layout (режим "contain").
// Изображение центрируется, свободное место делится поровну с двух сторон.
func Fit(layout, original models.Size) Letterbox {
	scale := math.Min(layout.Width/original.Width, layout.Height/original.Height)
	displayedW := original.Width * scale
	displayedH := original.Height * scale

	return Letterbox{
		Scale:           scale,
		DisplayedWidth:  displayedW,
		DisplayedHeight: displayedH,
		PadX:            (layout.Width - displayedW) / 2,
		PadY:            (layout.Height - displayedH) / 2,
	}
}

// Place переводит нормализованную детекцию в координаты области отображения.
// Значения за пределами [0,1] не обрезаются.
func (lb Letterbox) Place(det models.DetectionBox) models.Rect {
	return models.Rect{
		Left:   lb.PadX + det.X*lb.DisplayedWidth,
		Top:    lb.PadY + det.Y*lb.DisplayedHeight,
		Width:  det.Width * lb.DisplayedWidth,
		Height: det.Height * lb.DisplayedHeight,
	}
}

// Project вычисляет прямоугольник одной детекции. Вызывающий отвечает за то,
// чтобы оба размера были положительными.
func Project(layout, original models.Size, det models.DetectionBox) models.Rect {
	return Fit(layout, original).Place(det)
}

// ProjectAll вычисляет рамки и подписи для всех детекций в исходном порядке
func ProjectAll(layout, original models.Size, detections []models.DetectionBox) ([]models.OverlayBox, error) {
	if !layout.Valid() || !original.Valid() {
		return nil, ErrInvalidGeometry
	}

	lb := Fit(layout, original)
	boxes := make([]models.OverlayBox, len(detections))
	for i, det := range detections {
		rect := lb.Place(det)
		boxes[i] = models.OverlayBox{
			Rect:      rect,
			Label:     det.ClassCode,
			LabelLeft: rect.Left,
			LabelTop:  rect.Top - LabelHeight,
			Score:     det.Score,
			Detection: i,
		}
	}

	return boxes, nil
}
