package imageprobe

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	// Декодеры, доступные для image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"road-damage-detector/pkg/models"
)

// UserMessage сообщение для пользователя, когда размер фото определить не удалось
const UserMessage = "Не вдалося проаналізувати фото"

// ErrProbe не удалось прочитать размеры изображения
var ErrProbe = errors.New("imageprobe: cannot read image dimensions")

// Info размеры и формат изображения
type Info struct {
	Size   models.Size
	Format string
}

// Probe читает только заголовок изображения и возвращает его размеры в пикселях
func Probe(r io.Reader) (Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrProbe, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: empty image %dx%d", ErrProbe, cfg.Width, cfg.Height)
	}

	return Info{
		Size:   models.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)},
		Format: format,
	}, nil
}

// ProbeFile открывает файл и определяет размеры изображения
func ProbeFile(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrProbe, err)
	}
	defer file.Close()

	return Probe(file)
}
