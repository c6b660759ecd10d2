package imageprobe

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestProbe_Formats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))

	tests := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{"jpeg", func(b *bytes.Buffer) error { return jpeg.Encode(b, img, nil) }},
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, img) }},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, img) }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf))

			info, err := Probe(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.format, info.Format)
			assert.Equal(t, 40.0, info.Size.Width)
			assert.Equal(t, 30.0, info.Size.Height)
		})
	}
}

func TestProbe_NotAnImage(t *testing.T) {
	_, err := Probe(strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrProbe)
}

func TestProbeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "road.png")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 7, 5))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	info, err := ProbeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7.0, info.Size.Width)
	assert.Equal(t, 5.0, info.Size.Height)

	_, err = ProbeFile(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, ErrProbe)
}
