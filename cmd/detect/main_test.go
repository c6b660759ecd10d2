package main

import (
	"testing"

	"road-damage-detector/internal/overlay"
	"road-damage-detector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	layout, err := parseLayout("")
	require.NoError(t, err)
	assert.Nil(t, layout)

	layout, err = parseLayout("380x320")
	require.NoError(t, err)
	assert.Equal(t, &models.Size{Width: 380, Height: 320}, layout)

	layout, err = parseLayout("360.5X640")
	require.NoError(t, err)
	assert.Equal(t, &models.Size{Width: 360.5, Height: 640}, layout)

	_, err = parseLayout("380")
	assert.Error(t, err)

	_, err = parseLayout("axb")
	assert.Error(t, err)

	_, err = parseLayout("0x100")
	assert.ErrorIs(t, err, overlay.ErrInvalidGeometry)
}
