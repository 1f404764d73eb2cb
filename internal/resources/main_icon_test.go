package resources

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIconIsPNG(t *testing.T) {
	data, err := GetIcon()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 22, img.Bounds().Dx())
	assert.Equal(t, 22, img.Bounds().Dy())
}
