package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/image/bmp"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeRGBARoundTrip(t *testing.T) {
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}

	data, err := EncodeRGBA(2, 2, pix)
	require.NoError(t, err)

	w, h, gotPix, err := DecodeRGBA(data)
	require.NoError(t, err)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, pix, gotPix)
}

func TestEncodeRGBARejectsBadBuffer(t *testing.T) {
	_, err := EncodeRGBA(2, 2, []byte{1, 2, 3})
	assert.Error(t, err)

	_, err = EncodeRGBA(0, 2, nil)
	assert.Error(t, err)
}

func TestReencodeFromBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	out, err := Reencode(buf.Bytes())
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestReencodeRejectsGarbage(t *testing.T) {
	_, err := Reencode([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestThumbnailScalesDown(t *testing.T) {
	data := encodeTestPNG(t, 200, 100)

	uri, err := Thumbnail(data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	data := encodeTestPNG(t, 10, 10)

	uri, err := Thumbnail(data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
