package clipboard

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/image/bmp"

	"github.com/ZhanYiHui06/EveryPaste/internal/imaging"
	"github.com/ZhanYiHui06/EveryPaste/internal/util"
)

// fakeHandle scripts the per-format reads for one probe run.
type fakeHandle struct {
	image     *PixelImage
	imageErr  error
	bitmap    []byte
	bitmapErr error
	files     []string
	filesErr  error
	text      string
	textErr   error
}

func (h *fakeHandle) ReadImage() (*PixelImage, error) {
	if h.imageErr != nil {
		return nil, h.imageErr
	}
	if h.image == nil {
		return nil, ErrFormatAbsent
	}
	return h.image, nil
}

func (h *fakeHandle) ReadBitmap() ([]byte, error) {
	if h.bitmapErr != nil {
		return nil, h.bitmapErr
	}
	if h.bitmap == nil {
		return nil, ErrFormatAbsent
	}
	return h.bitmap, nil
}

func (h *fakeHandle) ReadFileList() ([]string, error) {
	if h.filesErr != nil {
		return nil, h.filesErr
	}
	if h.files == nil {
		return nil, ErrFormatAbsent
	}
	return h.files, nil
}

func (h *fakeHandle) ReadText() (string, error) {
	if h.textErr != nil {
		return "", h.textErr
	}
	return h.text, nil
}

func testPixels(w, h int) *PixelImage {
	pix := make([]byte, w*h*4)
	for i := range pix {
		if i%4 == 3 {
			pix[i] = 0xff // opaque, so the PNG round trip is lossless
		} else {
			pix[i] = byte(i % 251)
		}
	}
	return &PixelImage{Width: w, Height: h, Pix: pix}
}

func testBMP(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestProbeEmptyClipboardYieldsNoSnapshot(t *testing.T) {
	snap := NewProbe().Capture(&fakeHandle{})
	assert.Nil(t, snap)
}

func TestProbeTextCapture(t *testing.T) {
	snap := NewProbe().Capture(&fakeHandle{text: "hello"})
	require.NotNil(t, snap)
	assert.Equal(t, TypeText, snap.Type)
	assert.Equal(t, "hello", snap.PlainText)
	assert.Equal(t, util.Fingerprint([]byte("hello")), snap.Hash)
}

func TestProbeEmptyTextIsNoContent(t *testing.T) {
	snap := NewProbe().Capture(&fakeHandle{text: ""})
	assert.Nil(t, snap)
}

func TestProbeDirectImageFingerprintsRawPixels(t *testing.T) {
	img := testPixels(2, 2)
	snap := NewProbe().Capture(&fakeHandle{image: img, text: "ignored"})
	require.NotNil(t, snap)
	assert.Equal(t, TypeImage, snap.Type)

	// Fingerprint domain is the raw pixel bytes, not the PNG output.
	assert.Equal(t, util.Fingerprint(img.Pix), snap.Hash)
	assert.NotEqual(t, util.Fingerprint(snap.Image), snap.Hash)

	// Payload is the portable PNG container.
	w, h, pix, err := imaging.DecodeRGBA(snap.Image)
	require.NoError(t, err)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, img.Pix, pix)
}

func TestProbeLegacyBitmapWhenDirectAbsent(t *testing.T) {
	bmpData := testBMP(t)
	snap := NewProbe().Capture(&fakeHandle{bitmap: bmpData, text: "ignored"})
	require.NotNil(t, snap)
	assert.Equal(t, TypeImage, snap.Type)

	// Legacy path fingerprints the still-encoded bytes.
	assert.Equal(t, util.Fingerprint(bmpData), snap.Hash)

	_, format, err := image.Decode(bytes.NewReader(snap.Image))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestProbeLegacyBitmapAfterReadError(t *testing.T) {
	bmpData := testBMP(t)
	snap := NewProbe().Capture(&fakeHandle{
		imageErr: errors.New("native read blew up"),
		bitmap:   bmpData,
	})
	require.NotNil(t, snap)
	assert.Equal(t, util.Fingerprint(bmpData), snap.Hash)
}

func TestProbeEncodeFailureSkipsLegacyBitmap(t *testing.T) {
	// Pixel buffer size mismatch forces an encode failure after a
	// successful direct read; the chain must fall through past the legacy
	// format to the text strategy.
	broken := &PixelImage{Width: 4, Height: 4, Pix: []byte{1, 2, 3}}
	snap := NewProbe().Capture(&fakeHandle{
		image:  broken,
		bitmap: testBMP(t),
		text:   "fallback",
	})
	require.NotNil(t, snap)
	assert.Equal(t, TypeText, snap.Type)
	assert.Equal(t, "fallback", snap.PlainText)
}

func TestProbeUndecodableBitmapFallsThrough(t *testing.T) {
	snap := NewProbe().Capture(&fakeHandle{
		bitmap: []byte("not a bitmap"),
		text:   "fallback",
	})
	require.NotNil(t, snap)
	assert.Equal(t, TypeText, snap.Type)
}

func TestProbeFileListPicksFirstImageFile(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 3))))
	imgPath := filepath.Join(dir, "shot.BMP")
	require.NoError(t, os.WriteFile(imgPath, buf.Bytes(), 0644))

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("nope"), 0644))

	snap := NewProbe().Capture(&fakeHandle{
		files: []string{
			filepath.Join(dir, "missing.png"), // nonexistent, skipped
			dir,                               // not a regular file, skipped
			txtPath,                           // wrong extension, skipped
			imgPath,                           // accepted, extension match is case-insensitive
		},
	})
	require.NotNil(t, snap)
	assert.Equal(t, TypeImage, snap.Type)

	// Fingerprint domain is the final re-encoded PNG bytes.
	assert.Equal(t, util.Fingerprint(snap.Image), snap.Hash)
}

func TestProbeFileListWithNoImagesFallsThrough(t *testing.T) {
	dir := t.TempDir()
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("nope"), 0644))

	snap := NewProbe().Capture(&fakeHandle{
		files: []string{txtPath},
		text:  "still text",
	})
	require.NotNil(t, snap)
	assert.Equal(t, TypeText, snap.Type)
}

func TestProbeCorruptImageFileSkipped(t *testing.T) {
	dir := t.TempDir()
	badPath := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(badPath, []byte("garbage"), 0644))

	snap := NewProbe().Capture(&fakeHandle{files: []string{badPath}})
	assert.Nil(t, snap)
}

func TestProbeFormatErrorsNeverAbortChain(t *testing.T) {
	snap := NewProbe().Capture(&fakeHandle{
		imageErr: errors.New("image read failed"),
		filesErr: errors.New("file list read failed"),
		text:     "survivor",
	})
	require.NotNil(t, snap)
	assert.Equal(t, "survivor", snap.PlainText)
}
