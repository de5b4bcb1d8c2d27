package clipboard

import "errors"

// ErrFormatAbsent is returned by Handle read methods when the queried
// clipboard format is simply not present. It is distinct from a real read
// error, which the probe logs; both are non-fatal to the fallback chain.
var ErrFormatAbsent = errors.New("clipboard format not present")

// PixelImage is a raw decoded RGBA pixel buffer obtained from the native
// image clipboard format.
type PixelImage struct {
	Width  int
	Height int
	Pix    []byte // RGBA, 4 bytes per pixel, row-major
}

// Handle is one fresh, stateless view of the native clipboard. A new
// handle is acquired every poll tick and never cached across ticks.
type Handle interface {
	// ReadImage returns the direct pixel buffer of the native image format.
	ReadImage() (*PixelImage, error)

	// ReadBitmap returns the legacy bitmap format written by some
	// third-party capture tools, packaged as a decodable BMP byte stream.
	ReadBitmap() ([]byte, error)

	// ReadFileList returns the clipboard's dropped-file reference list,
	// in its given order.
	ReadFileList() ([]string, error)

	// ReadText returns the clipboard's plain-text format. An empty string
	// means no text content.
	ReadText() (string, error)
}

// Device acquires clipboard handles and writes content back for paste.
type Device interface {
	Acquire() (Handle, error)
	WriteText(text string) error
	WriteImage(pngData []byte) error
}
