package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"github.com/ZhanYiHui06/EveryPaste/internal/imaging"
)

// SystemDevice reads the real OS clipboard. Text and the direct image
// format go through golang.design/x/clipboard; the legacy bitmap format and
// the dropped-file list use platform hooks (Windows only, other platforms
// report the formats as absent).
type SystemDevice struct {
	initOnce sync.Once
	initErr  error
}

// NewSystemDevice returns a device backed by the OS clipboard. The
// underlying clipboard is initialized lazily on first use.
func NewSystemDevice() *SystemDevice {
	return &SystemDevice{}
}

func (d *SystemDevice) init() error {
	d.initOnce.Do(func() {
		d.initErr = clipboard.Init()
	})
	if d.initErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", d.initErr)
	}
	return nil
}

// Acquire returns a fresh stateless handle over the OS clipboard.
func (d *SystemDevice) Acquire() (Handle, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	return systemHandle{}, nil
}

// WriteText places plain text on the OS clipboard.
func (d *SystemDevice) WriteText(text string) error {
	if err := d.init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// WriteImage places a PNG image on the OS clipboard.
func (d *SystemDevice) WriteImage(pngData []byte) error {
	if err := d.init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, pngData)
	return nil
}

type systemHandle struct{}

func (systemHandle) ReadImage() (*PixelImage, error) {
	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return nil, ErrFormatAbsent
	}

	w, h, pix, err := imaging.DecodeRGBA(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode clipboard image: %w", err)
	}
	return &PixelImage{Width: w, Height: h, Pix: pix}, nil
}

func (systemHandle) ReadBitmap() ([]byte, error) {
	return readPlatformBitmap()
}

func (systemHandle) ReadFileList() ([]string, error) {
	return readPlatformFileList()
}

func (systemHandle) ReadText() (string, error) {
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", ErrFormatAbsent
	}
	return string(data), nil
}
