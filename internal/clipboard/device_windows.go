//go:build windows

package clipboard

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Legacy clipboard formats read directly through user32, for content
// written by third-party capture tools that golang.design/x/clipboard
// does not expose.
const (
	cfDIB   = 8  // CF_DIB
	cfHDROP = 15 // CF_HDROP
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procGlobalLock                 = kernel32.NewProc("GlobalLock")
	procGlobalUnlock               = kernel32.NewProc("GlobalUnlock")
	procGlobalSize                 = kernel32.NewProc("GlobalSize")
	procDragQueryFileW             = shell32.NewProc("DragQueryFileW")
)

// openClipboard retries briefly because another process may hold the
// clipboard open for a moment after writing to it.
func openClipboard() error {
	for range 5 {
		r, _, _ := procOpenClipboard.Call(0)
		if r != 0 {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("could not open clipboard")
}

func closeClipboard() {
	procCloseClipboard.Call()
}

// clipboardBytes copies the global-memory block of the given format.
func clipboardBytes(format uintptr) ([]byte, error) {
	avail, _, _ := procIsClipboardFormatAvailable.Call(format)
	if avail == 0 {
		return nil, ErrFormatAbsent
	}

	h, _, _ := procGetClipboardData.Call(format)
	if h == 0 {
		return nil, fmt.Errorf("GetClipboardData failed for format %d", format)
	}

	ptr, _, _ := procGlobalLock.Call(h)
	if ptr == 0 {
		return nil, fmt.Errorf("GlobalLock failed")
	}
	defer procGlobalUnlock.Call(h)

	size, _, _ := procGlobalSize.Call(h)
	if size == 0 {
		return nil, fmt.Errorf("GlobalSize reported empty block")
	}

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size))
	return data, nil
}

// readPlatformBitmap reads the CF_DIB format and packages it as a BMP byte
// stream decodable by the standard bitmap decoder.
func readPlatformBitmap() ([]byte, error) {
	if err := openClipboard(); err != nil {
		return nil, err
	}
	defer closeClipboard()

	dib, err := clipboardBytes(cfDIB)
	if err != nil {
		return nil, err
	}
	return dibToBMP(dib)
}

// dibToBMP prepends the 14-byte BITMAPFILEHEADER a CF_DIB block lacks.
func dibToBMP(dib []byte) ([]byte, error) {
	if len(dib) < 40 {
		return nil, fmt.Errorf("DIB block too small: %d bytes", len(dib))
	}

	infoSize := binary.LittleEndian.Uint32(dib[0:4])
	bitCount := binary.LittleEndian.Uint16(dib[14:16])
	compression := binary.LittleEndian.Uint32(dib[16:20])
	clrUsed := binary.LittleEndian.Uint32(dib[32:36])

	paletteEntries := clrUsed
	if paletteEntries == 0 && bitCount <= 8 {
		paletteEntries = 1 << bitCount
	}

	pixelOffset := 14 + infoSize + 4*paletteEntries
	// BI_BITFIELDS stores three color masks after a 40-byte header.
	if compression == 3 && infoSize == 40 {
		pixelOffset += 12
	}

	bmp := make([]byte, 14+len(dib))
	bmp[0], bmp[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(bmp[2:6], uint32(len(bmp)))
	binary.LittleEndian.PutUint32(bmp[10:14], pixelOffset)
	copy(bmp[14:], dib)
	return bmp, nil
}

// readPlatformFileList reads the CF_HDROP dropped-file list.
func readPlatformFileList() ([]string, error) {
	if err := openClipboard(); err != nil {
		return nil, err
	}
	defer closeClipboard()

	avail, _, _ := procIsClipboardFormatAvailable.Call(cfHDROP)
	if avail == 0 {
		return nil, ErrFormatAbsent
	}

	hDrop, _, _ := procGetClipboardData.Call(cfHDROP)
	if hDrop == 0 {
		return nil, fmt.Errorf("GetClipboardData failed for CF_HDROP")
	}

	const allFiles = 0xFFFFFFFF
	count, _, _ := procDragQueryFileW.Call(hDrop, allFiles, 0, 0)

	paths := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		n, _, _ := procDragQueryFileW.Call(hDrop, i, 0, 0)
		if n == 0 {
			continue
		}
		buf := make([]uint16, n+1)
		procDragQueryFileW.Call(hDrop, i, uintptr(unsafe.Pointer(&buf[0])), n+1)
		paths = append(paths, windows.UTF16ToString(buf))
	}
	return paths, nil
}
