//go:build !windows

package clipboard

// The legacy bitmap format and the dropped-file list are Windows clipboard
// concepts; other platforms report them as absent and the probe chain
// falls through to the remaining strategies.

func readPlatformBitmap() ([]byte, error) {
	return nil, ErrFormatAbsent
}

func readPlatformFileList() ([]string, error) {
	return nil, ErrFormatAbsent
}
