package clipboard

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZhanYiHui06/EveryPaste/internal/imaging"
	"github.com/ZhanYiHui06/EveryPaste/internal/util"
)

// Strategy is a single attempt to extract one clipboard format. A nil
// snapshot with a nil error means the format is not present; an error is
// logged by the probe and treated the same way.
type Strategy interface {
	Name() string
	Capture(h Handle) (*Snapshot, error)
}

// Probe runs an ordered fallback chain of capture strategies against one
// clipboard handle, first success wins. Adding a native format means
// appending a strategy.
type Probe struct {
	strategies []Strategy
}

// NewProbe returns a probe with the standard strategy order: direct image
// (with the legacy bitmap fallback), dropped files, plain text.
func NewProbe() *Probe {
	return &Probe{
		strategies: []Strategy{
			imageStrategy{},
			fileStrategy{},
			textStrategy{},
		},
	}
}

// Capture runs the chain and returns at most one snapshot. Strategy errors
// never abort the tick; the chain proceeds to the next strategy.
func (p *Probe) Capture(h Handle) *Snapshot {
	for _, s := range p.strategies {
		snap, err := s.Capture(h)
		if err != nil && !errors.Is(err, ErrFormatAbsent) {
			slog.Debug("clipboard format read failed", "strategy", s.Name(), "err", err)
		}
		if snap != nil {
			slog.Debug("clipboard content captured",
				"strategy", s.Name(), "type", snap.Type, "hash", util.ShortHash(snap.Hash))
			return snap
		}
	}
	return nil
}

// imageStrategy reads the native image format. The direct pixel path
// fingerprints the raw decoded pixel bytes so re-encoding does not change
// the fingerprint. When the direct format is not available it falls back to
// the legacy bitmap format, which fingerprints the encoded bytes instead;
// content arriving via both paths intentionally does not dedup cross-path.
type imageStrategy struct{}

func (imageStrategy) Name() string { return "image" }

func (imageStrategy) Capture(h Handle) (*Snapshot, error) {
	img, err := h.ReadImage()
	if err == nil {
		hash := util.Fingerprint(img.Pix)

		pngData, encErr := imaging.EncodeRGBA(img.Width, img.Height, img.Pix)
		if encErr != nil {
			// An encode failure after a successful read yields nothing for
			// this strategy; the legacy format is not consulted.
			slog.Error("failed to encode clipboard image", "err", encErr)
			return nil, nil
		}
		return NewImageSnapshot(pngData, hash), nil
	}
	if !errors.Is(err, ErrFormatAbsent) {
		slog.Debug("direct image read failed, trying legacy bitmap", "err", err)
	}

	return captureLegacyBitmap(h)
}

func captureLegacyBitmap(h Handle) (*Snapshot, error) {
	data, err := h.ReadBitmap()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	// Fingerprint over the still-encoded bytes, not decoded pixels.
	hash := util.Fingerprint(data)

	pngData, err := imaging.Reencode(data)
	if err != nil {
		slog.Debug("failed to decode legacy bitmap", "err", err)
		return nil, nil
	}

	return NewImageSnapshot(pngData, hash), nil
}

// knownImageExtensions is the fixed set of file extensions accepted by the
// dropped-file strategy, matched case-insensitively.
var knownImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
	".ico":  true,
	".gif":  true,
}

// fileStrategy scans the dropped-file list for the first readable image
// file, re-encodes it to PNG and fingerprints the re-encoded bytes.
type fileStrategy struct{}

func (fileStrategy) Name() string { return "file-list" }

func (fileStrategy) Capture(h Handle) (*Snapshot, error) {
	paths, err := h.ReadFileList()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !knownImageExtensions[ext] {
			continue
		}

		pngData, err := imaging.ReencodeFile(path)
		if err != nil {
			slog.Debug("failed to read image file from clipboard list", "path", path, "err", err)
			continue
		}

		return NewImageSnapshot(pngData, util.Fingerprint(pngData)), nil
	}

	return nil, nil
}

// textStrategy reads the plain-text format. An empty string is no content,
// not a capture.
type textStrategy struct{}

func (textStrategy) Name() string { return "text" }

func (textStrategy) Capture(h Handle) (*Snapshot, error) {
	text, err := h.ReadText()
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return NewTextSnapshot(text), nil
}
