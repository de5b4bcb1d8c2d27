package clipboard

import (
	"github.com/ZhanYiHui06/EveryPaste/internal/util"
)

// ContentType enumerates the kinds of clipboard content the capture
// pipeline understands. Consumers switch exhaustively over the three values.
type ContentType string

const (
	TypeText     ContentType = "text"
	TypeRichText ContentType = "rich_text"
	TypeImage    ContentType = "image"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypeText, TypeRichText, TypeImage:
		return true
	}
	return false
}

// Snapshot is one captured clipboard state, produced by a Probe and
// consumed once by the capture callback. Exactly one payload field is
// populated, matching Type.
type Snapshot struct {
	Type      ContentType
	PlainText string
	RichText  string // HTML
	Image     []byte // PNG
	Hash      string
}

// NewTextSnapshot builds a plain-text snapshot, fingerprinting the raw
// text bytes.
func NewTextSnapshot(text string) *Snapshot {
	return &Snapshot{
		Type:      TypeText,
		PlainText: text,
		Hash:      util.Fingerprint([]byte(text)),
	}
}

// NewRichTextSnapshot builds a rich-text snapshot from an HTML payload and
// its plain-text rendering, fingerprinting the HTML bytes.
func NewRichTextSnapshot(plain, html string) *Snapshot {
	return &Snapshot{
		Type:      TypeRichText,
		PlainText: plain,
		RichText:  html,
		Hash:      util.Fingerprint([]byte(html)),
	}
}

// NewImageSnapshot builds an image snapshot from PNG bytes. The hash is
// supplied by the caller because the fingerprint domain differs per capture
// strategy (raw pixels for the direct path, encoded bytes otherwise).
func NewImageSnapshot(pngData []byte, hash string) *Snapshot {
	return &Snapshot{
		Type:  TypeImage,
		Image: pngData,
		Hash:  hash,
	}
}

// Size returns the payload size in bytes, used for the max-item-size check.
func (s *Snapshot) Size() int {
	switch s.Type {
	case TypeText:
		return len(s.PlainText)
	case TypeRichText:
		return len(s.PlainText) + len(s.RichText)
	case TypeImage:
		return len(s.Image)
	}
	return 0
}
