package database

import (
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/ZhanYiHui06/EveryPaste/internal/clipboard"
)

// ImagePreview is the display string used for image records.
const ImagePreview = "[Image]"

// HistoryItem is one persisted clipboard capture.
type HistoryItem struct {
	bun.BaseModel `bun:"table:clipboard_history"`

	ID             int64                 `bun:"id,pk,autoincrement" json:"id"`
	ContentType    clipboard.ContentType `bun:"content_type,notnull" json:"content_type"`
	PlainText      string                `bun:"plain_text" json:"plain_text,omitempty"`
	RichText       string                `bun:"rich_text" json:"rich_text,omitempty"`
	ImagePath      string                `bun:"image_path" json:"image_path,omitempty"`
	ImageThumbnail string                `bun:"image_thumbnail" json:"image_thumbnail,omitempty"`
	Preview        string                `bun:"preview,notnull" json:"preview"`
	Hash           string                `bun:"hash,unique,notnull" json:"hash"`
	CreatedAt      time.Time             `bun:"created_at,notnull" json:"created_at"`
	Pinned         bool                  `bun:"pinned,default:false" json:"pinned"`
}

// NewTextItem builds an unsaved plain-text record.
func NewTextItem(text, hash string, previewLen int) *HistoryItem {
	return &HistoryItem{
		ContentType: clipboard.TypeText,
		PlainText:   text,
		Preview:     MakePreview(text, previewLen),
		Hash:        hash,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewRichTextItem builds an unsaved rich-text record. The preview derives
// from the plain-text rendering, not the HTML.
func NewRichTextItem(plain, html, hash string, previewLen int) *HistoryItem {
	return &HistoryItem{
		ContentType: clipboard.TypeRichText,
		PlainText:   plain,
		RichText:    html,
		Preview:     MakePreview(plain, previewLen),
		Hash:        hash,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewImageItem builds an unsaved image record referencing a saved asset.
func NewImageItem(imagePath, thumbnail, hash string) *HistoryItem {
	return &HistoryItem{
		ContentType:    clipboard.TypeImage,
		ImagePath:      imagePath,
		ImageThumbnail: thumbnail,
		Preview:        ImagePreview,
		Hash:           hash,
		CreatedAt:      time.Now().UTC(),
	}
}

// MakePreview trims text and truncates it to maxLen runes, appending an
// ellipsis when content was cut.
func MakePreview(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
