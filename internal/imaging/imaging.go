// Package imaging converts clipboard image payloads to the portable PNG
// container used everywhere in the history store, and derives the small
// base64 thumbnails embedded in history records.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ThumbnailSize is the bounding box for generated thumbnails, in pixels.
const ThumbnailSize = 64

// EncodeRGBA encodes a raw RGBA pixel buffer to PNG. The buffer must hold
// exactly width*height*4 bytes.
func EncodeRGBA(width, height int, pix []byte) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer size %d does not match %dx%d RGBA", len(pix), width, height)
	}

	img := &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRGBA decodes an encoded image into a raw RGBA pixel buffer.
func DecodeRGBA(data []byte) (width, height int, pix []byte, err error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return bounds.Dx(), bounds.Dy(), dst.Pix, nil
}

// Reencode decodes an image in any registered format (png, jpeg, gif, bmp,
// webp) and re-encodes it to PNG.
func Reencode(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// ReencodeFile reads an image file from disk and re-encodes it to PNG.
func ReencodeFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return Reencode(data)
}

// Thumbnail decodes a PNG payload and returns a base64 data URI holding a
// preview scaled to fit within ThumbnailSize on its longest edge.
func Thumbnail(pngData []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(pngData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image for thumbnail: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("image has empty bounds")
	}

	tw, th := w, h
	if w > ThumbnailSize || h > ThumbnailSize {
		if w >= h {
			tw = ThumbnailSize
			th = h * ThumbnailSize / w
		} else {
			th = ThumbnailSize
			tw = w * ThumbnailSize / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail PNG: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
