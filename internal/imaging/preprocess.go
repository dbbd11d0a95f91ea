// Package imaging holds the deterministic image transforms used by the
// pipeline: downscale-and-reencode before vision model submission, plus the
// local technical quality measurements.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Info describes the output of a preprocessing pass.
type Info struct {
	Width        int
	Height       int
	SourceFormat string
	Resized      bool
}

// MimeType is the media type of every preprocessed payload. Re-encoding to a
// single canonical format bounds payload size and keeps the model request
// shape uniform.
const MimeType = "image/jpeg"

// Decode decodes raw image bytes (JPEG, PNG, GIF, or WebP).
func Decode(raw []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeConfig returns the dimensions and format without a full decode.
func DecodeConfig(raw []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// Preprocess decodes raw, scales it down so the longer edge is at most
// maxDimension (preserving aspect ratio, never upscaling), and re-encodes it
// as JPEG at the given quality. Larger payloads cost more vision tokens;
// 1024px loses little signal for scoring and captioning.
//
// The transform is deterministic and side-effect free: identical input bytes
// and settings produce identical output bytes.
func Preprocess(raw []byte, maxDimension, quality int) ([]byte, Info, error) {
	img, format, err := Decode(raw)
	if err != nil {
		return nil, Info{}, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	info := Info{Width: width, Height: height, SourceFormat: format}

	if maxDimension > 0 && (width > maxDimension || height > maxDimension) {
		newW, newH := fitWithin(width, height, maxDimension)
		scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
		info.Width, info.Height = newW, newH
		info.Resized = true
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, Info{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), info, nil
}

// fitWithin scales (w, h) so the longer edge equals max, preserving aspect
// ratio. Rounding can shave a pixel off the shorter edge; the longer edge is
// always exact.
func fitWithin(w, h, max int) (int, int) {
	if w >= h {
		scaled := int(float64(h)*float64(max)/float64(w) + 0.5)
		if scaled < 1 {
			scaled = 1
		}
		return max, scaled
	}
	scaled := int(float64(w)*float64(max)/float64(h) + 0.5)
	if scaled < 1 {
		scaled = 1
	}
	return scaled, max
}

// SniffMimeType infers the media type of raw image bytes from their magic
// numbers, defaulting to JPEG when unrecognised.
func SniffMimeType(raw []byte) string {
	switch {
	case len(raw) >= 8 && bytes.Equal(raw[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(raw) >= 6 && (bytes.Equal(raw[:6], []byte("GIF87a")) || bytes.Equal(raw[:6], []byte("GIF89a"))):
		return "image/gif"
	case len(raw) >= 12 && bytes.Equal(raw[:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
