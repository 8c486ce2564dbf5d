package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/png" // register PNG decoder
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Result is a normalized image ready for storage.
type Result struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Normalizer converts a raw upload into a storable image, or fails with a
// conversion error that aborts the write before anything is persisted.
type Normalizer interface {
	Normalize(data []byte, contentType string) (*Result, error)
}

// JPEGNormalizer re-encodes uploads as JPEG at a fixed quality, downscaling
// anything larger than MaxDimension on its longest side.
type JPEGNormalizer struct {
	Quality      int
	MaxDimension int
}

// NewJPEGNormalizer creates a normalizer with the given JPEG quality (1-100)
// and maximum output dimension in pixels (0 disables downscaling).
func NewJPEGNormalizer(quality, maxDimension int) *JPEGNormalizer {
	return &JPEGNormalizer{Quality: quality, MaxDimension: maxDimension}
}

// Normalize decodes JPEG or PNG input and re-encodes it as JPEG.
// HEIC/HEIF uploads are rejected: there is no decoder for them here, and
// accepting the bytes unconverted would store images most clients cannot
// render.
func (n *JPEGNormalizer) Normalize(data []byte, contentType string) (*Result, error) {
	switch contentType {
	case "image/jpeg", "image/png":
	case "image/heic", "image/heif":
		return nil, fmt.Errorf("%w: HEIC conversion is not available", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	img = downscale(img, n.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Ext:         ".jpg",
	}, nil
}

// downscale shrinks img so its longest side is at most maxDim pixels,
// using nearest-neighbor sampling. Images already within bounds pass
// through untouched.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	longest := w
	if h > longest {
		longest = h
	}
	scale := float64(maxDim) / float64(longest)

	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		srcY := bounds.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			srcX := bounds.Min.X + x*w/nw
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}
