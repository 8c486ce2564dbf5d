package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestJPEGNormalizer_Normalize(t *testing.T) {
	n := NewJPEGNormalizer(80, 2048)

	t.Run("re-encodes PNG as JPEG", func(t *testing.T) {
		result, err := n.Normalize(encodePNG(t, 40, 30), "image/png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ContentType != "image/jpeg" {
			t.Errorf("content type = %s, want image/jpeg", result.ContentType)
		}
		if result.Ext != ".jpg" {
			t.Errorf("ext = %s, want .jpg", result.Ext)
		}

		img, _, err := image.Decode(bytes.NewReader(result.Data))
		if err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
			t.Errorf("dimensions changed: got %v", img.Bounds())
		}
	})

	t.Run("passes JPEG through re-encode", func(t *testing.T) {
		result, err := n.Normalize(encodeJPEG(t, 20, 20), "image/jpeg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := image.Decode(bytes.NewReader(result.Data)); err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
	})

	t.Run("rejects HEIC", func(t *testing.T) {
		_, err := n.Normalize([]byte("ftypheic"), "image/heic")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("rejects unknown content type", func(t *testing.T) {
		_, err := n.Normalize([]byte("%PDF"), "application/pdf")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("rejects corrupt image data", func(t *testing.T) {
		_, err := n.Normalize([]byte("not an image"), "image/png")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestDownscale(t *testing.T) {
	t.Run("shrinks oversized image preserving aspect ratio", func(t *testing.T) {
		n := NewJPEGNormalizer(80, 100)
		result, err := n.Normalize(encodePNG(t, 400, 200), "image/png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		img, _, err := image.Decode(bytes.NewReader(result.Data))
		if err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
			t.Errorf("bounds = %v, want 100x50", img.Bounds())
		}
	})

	t.Run("leaves small image untouched", func(t *testing.T) {
		small := image.NewRGBA(image.Rect(0, 0, 10, 10))
		if out := downscale(small, 100); out != small {
			t.Error("expected image within bounds to pass through unchanged")
		}
	})

	t.Run("zero max dimension disables downscaling", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 500, 500))
		if out := downscale(img, 0); out != img {
			t.Error("expected downscaling to be disabled")
		}
	})
}
