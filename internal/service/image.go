package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/domain"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DecodeImage sniffs and decodes raw bytes into an opaque RGB raster.
// Anything that is not a decodable image, or declares more than
// config.MaxImagePixels, fails with domain.ErrDecode.
func DecodeImage(raw []byte) (*image.RGBA, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}

	detected := mimetype.Detect(raw).String()
	if !strings.HasPrefix(detected, "image/") {
		return nil, fmt.Errorf("%w: content is %s", domain.ErrDecode, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s header: %w", domain.ErrDecode, detected, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > config.MaxImagePixels {
		return nil, fmt.Errorf("%w: image too large: %dx%d exceeds %d pixels",
			domain.ErrDecode, cfg.Width, cfg.Height, config.MaxImagePixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrDecode, detected, err)
	}
	return toRGB(src), nil
}

// Normalize downscales img so its longest side is at most maxSide,
// keeping the aspect ratio. Smaller images are returned untouched.
func Normalize(img *image.RGBA, maxSide int) *image.RGBA {
	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxSide)
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeJPEG serializes a raster for collaborators that take file bytes.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, (h*maxSide+w/2)/w)
	}
	return max(1, (w*maxSide+h/2)/h), maxSide
}

// toRGB flattens transparency onto white.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
