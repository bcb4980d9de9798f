package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultQuality   = 80
	DefaultThumbSize = 300
	// DefaultMaxPixels bounds width*height of an accepted upload.
	DefaultMaxPixels = 40_000_000
)

// ErrDecode indicates the uploaded bytes are not an image in a supported format.
var ErrDecode = errors.New("image could not be decoded")

// Codec turns arbitrary uploaded images into the stored JPEG variants.
type Codec struct {
	quality   int
	thumbSize int
	maxPixels int64
}

func NewCodec(quality, thumbSize int, maxPixels int64) *Codec {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if thumbSize <= 0 {
		thumbSize = DefaultThumbSize
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Codec{quality: quality, thumbSize: thumbSize, maxPixels: maxPixels}
}

// EncodeFull re-encodes data as JPEG at the original dimensions.
func (c *Codec) EncodeFull(data []byte) ([]byte, error) {
	src, err := c.decode(data)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return c.encode(dst)
}

// EncodeThumb produces a square thumbnail covering the whole target with
// the source cropped around its center.
func (c *Codec) EncodeThumb(data []byte) ([]byte, error) {
	src, err := c.decode(data)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.thumbSize, c.thumbSize))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, CoverCrop(src.Bounds(), c.thumbSize, c.thumbSize), draw.Over, nil)
	return c.encode(dst)
}

// CoverCrop returns the centered region of b with the aspect ratio of
// w x h that is as large as possible.
func CoverCrop(b image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()
	cropW, cropH := srcW, srcH
	if srcW*h > srcH*w {
		cropW = srcH * w / h
	} else {
		cropH = srcW * h / w
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	x0 := b.Min.X + (srcW-cropW)/2
	y0 := b.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

// decode reads the header first so that images whose pixel buffer would
// exceed maxPixels are rejected before any allocation.
func (c *Codec) decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > c.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, c.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return img, nil
}

func (c *Codec) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
