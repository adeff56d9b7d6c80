package integrations

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// CoverProcessor normalises generated covers to a fixed size PNG.
type CoverProcessor struct {
	width  int
	height int
}

func NewCoverProcessor(width, height int) *CoverProcessor {
	return &CoverProcessor{width: width, height: height}
}

// Process decodes src and returns it as PNG at the configured size. An image
// that is already a PNG of the right size is returned unchanged.
func (p *CoverProcessor) Process(src []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover image: %w", err)
	}

	bounds := img.Bounds()
	if format == "png" && bounds.Dx() == p.width && bounds.Dy() == p.height {
		return src, nil
	}

	var processed image.Image = img
	if bounds.Dx() != p.width || bounds.Dy() != p.height {
		processed = p.resize(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return nil, fmt.Errorf("failed to encode cover image: %w", err)
	}
	return buf.Bytes(), nil
}

// resize scales img to fill the target, cropping the overflowing axis
// around the centre so the aspect ratio is kept.
func (p *CoverProcessor) resize(img image.Image) image.Image {
	src := img.Bounds()
	srcRatio := float64(src.Dx()) / float64(src.Dy())
	dstRatio := float64(p.width) / float64(p.height)

	crop := src
	if srcRatio > dstRatio {
		w := int(float64(src.Dy()) * dstRatio)
		x0 := src.Min.X + (src.Dx()-w)/2
		crop = image.Rect(x0, src.Min.Y, x0+w, src.Max.Y)
	} else if srcRatio < dstRatio {
		h := int(float64(src.Dx()) / dstRatio)
		y0 := src.Min.Y + (src.Dy()-h)/2
		crop = image.Rect(src.Min.X, y0, src.Max.X, y0+h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Over, nil)
	return dst
}
