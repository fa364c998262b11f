package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// Render draws img onto a new RGBA bitmap.
//
// The bitmap has the icon's intrinsic dimensions unless maxSize is positive
// and either side exceeds it, in which case the icon is scaled down to fit a
// maxSize x maxSize box keeping its aspect ratio.
func Render(img image.Image, maxSize int) (*image.RGBA, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("icon has empty bounds %v", bounds)
	}

	if maxSize > 0 && (bounds.Dx() > maxSize || bounds.Dy() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	return clone.AsRGBA(img), nil
}

// EncodePNGBase64 compresses img as a lossless PNG and returns the bytes as
// standard base64 without line wrapping.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode icon: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodeIcon renders img and returns it as a base64 PNG string.
func EncodeIcon(img image.Image, maxSize int) (string, error) {
	rgba, err := Render(img, maxSize)
	if err != nil {
		return "", err
	}
	return EncodePNGBase64(rgba)
}
