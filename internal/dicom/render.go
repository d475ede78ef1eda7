package dicom

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/image/draw"
)

// FramePNG decodes one frame to a bitmap and encodes it as PNG.
func FramePNG(fr *frame.Frame) ([]byte, error) {
	img, err := fr.GetImage()
	if err != nil {
		return nil, fmt.Errorf("get frame image: %w", err)
	}
	return EncodePNG(img)
}

// EncodePNG encodes a bitmap to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales a bitmap down so its longest side is maxDim pixels,
// preserving aspect ratio. Images already small enough pass through.
func Thumbnail(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	outW, outH := maxDim, maxDim
	if w > h {
		outH = h * maxDim / w
	} else {
		outW = w * maxDim / h
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
