package analyzer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// EncodeFrame encodes img as JPEG. When maxDimension is positive and the longest side
// exceeds it, the frame is downscaled first with its aspect ratio preserved
func EncodeFrame(img image.Image, quality, maxDimension int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no frame to encode")
	}

	img = downscale(img, maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame as JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func downscale(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDimension <= 0 || (w <= maxDimension && h <= maxDimension) {
		return img
	}

	if w >= h {
		h = max(1, h*maxDimension/w)
		w = maxDimension
	} else {
		w = max(1, w*maxDimension/h)
		h = maxDimension
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// DataURI wraps JPEG bytes in a data URI suitable for an image_url message part
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}
