package transform

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/sonomed/sonoclass/tensor"
)

// Resize scales a 3-channel CHW tensor to a fixed height and width using
// bilinear interpolation.
type Resize struct {
	Height int
	Width  int
}

// NewResize creates a bilinear resize transform.
func NewResize(height, width int) (*Resize, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", height, width)
	}
	return &Resize{Height: height, Width: width}, nil
}

// Apply resizes the image. A no-op when the image already has the target
// size.
func (r *Resize) Apply(img *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkCHW(img); err != nil {
		return nil, err
	}
	if img.Shape[1] == r.Height && img.Shape[2] == r.Width {
		return img, nil
	}

	src, err := ToRGBA(img)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA64(image.Rect(0, 0, r.Width, r.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return FromImage(dst), nil
}
