package transform

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"

	"github.com/sonomed/sonoclass/tensor"
)

// Decode reads an encoded image and converts it to a 3-channel CHW tensor
// with values in [0, 1]. JPEG, PNG and BMP are supported.
func Decode(r io.Reader) (*tensor.Tensor, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded image to a 3-channel CHW tensor in [0, 1].
func FromImage(img image.Image) *tensor.Tensor {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	plane := h * w

	out, _ := tensor.Zeros([]int{3, h, w})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*w + x
			out.Data[0*plane+idx] = float64(r) / 65535.0
			out.Data[1*plane+idx] = float64(g) / 65535.0
			out.Data[2*plane+idx] = float64(b) / 65535.0
		}
	}
	return out
}

// ToRGBA converts a CHW tensor back to an image. Values are clamped to
// [0, 1] before quantization, so the round trip loses precision but never
// wraps.
func ToRGBA(img *tensor.Tensor) (*image.RGBA64, error) {
	if err := checkCHW(img); err != nil {
		return nil, err
	}
	if img.Shape[0] != 3 {
		return nil, fmt.Errorf("expected 3 channels, got %d", img.Shape[0])
	}

	h, w := img.Shape[1], img.Shape[2]
	plane := h * w
	out := image.NewRGBA64(image.Rect(0, 0, w, h))

	quantize := func(v float64) uint16 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint16(v * 65535.0)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			out.SetRGBA64(x, y, color.RGBA64{
				R: quantize(img.Data[0*plane+idx]),
				G: quantize(img.Data[1*plane+idx]),
				B: quantize(img.Data[2*plane+idx]),
				A: 0xffff,
			})
		}
	}
	return out, nil
}
