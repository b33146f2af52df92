package service

import (
	"image"

	"golang.org/x/image/draw"
)

// DisplayConverter converts decoded stills into the zero-origin NRGBA
// layout the renderer uploads.
type DisplayConverter struct{}

// Transform returns s in display layout. Stills already in that layout are
// returned unchanged.
func (DisplayConverter) Transform(s Still) (Still, error) {
	if s.Image == nil || s.Image.Bounds().Empty() {
		return Still{}, ErrUnsupportedPixelFormat
	}
	if n, ok := s.Image.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return s, nil
	}
	b := s.Image.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), s.Image, b.Min, draw.Src)
	return Still{Image: dst}, nil
}
