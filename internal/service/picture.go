package service

import (
	"fmt"
	"image"
	"time"
)

// Dimensions is the pixel size of a picture.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Empty reports whether either side is zero.
func (d Dimensions) Empty() bool {
	return d.Width <= 0 || d.Height <= 0
}

// Still is one decoded raster.
type Still struct {
	Image image.Image
}

// Dimensions returns the size of the raster, or zero when there is none.
func (s Still) Dimensions() Dimensions {
	if s.Image == nil {
		return Dimensions{}
	}
	b := s.Image.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// Frame is a still shown for Interval before the next one in an animation.
type Frame struct {
	Still
	Interval time.Duration
}

// Picture is a decoded file: one frame for still images, several looping
// frames for animations.
type Picture struct {
	Frames []Frame
	Info   Info
}

// Animated reports whether the picture has more than one frame.
func (p Picture) Animated() bool {
	return len(p.Frames) > 1
}

// Dimensions returns the size of the first frame.
func (p Picture) Dimensions() Dimensions {
	if len(p.Frames) == 0 {
		return Dimensions{}
	}
	return p.Frames[0].Dimensions()
}

// Info holds metadata about a picture file.
type Info struct {
	Path     string
	Format   string
	Size     int64
	ModTime  time.Time
	EXIFData map[string]string
}
