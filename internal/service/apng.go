package service

import (
	"bytes"
	"image"
	"time"

	"github.com/kettek/apng"
	"golang.org/x/image/draw"
)

// fcTL dispose_op and blend_op values.
const (
	apngDisposeNone       = 0
	apngDisposeBackground = 1
	apngDisposePrevious   = 2

	apngBlendSource = 0
)

// decodeAPNG composites the frames of an animated PNG onto a canvas of the
// given size. A PNG without an animation control chunk decodes as a still.
func decodeAPNG(path string, data []byte, size Dimensions) ([]Frame, error) {
	a, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, classify(path, err)
	}
	animation := make([]apng.Frame, 0, len(a.Frames))
	for _, f := range a.Frames {
		// the default image is shown only by decoders without APNG support
		if !f.IsDefault {
			animation = append(animation, f)
		}
	}
	if len(animation) < 2 {
		return decodeStill(path, data)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	frames := make([]Frame, 0, len(animation))
	for _, f := range animation {
		if f.Image == nil {
			return nil, pictureError(path, ErrCodec, nil)
		}
		src := f.Image.Bounds()
		region := image.Rect(f.XOffset, f.YOffset, f.XOffset+src.Dx(), f.YOffset+src.Dy())

		var previous *image.NRGBA
		if f.DisposeOp == apngDisposePrevious {
			previous = clone(canvas)
		}
		op := draw.Over
		if f.BlendOp == apngBlendSource {
			op = draw.Src
		}
		draw.Draw(canvas, region, f.Image, src.Min, op)

		frames = append(frames, Frame{
			Still:    Still{Image: clone(canvas)},
			Interval: apngDelay(f.DelayNumerator, f.DelayDenominator),
		})

		switch f.DisposeOp {
		case apngDisposeBackground:
			draw.Draw(canvas, region, image.Transparent, image.Point{}, draw.Src)
		case apngDisposePrevious:
			canvas = previous
		}
	}
	return frames, nil
}

// apngDelay converts an fcTL delay fraction. A zero denominator means
// hundredths of a second.
func apngDelay(num, den uint16) time.Duration {
	if den == 0 {
		den = 100
	}
	return time.Duration(num) * time.Second / time.Duration(den)
}
