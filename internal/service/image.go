package service

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// exifFields are the tags copied into Info.EXIFData.
var exifFields = []exif.FieldName{
	exif.DateTime, exif.Model, exif.Make, exif.ExposureTime,
	exif.FNumber, exif.ISOSpeedRatings, exif.FocalLength,
}

// ImageService decodes picture files and reads their metadata.
type ImageService struct {
	logger logrus.FieldLogger
}

// NewImageService creates a new ImageService.
func NewImageService(logger logrus.FieldLogger) *ImageService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImageService{logger: logger}
}

// GetEXIF extracts a few common EXIF fields from an image file.
// Most non-JPEG files carry none; that yields an empty map.
func (is *ImageService) GetEXIF(r io.Reader) map[string]string {
	result := make(map[string]string)
	x, err := exif.Decode(r)
	if err != nil {
		return result
	}
	for _, field := range exifFields {
		tag, err := x.Get(field)
		if err == nil && tag != nil {
			result[string(field)] = tag.String()
		}
	}
	return result
}

// ProbeDimensions reads only the header of path.
func (is *ImageService) ProbeDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, pictureError(path, ErrDecodeIO, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, classify(path, err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Decode reads and fully decodes path. GIF and APNG files become animated
// pictures when they hold more than one frame.
func (is *ImageService) Decode(path string) (Picture, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Picture{}, pictureError(path, ErrDecodeIO, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Picture{}, pictureError(path, ErrDecodeIO, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Picture{}, classify(path, err)
	}

	var frames []Frame
	switch format {
	case "gif":
		frames, err = decodeGIF(path, data)
	case "png":
		frames, err = decodeAPNG(path, data, Dimensions{Width: cfg.Width, Height: cfg.Height})
	default:
		frames, err = decodeStill(path, data)
	}
	if err != nil {
		return Picture{}, err
	}

	info := Info{
		Path:     path,
		Format:   format,
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		EXIFData: is.GetEXIF(bytes.NewReader(data)),
	}
	is.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"frames": len(frames),
	}).Debug("Picture decoded")
	return Picture{Frames: frames, Info: info}, nil
}

func classify(path string, err error) error {
	if errors.Is(err, image.ErrFormat) {
		return pictureError(path, ErrUnsupportedFormat, nil)
	}
	return pictureError(path, ErrCodec, err)
}

func decodeStill(path string, data []byte) ([]Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, classify(path, err)
	}
	if img.Bounds().Empty() {
		return nil, pictureError(path, ErrUnsupportedPixelFormat, nil)
	}
	return []Frame{{Still: Still{Image: img}}}, nil
}

// decodeGIF composites every GIF frame onto the logical screen, honouring
// the disposal method of the previous frame.
func decodeGIF(path string, data []byte) ([]Frame, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, classify(path, err)
	}
	if len(g.Image) == 0 {
		return nil, pictureError(path, ErrZeroFrames, nil)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)
	frames := make([]Frame, 0, len(g.Image))
	for i, src := range g.Image {
		var previous *image.NRGBA
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = clone(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		frames = append(frames, Frame{
			Still:    Still{Image: clone(canvas)},
			Interval: time.Duration(delay) * 10 * time.Millisecond,
		})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return frames, nil
}

func clone(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
