package service

import (
	"errors"
	"fmt"
)

// Decode failures. Every error returned by ImageService wraps one of these.
var (
	ErrDecodeIO               = errors.New("cannot read picture")
	ErrCodec                  = errors.New("cannot decode picture")
	ErrUnsupportedFormat      = errors.New("unsupported image format")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrZeroFrames             = errors.New("animated image has no frames")
)

// PictureError ties a decode failure to the file it came from.
type PictureError struct {
	Path string
	Err  error
}

func (e *PictureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PictureError) Unwrap() error { return e.Err }

func pictureError(path string, kind error, cause error) error {
	if cause == nil {
		return &PictureError{Path: path, Err: kind}
	}
	return &PictureError{Path: path, Err: fmt.Errorf("%w: %v", kind, cause)}
}
