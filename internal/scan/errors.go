package scan

import "errors"

var (
	// ErrIO wraps a failed directory listing.
	ErrIO = errors.New("IO error")
	// ErrWatch wraps a failure to subscribe to directory changes.
	ErrWatch = errors.New("file watcher error")
	// ErrInvalidPath is returned for a path that is neither a file nor a directory.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNoMatchingEntry is returned when the requested file is not a listed picture.
	ErrNoMatchingEntry = errors.New("unsupported extension")
	// ErrEmptyList is returned when a directory holds no pictures.
	ErrEmptyList = errors.New("empty filepaths list")
	// ErrWatchDisconnected means the watch subscription is gone for good.
	ErrWatchDisconnected = errors.New("file watcher disconnected")
)
