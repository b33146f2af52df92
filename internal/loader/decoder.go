// Package loader decodes pictures off the main goroutine and turns each
// load into a paced sequence of results for the UI.
package loader

import (
	"context"
	"fmt"
	"sync"

	"fypeek/internal/service"

	"github.com/sirupsen/logrus"
)

// PictureDecoder fully decodes a file.
type PictureDecoder interface {
	Decode(path string) (service.Picture, error)
}

// DimensionProber reads the size of a picture without decoding it.
type DimensionProber interface {
	ProbeDimensions(path string) (service.Dimensions, error)
}

// DecodeResult is the outcome of one background decode.
type DecodeResult struct {
	Path    string
	Picture service.Picture
	Err     error
}

type request struct {
	path       string
	generation uint64
}

type finished struct {
	path       string
	generation uint64
}

// BackgroundDecoder runs a single worker goroutine that decodes one picture
// at a time. Results are handed back through a one-slot mailbox and the
// worker waits for the main goroutine to consume or discard each of them
// before it accepts the next request.
//
// Request and TryFetch must be called from one goroutine.
type BackgroundDecoder struct {
	decoder PictureDecoder
	logger  logrus.FieldLogger

	pendingMu sync.Mutex
	pending   *request
	wake      chan struct{}

	done chan finished
	ack  chan struct{}

	mailboxMu sync.Mutex
	mailbox   *DecodeResult

	// owned by the caller's goroutine
	current    string
	generation uint64

	cancel    context.CancelFunc
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewBackgroundDecoder starts the worker. It stops when ctx is cancelled or
// Close is called.
func NewBackgroundDecoder(ctx context.Context, decoder PictureDecoder, logger logrus.FieldLogger) *BackgroundDecoder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(ctx)
	d := &BackgroundDecoder{
		decoder: decoder,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		done:    make(chan finished, 1),
		ack:     make(chan struct{}, 1),
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go d.run(ctx)
	return d
}

// Request asks for path to be decoded. It never blocks. A request that has
// not been picked up yet is replaced, and a result still in flight for an
// earlier request is discarded when it arrives.
func (d *BackgroundDecoder) Request(path string) {
	d.generation++
	d.current = path

	d.pendingMu.Lock()
	d.pending = &request{path: path, generation: d.generation}
	d.pendingMu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// TryFetch returns the result of the latest request if the worker has
// finished it. It never blocks.
func (d *BackgroundDecoder) TryFetch() (DecodeResult, bool) {
	if d.generation == 0 {
		return DecodeResult{}, false
	}
	var f finished
	select {
	case f = <-d.done:
	default:
		return DecodeResult{}, false
	}

	d.mailboxMu.Lock()
	result := d.mailbox
	d.mailbox = nil
	d.mailboxMu.Unlock()
	// the worker is parked until this arrives; ack is always empty here
	d.ack <- struct{}{}

	if f.generation != d.generation || result == nil {
		d.logger.WithFields(logrus.Fields{
			"path":    f.path,
			"current": d.current,
		}).Debug("Discarding superseded decode")
		return DecodeResult{}, false
	}
	return *result, true
}

// Close stops the worker and waits for it to exit.
func (d *BackgroundDecoder) Close() {
	d.closeOnce.Do(func() {
		d.cancel()
		<-d.stopped
	})
}

func (d *BackgroundDecoder) takePending() (request, bool) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	if d.pending == nil {
		return request{}, false
	}
	r := *d.pending
	d.pending = nil
	return r, true
}

func (d *BackgroundDecoder) run(ctx context.Context) {
	defer close(d.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		}
		req, ok := d.takePending()
		if !ok {
			continue
		}

		result := d.decode(req.path)

		d.mailboxMu.Lock()
		d.mailbox = &result
		d.mailboxMu.Unlock()

		select {
		case d.done <- finished{path: req.path, generation: req.generation}:
		case <-ctx.Done():
			return
		}
		select {
		case <-d.ack:
		case <-ctx.Done():
			return
		}
	}
}

func (d *BackgroundDecoder) decode(path string) (result DecodeResult) {
	result.Path = path
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("path", path).Errorf("Decoder panicked: %v", r)
			result = DecodeResult{
				Path: path,
				Err:  &service.PictureError{Path: path, Err: fmt.Errorf("%w: %v", service.ErrCodec, r)},
			}
		}
	}()
	d.logger.WithField("path", path).Debug("Decoding")
	result.Picture, result.Err = d.decoder.Decode(path)
	return result
}
