package loader

import (
	"time"

	"fypeek/internal/service"

	"github.com/sirupsen/logrus"
)

// LoadResult is one item produced by a Sequencer: LoadError,
// LoadDimensions or LoadFrame.
type LoadResult interface {
	isLoadResult()
}

// LoadError reports that the current load failed.
type LoadError struct {
	Err error
}

// LoadDimensions carries the probed size before the picture is decoded.
type LoadDimensions struct {
	Dimensions service.Dimensions
}

// LoadFrame carries a frame to show. First is set on the first frame of a
// load.
type LoadFrame struct {
	Frame service.Frame
	Info  service.Info
	First bool
}

func (LoadError) isLoadResult()      {}
func (LoadDimensions) isLoadResult() {}
func (LoadFrame) isLoadResult()      {}

type loadPhase int

const (
	phaseNone loadPhase = iota
	phaseError
	phaseLoading
	phaseLoaded
)

func (p loadPhase) String() string {
	switch p {
	case phaseError:
		return "error"
	case phaseLoading:
		return "loading"
	case phaseLoaded:
		return "loaded"
	default:
		return "none"
	}
}

// Sequencer turns a load into a lazy sequence: the probed dimensions first,
// then the decoded frames, paced for animations. It is driven by calling
// Next once per tick and never blocks.
type Sequencer struct {
	decoder *BackgroundDecoder
	prober  DimensionProber
	clock   func() time.Time
	logger  logrus.FieldLogger

	path   string
	phase  loadPhase
	err    error
	dims   *service.Dimensions
	info   service.Info
	player *framesPlayer
	first  bool
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithClock replaces time.Now for frame pacing.
func WithClock(clock func() time.Time) SequencerOption {
	return func(s *Sequencer) { s.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) SequencerOption {
	return func(s *Sequencer) { s.logger = logger }
}

// NewSequencer creates an idle Sequencer. decoder outlives it.
func NewSequencer(decoder *BackgroundDecoder, prober DimensionProber, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		decoder: decoder,
		prober:  prober,
		clock:   time.Now,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	return s
}

// Load starts loading path, discarding whatever was loading before. The
// decode is requested first and the probe runs synchronously.
func (s *Sequencer) Load(path string) {
	s.decoder.Request(path)
	s.path = path
	s.player = nil
	s.dims = nil
	s.err = nil
	s.info = service.Info{}

	dims, err := s.prober.ProbeDimensions(path)
	if err != nil {
		s.phase = phaseError
		s.err = err
	} else {
		s.phase = phaseLoading
		s.dims = &dims
	}
	s.logger.WithFields(logrus.Fields{"path": path, "phase": s.phase}).Debug("Load started")
}

// Path returns the path of the current load.
func (s *Sequencer) Path() string { return s.path }

// Animated reports whether the loaded picture has several frames.
func (s *Sequencer) Animated() bool {
	return s.player != nil && s.player.animated()
}

// Exhausted reports that Next will never produce another item for the
// current load.
func (s *Sequencer) Exhausted() bool {
	switch s.phase {
	case phaseNone:
		return true
	case phaseError:
		return s.err == nil
	case phaseLoaded:
		return s.player.exhausted()
	default:
		return false
	}
}

// Next returns the next item of the current load, or false when nothing is
// available this tick.
func (s *Sequencer) Next() (LoadResult, bool) {
	switch s.phase {
	case phaseError:
		if s.err == nil {
			return nil, false
		}
		err := s.err
		s.err = nil
		return LoadError{Err: err}, true

	case phaseLoading:
		if s.dims != nil {
			dims := *s.dims
			s.dims = nil
			return LoadDimensions{Dimensions: dims}, true
		}
		result, ok := s.decoder.TryFetch()
		if !ok {
			return nil, false
		}
		if result.Err != nil {
			s.phase = phaseError
			s.err = result.Err
			return s.Next()
		}
		player, err := newFramesPlayer(result.Picture.Frames, s.clock)
		if err != nil {
			s.phase = phaseError
			s.err = &service.PictureError{Path: s.path, Err: err}
			return s.Next()
		}
		s.phase = phaseLoaded
		s.player = player
		s.info = result.Picture.Info
		s.first = true
		return s.Next()

	case phaseLoaded:
		frame, ok := s.player.next()
		if !ok {
			return nil, false
		}
		first := s.first
		s.first = false
		return LoadFrame{Frame: frame, Info: s.info, First: first}, true

	default:
		return nil, false
	}
}
