package loader

import (
	"time"

	"fypeek/internal/service"
)

// framesPlayer yields the frames of a decoded picture. A still picture is
// yielded once. An animation loops forever, each frame held for its
// interval before the next one is due.
type framesPlayer struct {
	frames   []service.Frame
	playhead int
	onset    time.Time
	interval time.Duration
	clock    func() time.Time
	spent    bool
}

func newFramesPlayer(frames []service.Frame, clock func() time.Time) (*framesPlayer, error) {
	if len(frames) == 0 {
		return nil, service.ErrZeroFrames
	}
	return &framesPlayer{frames: frames, onset: clock(), clock: clock}, nil
}

func (p *framesPlayer) animated() bool {
	return len(p.frames) > 1
}

// exhausted reports that no further frame will ever be yielded.
func (p *framesPlayer) exhausted() bool {
	return !p.animated() && p.spent
}

func (p *framesPlayer) next() (service.Frame, bool) {
	if !p.animated() {
		if p.spent {
			return service.Frame{}, false
		}
		p.spent = true
		return p.frames[0], true
	}

	now := p.clock()
	if now.Sub(p.onset) < p.interval {
		return service.Frame{}, false
	}
	frame := p.frames[p.playhead]
	p.playhead = (p.playhead + 1) % len(p.frames)
	p.onset = now
	p.interval = frame.Interval
	return frame, true
}
