package loader

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"fypeek/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

// fakeDecoder returns canned pictures. When gated, each Decode announces
// itself on started and waits for a token on gate.
type fakeDecoder struct {
	mu      sync.Mutex
	calls   []string
	gated   bool
	started chan string
	gate    chan struct{}
	frames  map[string][]service.Frame
	errs    map[string]error
	panics  map[string]bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		started: make(chan string, 16),
		gate:    make(chan struct{}),
		frames:  map[string][]service.Frame{},
		errs:    map[string]error{},
		panics:  map[string]bool{},
	}
}

func (f *fakeDecoder) Decode(path string) (service.Picture, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	gated := f.gated
	f.mu.Unlock()

	if gated {
		f.started <- path
		<-f.gate
	}
	if f.panics[path] {
		panic("corrupt state in " + path)
	}
	if err := f.errs[path]; err != nil {
		return service.Picture{}, err
	}
	frames, ok := f.frames[path]
	if !ok {
		frames = []service.Frame{stillFrame(4, 3)}
	}
	return service.Picture{Frames: frames, Info: service.Info{Path: path}}, nil
}

func (f *fakeDecoder) decoded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeProber struct {
	errs map[string]error
}

func (p fakeProber) ProbeDimensions(path string) (service.Dimensions, error) {
	if err := p.errs[path]; err != nil {
		return service.Dimensions{}, err
	}
	return service.Dimensions{Width: 4, Height: 3}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func stillFrame(w, h int) service.Frame {
	return service.Frame{Still: service.Still{Image: image.NewNRGBA(image.Rect(0, 0, w, h))}}
}

func newTestDecoder(t *testing.T, d PictureDecoder) *BackgroundDecoder {
	t.Helper()
	bd := NewBackgroundDecoder(context.Background(), d, nil)
	t.Cleanup(bd.Close)
	return bd
}

func fetch(t *testing.T, bd *BackgroundDecoder) DecodeResult {
	t.Helper()
	var result DecodeResult
	require.Eventually(t, func() bool {
		r, ok := bd.TryFetch()
		result = r
		return ok
	}, waitFor, tick)
	return result
}

func TestTryFetchWithoutRequest(t *testing.T) {
	bd := newTestDecoder(t, newFakeDecoder())
	_, ok := bd.TryFetch()
	assert.False(t, ok)
}

func TestDecoderDeliversRequestedPicture(t *testing.T) {
	bd := newTestDecoder(t, newFakeDecoder())
	bd.Request("/pics/a.png")

	result := fetch(t, bd)
	require.NoError(t, result.Err)
	assert.Equal(t, "/pics/a.png", result.Path)
	assert.Equal(t, service.Dimensions{Width: 4, Height: 3}, result.Picture.Dimensions())

	_, ok := bd.TryFetch()
	assert.False(t, ok, "a result is delivered once")
}

func TestDecoderSingleFlightLatestWins(t *testing.T) {
	fake := newFakeDecoder()
	fake.gated = true
	bd := newTestDecoder(t, fake)

	bd.Request("/pics/a.png")
	assert.Equal(t, "/pics/a.png", <-fake.started)

	bd.Request("/pics/b.png")
	bd.Request("/pics/c.png")
	fake.gate <- struct{}{}

	// a is published but not consumed: the worker must not start another job
	select {
	case p := <-fake.started:
		t.Fatalf("worker started %s before its previous result was consumed", p)
	case <-time.After(50 * time.Millisecond):
	}

	// the stale result is discarded, which releases the worker
	require.Eventually(t, func() bool {
		_, ok := bd.TryFetch()
		assert.False(t, ok, "superseded result must not be returned")
		return len(fake.decoded()) == 2
	}, waitFor, tick)
	assert.Equal(t, "/pics/c.png", <-fake.started)
	fake.gate <- struct{}{}

	result := fetch(t, bd)
	assert.Equal(t, "/pics/c.png", result.Path)
	assert.Equal(t, []string{"/pics/a.png", "/pics/c.png"}, fake.decoded())
}

func TestDecoderDiscardsSamePathFromEarlierRequest(t *testing.T) {
	fake := newFakeDecoder()
	fake.gated = true
	bd := newTestDecoder(t, fake)

	bd.Request("/pics/a.png")
	<-fake.started
	bd.Request("/pics/a.png") // file changed on disk while decoding
	fake.gate <- struct{}{}

	require.Eventually(t, func() bool {
		_, ok := bd.TryFetch()
		assert.False(t, ok)
		return len(fake.decoded()) == 2
	}, waitFor, tick)
	<-fake.started
	fake.gate <- struct{}{}

	result := fetch(t, bd)
	assert.Equal(t, "/pics/a.png", result.Path)
}

func TestDecoderErrorsKeepWorkerAlive(t *testing.T) {
	fake := newFakeDecoder()
	fake.errs["/pics/bad.png"] = &service.PictureError{Path: "/pics/bad.png", Err: service.ErrCodec}
	fake.panics["/pics/worse.png"] = true
	bd := newTestDecoder(t, fake)

	bd.Request("/pics/bad.png")
	result := fetch(t, bd)
	assert.ErrorIs(t, result.Err, service.ErrCodec)

	bd.Request("/pics/worse.png")
	result = fetch(t, bd)
	assert.ErrorIs(t, result.Err, service.ErrCodec)
	var perr *service.PictureError
	require.True(t, errors.As(result.Err, &perr))
	assert.Equal(t, "/pics/worse.png", perr.Path)

	bd.Request("/pics/good.png")
	result = fetch(t, bd)
	assert.NoError(t, result.Err)
}

func TestDecoderCloseWhileWaitingForAck(t *testing.T) {
	bd := NewBackgroundDecoder(context.Background(), newFakeDecoder(), nil)
	bd.Request("/pics/a.png")
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		bd.Close()
		bd.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("Close did not return")
	}
}

func TestDecoderStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bd := NewBackgroundDecoder(ctx, newFakeDecoder(), nil)
	cancel()
	select {
	case <-bd.stopped:
	case <-time.After(waitFor):
		t.Fatal("worker still running after cancel")
	}
}

func newTestSequencer(t *testing.T, fake *fakeDecoder, prober fakeProber, clock *fakeClock) *Sequencer {
	t.Helper()
	return NewSequencer(newTestDecoder(t, fake), prober, WithClock(clock.Now))
}

// nextItem polls the sequencer until it produces something.
func nextItem(t *testing.T, s *Sequencer) LoadResult {
	t.Helper()
	var item LoadResult
	require.Eventually(t, func() bool {
		r, ok := s.Next()
		item = r
		return ok
	}, waitFor, tick)
	return item
}

func TestSequencerIdle(t *testing.T) {
	s := newTestSequencer(t, newFakeDecoder(), fakeProber{}, newFakeClock())
	_, ok := s.Next()
	assert.False(t, ok)
	assert.True(t, s.Exhausted())
}

func TestSequencerStillPhaseOrder(t *testing.T) {
	s := newTestSequencer(t, newFakeDecoder(), fakeProber{}, newFakeClock())
	s.Load("/pics/a.png")
	assert.Equal(t, "/pics/a.png", s.Path())

	item, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, LoadDimensions{Dimensions: service.Dimensions{Width: 4, Height: 3}}, item)
	assert.False(t, s.Exhausted())

	frame, ok := nextItem(t, s).(LoadFrame)
	require.True(t, ok)
	assert.True(t, frame.First)
	assert.Equal(t, "/pics/a.png", frame.Info.Path)
	assert.False(t, s.Animated())

	assert.True(t, s.Exhausted())
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestSequencerProbeFailure(t *testing.T) {
	probeErr := &service.PictureError{Path: "/pics/a.png", Err: service.ErrUnsupportedFormat}
	s := newTestSequencer(t, newFakeDecoder(), fakeProber{errs: map[string]error{"/pics/a.png": probeErr}}, newFakeClock())
	s.Load("/pics/a.png")

	item, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, LoadError{Err: probeErr}, item)
	assert.True(t, s.Exhausted())

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestSequencerDecodeFailureReportedOnce(t *testing.T) {
	fake := newFakeDecoder()
	fake.errs["/pics/a.png"] = &service.PictureError{Path: "/pics/a.png", Err: service.ErrCodec}
	s := newTestSequencer(t, fake, fakeProber{}, newFakeClock())
	s.Load("/pics/a.png")

	_, ok := s.Next()
	require.True(t, ok)

	loadErr, ok := nextItem(t, s).(LoadError)
	require.True(t, ok)
	assert.ErrorIs(t, loadErr.Err, service.ErrCodec)
	assert.True(t, s.Exhausted())

	for i := 0; i < 5; i++ {
		_, ok = s.Next()
		assert.False(t, ok)
	}
}

func TestSequencerZeroFrames(t *testing.T) {
	fake := newFakeDecoder()
	fake.frames["/pics/a.gif"] = []service.Frame{}
	s := newTestSequencer(t, fake, fakeProber{}, newFakeClock())
	s.Load("/pics/a.gif")
	s.Next()

	loadErr, ok := nextItem(t, s).(LoadError)
	require.True(t, ok)
	assert.ErrorIs(t, loadErr.Err, service.ErrZeroFrames)
}

func TestSequencerAnimationPacing(t *testing.T) {
	fake := newFakeDecoder()
	first, second := stillFrame(4, 3), stillFrame(4, 3)
	first.Interval = 100 * time.Millisecond
	second.Interval = 50 * time.Millisecond
	fake.frames["/pics/a.gif"] = []service.Frame{first, second}
	clock := newFakeClock()
	s := newTestSequencer(t, fake, fakeProber{}, clock)
	s.Load("/pics/a.gif")
	s.Next()

	item, ok := nextItem(t, s).(LoadFrame)
	require.True(t, ok)
	assert.True(t, item.First)
	assert.Equal(t, first.Interval, item.Frame.Interval)
	assert.True(t, s.Animated())

	_, ok = s.Next()
	assert.False(t, ok, "first frame is held for its interval")

	clock.Advance(100 * time.Millisecond)
	r, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, second.Interval, r.(LoadFrame).Frame.Interval)
	assert.False(t, r.(LoadFrame).First)

	clock.Advance(49 * time.Millisecond)
	_, ok = s.Next()
	assert.False(t, ok)

	clock.Advance(time.Millisecond)
	r, ok = s.Next()
	require.True(t, ok)
	assert.Equal(t, first.Interval, r.(LoadFrame).Frame.Interval, "animation loops")
	assert.False(t, s.Exhausted())
}

func TestSequencerSupersededLoad(t *testing.T) {
	s := newTestSequencer(t, newFakeDecoder(), fakeProber{}, newFakeClock())
	s.Load("/pics/a.png")
	s.Load("/pics/b.png")

	item, ok := s.Next()
	require.True(t, ok)
	assert.IsType(t, LoadDimensions{}, item)

	frame, ok := nextItem(t, s).(LoadFrame)
	require.True(t, ok)
	assert.Equal(t, "/pics/b.png", frame.Info.Path)
}
