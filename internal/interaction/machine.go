package interaction

import (
	"math"

	"fypeek/internal/service"

	"github.com/sirupsen/logrus"
)

// Kind names an interaction state.
type Kind int

const (
	KindDisabled Kind = iota
	KindIdle
	KindDrag
	KindZoom
)

func (k Kind) String() string {
	switch k {
	case KindDisabled:
		return "disabled"
	case KindIdle:
		return "idle"
	case KindDrag:
		return "drag"
	case KindZoom:
		return "zoom"
	default:
		return "unknown"
	}
}

type state interface {
	kind() Kind
}

type disabledState struct{}
type idleState struct{}
type dragState struct{}
type zoomState struct {
	context ZoomContext
}

func (disabledState) kind() Kind { return KindDisabled }
func (idleState) kind() Kind     { return KindIdle }
func (dragState) kind() Kind     { return KindDrag }
func (zoomState) kind() Kind     { return KindZoom }

// Options tune the Machine. Zero values select the defaults.
type Options struct {
	ZoomSpeed       float64
	MinWindowExtent int
	FitScale        float64
}

func (o Options) withDefaults() Options {
	if o.ZoomSpeed <= 0 {
		o.ZoomSpeed = DefaultZoomSpeed
	}
	if o.MinWindowExtent <= 0 {
		o.MinWindowExtent = 64
	}
	if o.FitScale <= 0 || o.FitScale > 1 {
		o.FitScale = 0.8
	}
	return o
}

// Machine is the interaction state machine. It starts Disabled. All
// methods must be called from the UI goroutine.
type Machine struct {
	window    Window
	renderer  Renderer
	transform ColorTransformer
	opts      Options
	logger    logrus.FieldLogger

	state   state
	cursor  Position
	isError bool
	// window size requested while dragging or zooming
	pending *Size
}

// NewMachine creates a Disabled machine and applies the window's current
// scale factor to the renderer.
func NewMachine(window Window, renderer Renderer, transform ColorTransformer, opts Options, logger logrus.FieldLogger) *Machine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &Machine{
		window:    window,
		renderer:  renderer,
		transform: transform,
		opts:      opts.withDefaults(),
		logger:    logger,
		state:     disabledState{},
	}
	renderer.SetScaleFactor(window.ScaleFactor())
	return m
}

// State returns the current state.
func (m *Machine) State() Kind { return m.state.kind() }

// Dragging reports whether a window drag is in progress.
func (m *Machine) Dragging() bool { return m.State() == KindDrag }

// IsError reports whether an error message is being shown.
func (m *Machine) IsError() bool { return m.isError }

// ZoomContext returns the context of the zoom in progress.
func (m *Machine) ZoomContext() (ZoomContext, bool) {
	z, ok := m.state.(zoomState)
	return z.context, ok
}

func (m *Machine) setState(s state) {
	if s.kind() != m.state.kind() {
		m.logger.WithFields(logrus.Fields{
			"from":  m.state.kind(),
			"state": s.kind(),
		}).Debug("Interaction state changed")
	}
	m.state = s
}

// Enable leaves Disabled.
func (m *Machine) Enable() {
	if m.State() == KindDisabled {
		m.setState(idleState{})
	}
}

// Disable blocks user interaction. A zoom in progress is ended first.
// Disabling during a drag is a programming error and panics.
func (m *Machine) Disable() {
	switch s := m.state.(type) {
	case idleState:
		m.setState(disabledState{})
	case zoomState:
		m.exitZoom(s.context)
		m.setState(disabledState{})
	case dragState:
		panic("interaction: Disable called during a drag")
	}
}

// HandleEvent applies a window event.
func (m *Machine) HandleEvent(event Event) {
	switch e := event.(type) {
	case CursorMoved:
		m.cursor = e.Position
		if z, ok := m.state.(zoomState); ok {
			m.renderer.SetViewport(z.context.Viewport(m.screenCursor(), m.opts.ZoomSpeed))
			m.Draw()
		}

	case ScaleFactorChanged:
		m.renderer.SetScaleFactor(e.ScaleFactor)
		switch s := m.state.(type) {
		case zoomState:
			m.logger.Debug("Scale factor changed while zooming")
			m.exitZoom(s.context)
			m.setState(idleState{})
			m.applyPending()
		default:
			if m.isError {
				m.resize(m.renderer.ErrorBoxSize())
			}
		}
		m.Draw()

	case MousePressed:
		if _, ok := m.state.(idleState); !ok || m.isError {
			return
		}
		switch e.Button {
		case ButtonLeft:
			m.setState(dragState{})
			if err := m.window.BeginDrag(); err != nil {
				m.logger.WithError(err).Warn("Window drag failed")
			}
		case ButtonRight:
			m.enterZoom()
		}

	case MouseReleased:
		switch s := m.state.(type) {
		case dragState:
			if e.Button == ButtonLeft {
				m.setState(idleState{})
				m.applyPending()
			}
		case zoomState:
			if e.Button == ButtonRight {
				m.exitZoom(s.context)
				m.setState(idleState{})
				m.applyPending()
			}
		}
	}
}

// ShowBlank sizes the window for a picture still being decoded.
func (m *Machine) ShowBlank(dims service.Dimensions) {
	m.renderer.SetRenderMode(BlankMode{Size: dims})
	m.isError = false
	m.applyGeometry(SizeOf(dims))
}

// ShowPicture shows a decoded still. A still the display can't take is
// reported with ShowError instead.
func (m *Machine) ShowPicture(still service.Still) {
	converted, err := m.transform.Transform(still)
	if err != nil {
		m.logger.WithError(err).Warn("Color transform failed")
		m.ShowError(err)
		return
	}
	m.renderer.SetRenderMode(PictureMode{Still: converted})
	m.isError = false
	m.Enable()
	m.Draw()
}

// ShowError shows err in a message box sized to fit it.
func (m *Machine) ShowError(err error) {
	m.renderer.SetRenderMode(ErrorMode{Message: err.Error()})
	m.isError = true
	m.applyGeometry(m.renderer.ErrorBoxSize())
}

// Draw makes the window visible and redraws it.
func (m *Machine) Draw() {
	m.window.SetVisible(true)
	m.renderer.Draw()
}

// applyGeometry leaves Disabled and resizes the window.
func (m *Machine) applyGeometry(size Size) {
	m.Enable()
	m.resize(size)
	m.Draw()
}

// resize resizes the window now, or after the current drag or zoom.
func (m *Machine) resize(size Size) {
	switch m.state.(type) {
	case dragState, zoomState:
		m.pending = &size
	default:
		m.pending = nil
		m.positionSizeNext(size)
	}
}

func (m *Machine) applyPending() {
	if m.pending == nil {
		return
	}
	size := *m.pending
	m.pending = nil
	m.positionSizeNext(size)
	m.Draw()
}

func (m *Machine) screenCursor() Position {
	origin := m.window.Origin()
	return Position{X: m.cursor.X + float64(origin.X), Y: m.cursor.Y + float64(origin.Y)}
}

func (m *Machine) enterZoom() {
	origin := m.window.Origin()
	z := NewZoomContext(m.screenCursor(), origin, m.window.Size(), m.window.ScreenSize(), m.opts.MinWindowExtent)

	m.renderer.SetViewport(z.EntryViewport())
	m.renderer.Clear()
	m.window.SetOrigin(Point{})
	m.window.SetSize(z.ScreenSize)
	m.Draw()
	m.setState(zoomState{context: z})
}

func (m *Machine) exitZoom(z ZoomContext) {
	vp := m.renderer.Viewport()
	origin := Point{
		X: vp.Origin.X,
		Y: z.ScreenSize.Height - (vp.Origin.Y + vp.Size.Height),
	}
	m.window.SetSize(vp.Size)
	m.window.SetOrigin(origin)
	vp.Origin = Point{}
	m.renderer.SetViewport(vp)
	m.Draw()
}

// positionSizeNext resizes the window to target, shrunk to fit the screen
// when it is too large, and keeps the window centred where it was.
func (m *Machine) positionSizeNext(target Size) {
	if target.Empty() {
		target = Size{Width: 1, Height: 1}
	}
	origin := m.window.Origin()
	previous := m.window.Size()
	screen := m.window.ScreenSize()

	w, h := float64(target.Width), float64(target.Height)
	sw, sh := float64(screen.Width), float64(screen.Height)
	scale := m.opts.FitScale
	fitted := Size{Width: target.Width, Height: target.Height}
	if !screen.Empty() && (w > sw*scale || h > sh*scale) {
		fw, fh := sw, h*sw/w
		if sw/sh > w/h {
			fw, fh = w*sh/h, sh
		}
		fitted = Size{
			Width:  int(math.Round(fw * scale)),
			Height: int(math.Round(fh * scale)),
		}
	}

	m.window.SetSize(fitted)
	origin.X -= fitted.Width/2 - previous.Width/2
	origin.Y -= fitted.Height/2 - previous.Height/2
	m.window.SetOrigin(origin)
	m.renderer.SetViewport(Viewport{Size: fitted})
}
