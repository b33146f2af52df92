package ui

import (
	"math"

	"fypeek/internal/interaction"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/sirupsen/logrus"
)

// fyneWindow adapts a fyne.Window to interaction.Window. Sizes are in
// physical pixels.
//
// Fyne can't place windows, so the window is kept centred on the screen and
// the origin asked for by the machine is honoured by offsetting the content
// inside it. A window as large as the screen is shown full screen. The
// screen size comes from configuration.
type fyneWindow struct {
	win     fyne.Window
	content *pictureView
	logger  logrus.FieldLogger

	size       interaction.Size
	origin     interaction.Point
	screen     interaction.Size
	visible    bool
	fullScreen bool

	dragging bool
	// sub-pixel drag movement not applied to origin yet
	residual interaction.Position
}

// newWindow creates a borderless window showing content when the desktop
// driver supports it.
func newWindow(a fyne.App, title string, screen interaction.Size, content *pictureView, logger logrus.FieldLogger) *fyneWindow {
	var win fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		win = drv.CreateSplashWindow()
		win.SetTitle(title)
	} else {
		win = a.NewWindow(title)
	}
	win.SetPadded(false)
	win.SetContent(content)

	w := &fyneWindow{
		win:     win,
		content: content,
		logger:  logger,
		screen:  screen,
		// an empty window centred on the screen
		origin: interaction.Point{X: screen.Width / 2, Y: screen.Height / 2},
	}
	content.onDrag = w.dragBy
	content.onDragEnd = w.endDrag
	return w
}

func (w *fyneWindow) scale() float32 {
	if c := w.win.Canvas(); c != nil && c.Scale() > 0 {
		return c.Scale()
	}
	return 1
}

// centred is where the window system actually puts the window.
func (w *fyneWindow) centred() interaction.Point {
	if w.fullScreen {
		return interaction.Point{}
	}
	return interaction.Point{
		X: (w.screen.Width - w.size.Width) / 2,
		Y: (w.screen.Height - w.size.Height) / 2,
	}
}

func (w *fyneWindow) syncOffset() {
	c := w.centred()
	w.content.SetContentOffset(interaction.Point{X: w.origin.X - c.X, Y: w.origin.Y - c.Y})
}

// Size implements interaction.Window.
func (w *fyneWindow) Size() interaction.Size { return w.size }

// SetSize implements interaction.Window.
func (w *fyneWindow) SetSize(size interaction.Size) {
	w.size = size
	full := size == w.screen
	if full != w.fullScreen {
		w.fullScreen = full
		w.win.SetFullScreen(full)
	}
	if !full {
		s := w.scale()
		w.win.Resize(fyne.NewSize(float32(size.Width)/s, float32(size.Height)/s))
		w.win.CenterOnScreen()
	}
	w.syncOffset()
}

// Origin implements interaction.Window.
func (w *fyneWindow) Origin() interaction.Point { return w.origin }

// SetOrigin implements interaction.Window.
func (w *fyneWindow) SetOrigin(p interaction.Point) {
	w.origin = p
	w.syncOffset()
}

// ScreenSize implements interaction.Window.
func (w *fyneWindow) ScreenSize() interaction.Size { return w.screen }

// ScaleFactor implements interaction.Window.
func (w *fyneWindow) ScaleFactor() float64 { return float64(w.scale()) }

// BeginDrag implements interaction.Window. Drag movement reported by the
// content moves the origin until the drag ends.
func (w *fyneWindow) BeginDrag() error {
	w.logger.Debug("Window drag started")
	w.dragging = true
	w.residual = interaction.Position{}
	return nil
}

// dragBy moves the origin by a pixel delta.
func (w *fyneWindow) dragBy(dx, dy float64) {
	if !w.dragging {
		return
	}
	w.residual.X += dx
	w.residual.Y += dy
	mx, my := math.Trunc(w.residual.X), math.Trunc(w.residual.Y)
	w.residual.X -= mx
	w.residual.Y -= my
	w.origin.X += int(mx)
	w.origin.Y += int(my)
	w.syncOffset()
	w.content.Refresh()
}

func (w *fyneWindow) endDrag() {
	if w.dragging {
		w.logger.WithField("origin", w.origin).Debug("Window drag ended")
	}
	w.dragging = false
}

// SetVisible implements interaction.Window.
func (w *fyneWindow) SetVisible(visible bool) {
	if visible == w.visible {
		return
	}
	w.visible = visible
	if visible {
		w.win.Show()
	} else {
		w.win.Hide()
	}
}

// SetTitle implements interaction.Window.
func (w *fyneWindow) SetTitle(title string) { w.win.SetTitle(title) }

var _ interaction.Window = (*fyneWindow)(nil)
