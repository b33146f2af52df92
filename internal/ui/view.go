package ui

import (
	"image"
	"image/color"
	"math"
	"strings"

	"fypeek/internal/interaction"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	errorPadding  = 16 // pixels around the message, before scaling
	errorWrapAt   = 60 // characters per line
	errorLineGap  = 4
	defaultMinDim = 1
)

var (
	clearColor = color.NRGBA{A: 0xff}
	blankColor = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	errorColor = color.NRGBA{R: 0x5a, G: 0x12, B: 0x12, A: 0xff}
	textColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// pictureView is the window's only content. It draws the current render
// mode into the viewport and reports mouse input as interaction events.
// It implements interaction.Renderer.
type pictureView struct {
	widget.BaseWidget

	raster   *canvas.Raster
	mode     interaction.RenderMode
	viewport interaction.Viewport
	scale    float64
	cleared  bool
	// shift of the viewport inside the drawable, top-left based
	offset interaction.Point

	onEvent   func(interaction.Event)
	onDrag    func(dx, dy float64)
	onDragEnd func()
}

func newPictureView(onEvent func(interaction.Event)) *pictureView {
	v := &pictureView{scale: 1, onEvent: onEvent}
	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)
	return v
}

// SetRenderMode implements interaction.Renderer.
func (v *pictureView) SetRenderMode(mode interaction.RenderMode) {
	v.mode = mode
	v.cleared = false
}

// Viewport implements interaction.Renderer.
func (v *pictureView) Viewport() interaction.Viewport { return v.viewport }

// SetViewport implements interaction.Renderer.
func (v *pictureView) SetViewport(vp interaction.Viewport) { v.viewport = vp }

// Clear blanks the drawable until the next Draw.
func (v *pictureView) Clear() {
	v.cleared = true
	v.raster.Refresh()
}

// Draw implements interaction.Renderer.
func (v *pictureView) Draw() {
	v.cleared = false
	v.Refresh()
}

// SetScaleFactor implements interaction.Renderer.
func (v *pictureView) SetScaleFactor(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	v.scale = scale
}

// ErrorBoxSize implements interaction.Renderer.
func (v *pictureView) ErrorBoxSize() interaction.Size {
	msg := ""
	if e, ok := v.mode.(interaction.ErrorMode); ok {
		msg = e.Message
	}
	return errorBoxSize(msg, v.scale)
}

// SetContentOffset moves the viewport within the drawable.
func (v *pictureView) SetContentOffset(p interaction.Point) { v.offset = p }

func (v *pictureView) draw(w, h int) image.Image {
	if v.cleared {
		return renderMode(nil, interaction.Viewport{}, w, h)
	}
	vp := v.viewport
	vp.Origin.X += v.offset.X
	vp.Origin.Y -= v.offset.Y
	return renderMode(v.mode, vp, w, h)
}

// CreateRenderer is a Fyne lifecycle method.
func (v *pictureView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MouseDown implements desktop.Mouseable.
func (v *pictureView) MouseDown(ev *desktop.MouseEvent) {
	v.emit(interaction.MousePressed{Button: buttonOf(ev.Button)})
}

// MouseUp implements desktop.Mouseable.
func (v *pictureView) MouseUp(ev *desktop.MouseEvent) {
	v.emit(interaction.MouseReleased{Button: buttonOf(ev.Button)})
}

// MouseIn implements desktop.Hoverable.
func (v *pictureView) MouseIn(ev *desktop.MouseEvent) { v.moved(ev.Position) }

// MouseMoved implements desktop.Hoverable.
func (v *pictureView) MouseMoved(ev *desktop.MouseEvent) { v.moved(ev.Position) }

// MouseOut implements desktop.Hoverable.
func (v *pictureView) MouseOut() {}

// Dragged implements fyne.Draggable.
func (v *pictureView) Dragged(ev *fyne.DragEvent) {
	v.moved(ev.Position)
	if v.onDrag != nil {
		v.onDrag(float64(ev.Dragged.DX)*v.scale, float64(ev.Dragged.DY)*v.scale)
	}
}

// DragEnd implements fyne.Draggable.
func (v *pictureView) DragEnd() {
	if v.onDragEnd != nil {
		v.onDragEnd()
	}
}

func (v *pictureView) moved(pos fyne.Position) {
	// fyne positions are in device independent units
	v.emit(interaction.CursorMoved{Position: interaction.Position{
		X: float64(pos.X) * v.scale,
		Y: float64(pos.Y) * v.scale,
	}})
}

func (v *pictureView) emit(e interaction.Event) {
	if v.onEvent != nil {
		v.onEvent(e)
	}
}

func buttonOf(b desktop.MouseButton) interaction.MouseButton {
	switch b {
	case desktop.MouseButtonPrimary:
		return interaction.ButtonLeft
	case desktop.MouseButtonSecondary:
		return interaction.ButtonRight
	default:
		return interaction.ButtonOther
	}
}

// viewportRect converts a bottom-left viewport to an image rectangle in a
// drawable of height h.
func viewportRect(vp interaction.Viewport, h int) image.Rectangle {
	top := h - (vp.Origin.Y + vp.Size.Height)
	return image.Rect(vp.Origin.X, top, vp.Origin.X+vp.Size.Width, top+vp.Size.Height)
}

// renderMode draws mode into vp on a w by h drawable.
func renderMode(mode interaction.RenderMode, vp interaction.Viewport, w, h int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, max(w, defaultMinDim), max(h, defaultMinDim)))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(clearColor), image.Point{}, draw.Src)
	if mode == nil || vp.Size.Empty() {
		return dst
	}

	rect := viewportRect(vp, h)
	switch m := mode.(type) {
	case interaction.BlankMode:
		draw.Draw(dst, rect, image.NewUniform(blankColor), image.Point{}, draw.Src)
	case interaction.PictureMode:
		if m.Still.Image != nil {
			draw.ApproxBiLinear.Scale(dst, rect, m.Still.Image, m.Still.Image.Bounds(), draw.Over, nil)
		}
	case interaction.ErrorMode:
		draw.Draw(dst, rect, image.NewUniform(errorColor), image.Point{}, draw.Src)
		drawText(dst, rect, wrapLines(m.Message, errorWrapAt))
	}
	return dst
}

// drawText centres lines in rect with the built-in bitmap face.
func drawText(dst draw.Image, rect image.Rectangle, lines []string) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + errorLineGap
	top := rect.Min.Y + (rect.Dy()-len(lines)*lineHeight)/2
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}
	for i, line := range lines {
		width := d.MeasureString(line).Ceil()
		x := rect.Min.X + (rect.Dx()-width)/2
		y := top + i*lineHeight + face.Metrics().Ascent.Ceil()
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
}

// wrapLines splits msg into lines of at most width characters, breaking
// on spaces where it can.
func wrapLines(msg string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(msg, "\n") {
		line := ""
		for _, word := range strings.Fields(paragraph) {
			for len(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, word[:width])
				word = word[width:]
			}
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// errorBoxSize is the window size that fits msg at the given scale.
func errorBoxSize(msg string, scale float64) interaction.Size {
	face := basicfont.Face7x13
	lines := wrapLines(msg, errorWrapAt)
	d := &font.Drawer{Face: face}
	width := 0
	for _, line := range lines {
		width = max(width, d.MeasureString(line).Ceil())
	}
	height := len(lines)*(face.Metrics().Height.Ceil()+errorLineGap) - errorLineGap
	return interaction.Size{
		Width:  int(math.Ceil(float64(width+2*errorPadding) * scale)),
		Height: int(math.Ceil(float64(height+2*errorPadding) * scale)),
	}
}

var _ fyne.Widget = (*pictureView)(nil)
var _ desktop.Mouseable = (*pictureView)(nil)
var _ desktop.Hoverable = (*pictureView)(nil)
var _ fyne.Draggable = (*pictureView)(nil)
var _ interaction.Renderer = (*pictureView)(nil)
