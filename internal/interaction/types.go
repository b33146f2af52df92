// Package interaction owns the window geometry and render mode of the
// viewer and moves between the Disabled, Idle, Drag and Zoom states in
// response to input.
package interaction

import (
	"fmt"

	"fypeek/internal/service"
)

// Point is a position in physical screen pixels.
type Point struct {
	X, Y int
}

// Size is an extent in physical pixels.
type Size struct {
	Width, Height int
}

// Empty reports whether either side is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SizeOf converts picture dimensions to a window size.
func SizeOf(d service.Dimensions) Size {
	return Size{Width: d.Width, Height: d.Height}
}

// Position is a sub-pixel cursor position.
type Position struct {
	X, Y float64
}

// Viewport is the rectangle of the window's drawable the content is mapped
// to. Its origin is the bottom-left corner.
type Viewport struct {
	Origin Point
	Size   Size
}

// Window is the window-system side of the viewer.
type Window interface {
	Size() Size
	SetSize(Size)
	Origin() Point
	SetOrigin(Point)
	ScreenSize() Size
	ScaleFactor() float64
	// BeginDrag hands the window over to the system move loop.
	BeginDrag() error
	SetVisible(bool)
	SetTitle(string)
}

// RenderMode is what the renderer draws: BlankMode, PictureMode or ErrorMode.
type RenderMode interface {
	isRenderMode()
}

// BlankMode fills the viewport while a picture of Size is decoding.
type BlankMode struct {
	Size service.Dimensions
}

// PictureMode shows a converted still.
type PictureMode struct {
	Still service.Still
}

// ErrorMode shows a message box.
type ErrorMode struct {
	Message string
}

func (BlankMode) isRenderMode()   {}
func (PictureMode) isRenderMode() {}
func (ErrorMode) isRenderMode()   {}

// Renderer draws the current mode into the viewport.
type Renderer interface {
	SetRenderMode(RenderMode)
	Viewport() Viewport
	SetViewport(Viewport)
	Clear()
	Draw()
	SetScaleFactor(float64)
	// ErrorBoxSize is the window size needed by the current error message.
	ErrorBoxSize() Size
}

// ColorTransformer converts decoded stills to the display's pixel format.
type ColorTransformer interface {
	Transform(service.Still) (service.Still, error)
}

// Event is a window event forwarded to the Machine.
type Event interface {
	isEvent()
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonRight
	ButtonOther
)

// CursorMoved carries the cursor position relative to the window.
type CursorMoved struct {
	Position Position
}

// MousePressed is a button press.
type MousePressed struct {
	Button MouseButton
}

// MouseReleased is a button release.
type MouseReleased struct {
	Button MouseButton
}

// ScaleFactorChanged reports a new DPI scale factor.
type ScaleFactorChanged struct {
	ScaleFactor float64
}

func (CursorMoved) isEvent()        {}
func (MousePressed) isEvent()       {}
func (MouseReleased) isEvent()      {}
func (ScaleFactorChanged) isEvent() {}
