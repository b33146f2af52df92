package interaction

import "math"

// DefaultZoomSpeed is the zoom change per pixel of cursor travel.
const DefaultZoomSpeed = 0.003

// ZoomContext is captured when a zoom gesture starts and never changes
// during it. Viewports are always computed from the captured state and the
// current cursor, so rounding never accumulates.
type ZoomContext struct {
	Cursor       Position // screen space
	WindowOrigin Point
	WindowSize   Size
	ScreenSize   Size

	// Bounds are only set when the window had a non-zero size.
	HasBounds bool
	MinZoom   float64
	MaxZoom   float64
}

// NewZoomContext captures a zoom gesture. minExtent is the smallest window
// dimension the gesture may shrink to.
func NewZoomContext(cursor Position, origin Point, size, screen Size, minExtent int) ZoomContext {
	z := ZoomContext{
		Cursor:       cursor,
		WindowOrigin: origin,
		WindowSize:   size,
		ScreenSize:   screen,
	}
	if size.Empty() {
		return z
	}
	w, h := float64(size.Width), float64(size.Height)
	z.HasBounds = true
	z.MinZoom = math.Min(1, float64(minExtent)/math.Min(w, h))
	z.MaxZoom = 1
	if !screen.Empty() {
		z.MaxZoom = math.Max(1, math.Min(float64(screen.Width)/w, float64(screen.Height)/h))
	}
	return z
}

// EntryViewport is the window's rectangle on screen at capture time, with
// a bottom-left origin.
func (z ZoomContext) EntryViewport() Viewport {
	return Viewport{
		Origin: Point{
			X: z.WindowOrigin.X,
			Y: z.ScreenSize.Height - (z.WindowOrigin.Y + z.WindowSize.Height),
		},
		Size: z.WindowSize,
	}
}

// Zoom returns the zoom factor for a cursor at screen position cursor.
// Moving right or up grows the picture.
func (z ZoomContext) Zoom(cursor Position, speed float64) float64 {
	dx := (cursor.X - z.Cursor.X) * speed
	dy := (cursor.Y - z.Cursor.Y) * -speed
	zoom := factor(dx) * factor(dy)
	if z.HasBounds {
		zoom = math.Max(z.MinZoom, math.Min(z.MaxZoom, zoom))
	}
	return zoom
}

func factor(delta float64) float64 {
	if delta < 0 {
		return 1 / (1 - delta)
	}
	return 1 + delta
}

// Viewport scales the captured window about the captured cursor.
func (z ZoomContext) Viewport(cursor Position, speed float64) Viewport {
	zoom := z.Zoom(cursor, speed)
	origin := Point{
		X: int(math.Round((float64(z.WindowOrigin.X)-z.Cursor.X)*zoom + z.Cursor.X)),
		Y: int(math.Round((float64(z.WindowOrigin.Y)-z.Cursor.Y)*zoom + z.Cursor.Y)),
	}
	size := Size{
		Width:  int(math.Round(float64(z.WindowSize.Width) * zoom)),
		Height: int(math.Round(float64(z.WindowSize.Height) * zoom)),
	}
	origin.Y = z.ScreenSize.Height - (origin.Y + size.Height)
	return Viewport{Origin: origin, Size: size}
}
