package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// viewerTheme wraps an existing theme so the picture fills the window.
type viewerTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*viewerTheme)(nil)

// Size drops all padding.
func (t *viewerTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding || name == theme.SizeNameInnerPadding {
		return 0
	}
	return t.Theme.Size(name)
}

// Color paints the window background black behind the viewport.
func (t *viewerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if name == theme.ColorNameBackground {
		return clearColor
	}
	return t.Theme.Color(name, variant)
}

func newViewerTheme(base fyne.Theme) fyne.Theme {
	return &viewerTheme{Theme: base}
}
