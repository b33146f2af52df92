package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// navigator is the part of the driver the keyboard controls.
type navigator interface {
	Navigate(direction int)
}

// bindKeys installs the keyboard shortcuts on the window canvas.
func bindKeys(c fyne.Canvas, nav navigator, quit func()) {
	// ctrl+q to quit
	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(_ fyne.Shortcut) { quit() })

	c.SetOnTypedKey(func(key *fyne.KeyEvent) {
		handleKey(key.Name, nav, quit)
	})
}

func handleKey(name fyne.KeyName, nav navigator, quit func()) {
	switch name {
	case fyne.KeyRight, fyne.KeyDown, fyne.KeyPageDown, fyne.KeySpace:
		nav.Navigate(1)
	case fyne.KeyLeft, fyne.KeyUp, fyne.KeyPageUp, fyne.KeyBackspace:
		nav.Navigate(-1)
	case fyne.KeyEscape, fyne.KeyQ:
		quit()
	}
}
