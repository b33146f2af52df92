// Package ui puts the viewer on screen with Fyne.
package ui

import (
	"context"
	"fmt"
	"time"

	"fypeek/internal/config"
	"fypeek/internal/interaction"
	"fypeek/internal/loader"
	"fypeek/internal/scan"
	"fypeek/internal/service"
	"fypeek/internal/viewer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/sirupsen/logrus"
)

const (
	appID    = "io.github.fypeek"
	appTitle = "fypeek"
)

// size of the window holding a fatal error dialog
var fatalWindowSize = interaction.Size{Width: 480, Height: 200}

// CreateApplication opens path and runs the viewer until the user quits.
// A fatal error is shown in a dialog and returned once the app exits.
func CreateApplication(path string, cfg *config.Config, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	matcher, err := scan.NewMatcher(cfg.Patterns)
	if err != nil {
		return fmt.Errorf("invalid file patterns: %w", err)
	}

	a := app.NewWithID(appID)
	a.Settings().SetTheme(newViewerTheme(a.Settings().Theme()))

	var driver *viewer.Driver
	view := newPictureView(func(e interaction.Event) {
		if driver != nil {
			driver.HandleWindowEvent(e)
		}
	})

	screen := interaction.Size{Width: cfg.ScreenWidth, Height: cfg.ScreenHeight}
	// the driver can't report the monitor, a wrong fit means the config is off
	logger.WithField("screen", screen).Info("Using screen_width and screen_height from config for fit and zoom bounds")
	win := newWindow(a, appTitle, screen, view, logger)
	win.win.SetMaster()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	images := service.NewImageService(logger)
	decoder := loader.NewBackgroundDecoder(ctx, images, logger)
	defer decoder.Close()
	sequencer := loader.NewSequencer(decoder, images, loader.WithLogger(logger))

	machine := interaction.NewMachine(win, view, service.DisplayConverter{}, interaction.Options{
		ZoomSpeed:       cfg.ZoomSpeed,
		MinWindowExtent: cfg.MinWindowExtent,
		FitScale:        cfg.FitScale,
	}, logger)

	watch := scan.Watcher(cfg.WatchDebounce, logger)
	open := func(p string) (*scan.Navigator, error) {
		return scan.FromPath(p, matcher, watch, logger)
	}
	driver = viewer.NewDriver(machine, win, sequencer, open, path, cfg.RefreshQuiescence, logger)
	defer driver.Close()

	win.win.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		if len(uris) == 0 {
			return
		}
		driver.ChangePath(uris[0].Path())
	})
	bindKeys(win.win.Canvas(), driver, a.Quit)

	var fatal error
	fail := func(err error) {
		fatal = err
		logger.WithError(err).Error("Viewer stopped")
		win.SetSize(fatalWindowSize)
		win.SetVisible(true)
		d := dialog.NewError(err, win.win)
		d.SetOnClosed(a.Quit)
		d.Show()
	}

	scale := win.ScaleFactor()
	go func() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				fyne.Do(func() {
					if fatal != nil {
						return
					}
					if s := win.ScaleFactor(); s != scale {
						scale = s
						driver.HandleWindowEvent(interaction.ScaleFactorChanged{ScaleFactor: s})
					}
					if err := driver.Refresh(now); err != nil {
						fail(err)
					}
				})
			}
		}
	}()

	a.Run()
	return fatal
}
