// Package viewer runs the per-tick refresh cycle that connects the
// directory navigator, the picture loader and the interaction machine.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fypeek/internal/interaction"
	"fypeek/internal/loader"
	"fypeek/internal/scan"

	"github.com/sirupsen/logrus"
)

// DefaultQuiescence is the minimum time between two directory polls.
const DefaultQuiescence = 125 * time.Millisecond

// OpenFunc builds a navigator for a path given on the command line or
// dropped on the window.
type OpenFunc func(path string) (*scan.Navigator, error)

type appState interface {
	name() string
}

type initState struct {
	path string
}

type idleState struct {
	nav   *scan.Navigator
	since time.Time
}

type loadingState struct {
	nav *scan.Navigator
}

type drawingState struct {
	nav   *scan.Navigator
	since time.Time
}

type disabledState struct{}

func (initState) name() string     { return "init" }
func (idleState) name() string     { return "idle" }
func (loadingState) name() string  { return "loading" }
func (drawingState) name() string  { return "drawing" }
func (disabledState) name() string { return "disabled" }

func navigatorOf(s appState) *scan.Navigator {
	switch s := s.(type) {
	case idleState:
		return s.nav
	case loadingState:
		return s.nav
	case drawingState:
		return s.nav
	}
	return nil
}

// Driver owns the application state. Refresh, Navigate, ChangePath and
// HandleWindowEvent must all be called from the UI goroutine.
type Driver struct {
	machine    *interaction.Machine
	window     interaction.Window
	sequencer  *loader.Sequencer
	open       OpenFunc
	quiescence time.Duration
	logger     logrus.FieldLogger

	state appState
	// set until the path from the command line has been opened
	initial bool
}

// NewDriver creates a driver that opens path on its first Refresh.
func NewDriver(machine *interaction.Machine, window interaction.Window, sequencer *loader.Sequencer, open OpenFunc, path string, quiescence time.Duration, logger logrus.FieldLogger) *Driver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if quiescence <= 0 {
		quiescence = DefaultQuiescence
	}
	return &Driver{
		machine:    machine,
		window:     window,
		sequencer:  sequencer,
		open:       open,
		quiescence: quiescence,
		logger:     logger,
		state:      initState{path: path},
		initial:    true,
	}
}

// State names the current application state.
func (d *Driver) State() string { return d.state.name() }

func (d *Driver) setState(s appState) {
	if s.name() != d.state.name() {
		d.logger.WithField("state", s.name()).Debug("Application state changed")
	}
	d.state = s
}

// Refresh advances the application by one tick. It never blocks. A
// returned error is fatal.
func (d *Driver) Refresh(now time.Time) error {
	switch s := d.state.(type) {
	case initState:
		return d.refreshInit(s)

	case loadingState:
		item, ok := d.sequencer.Next()
		if !ok {
			return nil
		}
		switch item := item.(type) {
		case loader.LoadDimensions:
			d.machine.ShowBlank(item.Dimensions)
		case loader.LoadError:
			d.logger.WithError(item.Err).WithField("path", d.sequencer.Path()).Warn("Failed to load picture")
			d.machine.ShowError(item.Err)
			d.setState(idleState{nav: s.nav, since: now})
		case loader.LoadFrame:
			d.showFrame(s.nav, item)
			d.setState(drawingState{nav: s.nav, since: now})
		}
		return nil

	case drawingState:
		if item, ok := d.sequencer.Next(); ok {
			if frame, isFrame := item.(loader.LoadFrame); isFrame {
				d.showFrame(s.nav, frame)
			}
		}
		if d.sequencer.Exhausted() {
			d.setState(idleState{nav: s.nav, since: now})
			return nil
		}
		if now.Sub(s.since) < d.quiescence {
			return nil
		}
		next, err := d.poll(s.nav, now)
		if err != nil {
			return err
		}
		if idle, ok := next.(idleState); ok {
			// nothing changed, keep animating
			next = drawingState{nav: idle.nav, since: now}
		}
		d.setState(next)
		return nil

	case idleState:
		if now.Sub(s.since) < d.quiescence {
			return nil
		}
		next, err := d.poll(s.nav, now)
		if err != nil {
			return err
		}
		d.setState(next)
		return nil
	}
	return nil
}

func (d *Driver) refreshInit(s initState) error {
	if d.machine.Dragging() {
		return nil
	}
	nav, err := d.open(s.path)
	if err != nil {
		if d.initial {
			return fmt.Errorf("failed to open %s: %w", s.path, err)
		}
		d.logger.WithError(err).WithField("path", s.path).Warn("Failed to open dropped path")
		d.machine.ShowError(err)
		d.setState(disabledState{})
		return nil
	}
	d.initial = false
	d.logger.WithFields(logrus.Fields{
		"dir":   nav.Dir(),
		"count": nav.Len(),
	}).Info("Opened directory")
	d.load(nav)
	return nil
}

// poll applies pending directory changes and decides what comes next.
func (d *Driver) poll(nav *scan.Navigator, now time.Time) (appState, error) {
	if d.machine.Dragging() {
		return idleState{nav: nav, since: now}, nil
	}
	dirty, err := nav.Refresh()
	switch {
	case errors.Is(err, scan.ErrWatchDisconnected):
		return nil, fmt.Errorf("lost watch on %s: %w", nav.Dir(), err)
	case err != nil:
		d.logger.WithError(err).WithField("dir", nav.Dir()).Warn("Directory refresh failed")
		nav.Close()
		d.machine.ShowError(err)
		return disabledState{}, nil
	case dirty:
		d.logger.WithField("path", nav.Selected()).Debug("Selected picture changed")
		d.load(nav)
		return d.state, nil
	}
	return idleState{nav: nav, since: now}, nil
}

// load disables interaction and starts loading the selected picture.
func (d *Driver) load(nav *scan.Navigator) {
	d.machine.Disable()
	d.sequencer.Load(nav.Selected())
	d.setState(loadingState{nav: nav})
}

func (d *Driver) showFrame(nav *scan.Navigator, item loader.LoadFrame) {
	d.machine.ShowPicture(item.Frame.Still)
	if !item.First {
		return
	}
	path := d.sequencer.Path()
	d.window.SetTitle(fmt.Sprintf("%s (%d/%d) %s",
		filepath.Base(path), nav.Index()+1, nav.Len(), item.Frame.Dimensions()))

	fields := logrus.Fields{
		"path":   path,
		"format": item.Info.Format,
		"size":   item.Info.Size,
	}
	for k, v := range item.Info.EXIFData {
		fields[k] = v
	}
	d.logger.WithFields(fields).Debug("Picture loaded")
}

// Navigate moves the selection by direction and reloads. It is ignored
// while dragging and when no directory is open.
func (d *Driver) Navigate(direction int) {
	nav := navigatorOf(d.state)
	if nav == nil || d.machine.Dragging() {
		return
	}
	nav.Navigate(direction)
	d.load(nav)
}

// ChangePath replaces the open directory. The new path is opened on the
// next Refresh.
func (d *Driver) ChangePath(path string) {
	if nav := navigatorOf(d.state); nav != nil {
		nav.Close()
	}
	d.logger.WithField("path", path).Debug("Path changed")
	d.setState(initState{path: path})
}

// HandleWindowEvent forwards a window event to the interaction machine.
func (d *Driver) HandleWindowEvent(event interaction.Event) {
	d.machine.HandleEvent(event)
}

// Close releases the open directory watch.
func (d *Driver) Close() {
	if nav := navigatorOf(d.state); nav != nil {
		nav.Close()
	}
	d.setState(disabledState{})
}
