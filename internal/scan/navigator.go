package scan

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Navigator keeps a sorted list of the pictures in one directory and a
// cursor on the selected one. It is not safe for concurrent use.
type Navigator struct {
	items   FileItems
	matcher *Matcher
	cursor  int
	dir     string
	source  EventSource
	logger  logrus.FieldLogger
}

// FromPath builds a Navigator for path, which may name a directory or a
// picture inside one. When it names a file, that file is selected.
func FromPath(path string, matcher *Matcher, watch WatchFunc, logger logrus.FieldLogger) (*Navigator, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	dir, err := dirOf(path)
	if err != nil {
		return nil, err
	}
	items, err := listDirectory(dir, matcher)
	if err != nil {
		return nil, err
	}

	cursor := 0
	if typeOf(path) == fileTypeFile {
		cursor = items.search(path)
		if cursor < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatchingEntry, path)
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyList
	}

	source, err := watch(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}

	n := &Navigator{
		items:   items,
		matcher: matcher,
		cursor:  cursor,
		dir:     dir,
		source:  source,
		logger:  logger.WithField("dir", dir),
	}
	n.logger.WithField("count", len(items)).Debug("Directory scanned")
	return n, nil
}

// Selected returns the path under the cursor.
func (n *Navigator) Selected() string {
	return n.items[n.cursor].Path
}

// Index returns the cursor position.
func (n *Navigator) Index() int { return n.cursor }

// Len returns the number of listed pictures.
func (n *Navigator) Len() int { return len(n.items) }

// Dir returns the watched directory.
func (n *Navigator) Dir() string { return n.dir }

// Items returns a copy of the listing.
func (n *Navigator) Items() FileItems {
	out := make(FileItems, len(n.items))
	copy(out, n.items)
	return out
}

// Navigate moves the cursor by direction, wrapping around both ends.
func (n *Navigator) Navigate(direction int) {
	size := len(n.items)
	n.cursor = ((n.cursor+direction)%size + size) % size
}

// Close releases the watch subscription.
func (n *Navigator) Close() error {
	return n.source.Close()
}

func (n *Navigator) nonEmpty() error {
	if len(n.items) == 0 {
		return ErrEmptyList
	}
	return nil
}

// Refresh applies every pending watch event. dirty reports that the
// selected file changed and must be reloaded. After an error other than
// ErrWatchDisconnected the listing may be inconsistent and the Navigator
// should be discarded.
func (n *Navigator) Refresh() (dirty bool, err error) {
	var events []WatchEvent
drain:
	for {
		select {
		case batch, ok := <-n.source.Events():
			if !ok {
				return false, ErrWatchDisconnected
			}
			events = append(events, batch...)
		default:
			break drain
		}
	}
	if len(events) == 0 {
		return false, nil
	}

	rescan := false
	for _, e := range events {
		n.logger.WithField("event", e.String()).Debug("Watch event")
		switch e.Kind {
		case EventWrite:
			if e.Path == n.Selected() {
				dirty = true
			}
		case EventRescan, EventChmod, EventCreate:
			rescan = true
		case EventRemove:
			index := n.items.search(e.Path)
			if index < 0 {
				continue
			}
			n.items = append(n.items[:index], n.items[index+1:]...)
			if err := n.nonEmpty(); err != nil {
				return dirty, err
			}
			if index == n.cursor {
				n.cursor %= len(n.items)
				dirty = true
			} else if index < n.cursor {
				n.cursor--
			}
		case EventRename:
			if e.Path == n.Selected() {
				n.items[n.cursor] = NewFileItem(e.Dest)
				rescan = true
			}
		}
	}
	if rescan {
		if err := n.rescan(); err != nil {
			return dirty, err
		}
	}
	return dirty, nil
}

// rescan lists the directory again and finds the selected path in it.
func (n *Navigator) rescan() error {
	selected := n.Selected()
	items, err := listDirectory(n.dir, n.matcher)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		n.items = items
		return ErrEmptyList
	}
	cursor := items.search(selected)
	if cursor < 0 {
		return fmt.Errorf("%w: %s", ErrNoMatchingEntry, selected)
	}
	n.items = items
	n.cursor = cursor
	n.logger.WithField("count", len(items)).Debug("Directory rescanned")
	return nil
}
