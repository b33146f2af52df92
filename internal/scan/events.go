package scan

import "fmt"

// EventKind tags a WatchEvent.
type EventKind int

const (
	EventWrite EventKind = iota
	EventCreate
	EventRemove
	EventRename
	EventRescan
	EventChmod
)

func (k EventKind) String() string {
	switch k {
	case EventWrite:
		return "write"
	case EventCreate:
		return "create"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	case EventRescan:
		return "rescan"
	case EventChmod:
		return "chmod"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// WatchEvent is one debounced change in a watched directory.
// Path is empty for EventRescan. Dest is only set for EventRename.
type WatchEvent struct {
	Kind EventKind
	Path string
	Dest string
}

func (e WatchEvent) String() string {
	switch e.Kind {
	case EventRename:
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.Path, e.Dest)
	case EventRescan:
		return e.Kind.String()
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Path)
	}
}

// Write, Create, Remove, Rename, Rescan and Chmod build events.
func Write(path string) WatchEvent      { return WatchEvent{Kind: EventWrite, Path: path} }
func Create(path string) WatchEvent     { return WatchEvent{Kind: EventCreate, Path: path} }
func Remove(path string) WatchEvent     { return WatchEvent{Kind: EventRemove, Path: path} }
func Rename(from, to string) WatchEvent { return WatchEvent{Kind: EventRename, Path: from, Dest: to} }
func Rescan() WatchEvent                { return WatchEvent{Kind: EventRescan} }
func Chmod(path string) WatchEvent      { return WatchEvent{Kind: EventChmod, Path: path} }

// EventSource delivers batches of debounced watch events. The channel is
// closed when the subscription ends.
type EventSource interface {
	Events() <-chan []WatchEvent
	Close() error
}

// WatchFunc subscribes to changes in dir.
type WatchFunc func(dir string) (EventSource, error)
