// Package scan lists picture files in a directory and keeps a cursor over
// them in sync with the filesystem.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// FileItem is one picture file in the navigated directory, by absolute path.
type FileItem struct {
	Path string
}

// FileItems is a slice of FileItem
type FileItems []FileItem

// NewFileItem creates a new FileItem
func NewFileItem(p string) FileItem {
	return FileItem{
		Path: p,
	}
}

// search returns the index of path in the list, or -1.
func (items FileItems) search(path string) int {
	for i, item := range items {
		if item.Path == path {
			return i
		}
	}
	return -1
}

func (items FileItems) sort() {
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
}

// Matcher decides which file names are pictures.
type Matcher struct {
	patterns []glob.Glob
}

// NewMatcher compiles glob patterns such as "*.png". Matching is case-insensitive.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Match checks the base name of path against every pattern.
func (m *Matcher) Match(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, g := range m.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

type fileType int

const (
	fileTypeUnknown fileType = iota
	fileTypeFile
	fileTypeDirectory
)

func typeOf(path string) fileType {
	info, err := os.Stat(path)
	if err != nil {
		return fileTypeUnknown
	}
	switch {
	case info.Mode().IsRegular():
		return fileTypeFile
	case info.IsDir():
		return fileTypeDirectory
	default:
		return fileTypeUnknown
	}
}

// dirOf resolves path to the directory it names or contains.
func dirOf(path string) (string, error) {
	switch typeOf(path) {
	case fileTypeDirectory:
		return path, nil
	case fileTypeFile:
		return filepath.Dir(path), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
}

// listDirectory returns the sorted pictures directly inside the directory of path.
func listDirectory(path string, m *Matcher) (FileItems, error) {
	dir, err := dirOf(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	var items FileItems
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if typeOf(p) != fileTypeFile || !m.Match(p) {
			continue
		}
		items = append(items, NewFileItem(p))
	}
	items.sort()
	return items, nil
}
