// Package reader turns transcript files into raw core.Source text. Each
// format has its own Reader; a Registry picks one by file extension.
package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkwap/pkscreen/core"
)

// ErrUnsupported is returned for a file no registered Reader handles.
var ErrUnsupported = errors.New("unsupported transcript format")

// Reader loads one transcript file.
type Reader interface {
	// ReadFile returns the text of the transcript at path. Failures wrap
	// core.ErrInputRead.
	ReadFile(path string) (*core.Source, error)

	// Extensions lists the lower-case file extensions this Reader handles,
	// dot included.
	Extensions() []string
}

// Registry maps file extensions to Readers.
type Registry struct {
	byExt map[string]Reader
}

// NewRegistry registers readers in order; a later Reader claiming an
// extension replaces an earlier one.
func NewRegistry(readers ...Reader) *Registry {
	reg := &Registry{byExt: make(map[string]Reader)}
	for _, r := range readers {
		for _, ext := range r.Extensions() {
			reg.byExt[strings.ToLower(ext)] = r
		}
	}
	return reg
}

// Supports reports whether some Reader handles path.
func (g *Registry) Supports(path string) bool {
	_, ok := g.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadFile reads path with the Reader registered for its extension.
func (g *Registry) ReadFile(path string) (*core.Source, error) {
	r, ok := g.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, ReadError(path, ErrUnsupported)
	}
	return r.ReadFile(path)
}

// Extensions returns every registered extension, sorted.
func (g *Registry) Extensions() []string {
	out := make([]string, 0, len(g.byExt))
	for ext := range g.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Discover lists the transcript files directly inside dir, sorted by name.
// Hidden files, subdirectories and unsupported extensions are skipped. An
// unreadable dir is a corpus-level error and is returned as is.
func (g *Registry) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !g.Supports(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadError wraps err as a read failure for path.
func ReadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrInputRead, path, err)
}
