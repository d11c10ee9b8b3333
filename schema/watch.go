package schema

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Source holds the current Registry and lets it be swapped while readers
// keep using the one they already loaded.
type Source struct {
	reg atomic.Pointer[Registry]
}

// NewSource returns a Source serving reg.
func NewSource(reg *Registry) *Source {
	s := &Source{}
	s.Store(reg)
	return s
}

// Registry returns the current registry.
func (s *Source) Registry() *Registry {
	if r := s.reg.Load(); r != nil {
		return r
	}
	return Load(nil)
}

// Store replaces the current registry.
func (s *Source) Store(reg *Registry) {
	s.reg.Store(reg)
}

// debounce collapses the burst of events editors produce on save.
const debounce = 200 * time.Millisecond

// Watch reloads the schema file at path into src whenever it is written,
// until ctx is done. The file is loaded once before Watch starts
// listening. Reload failures are passed to onError, when set, and leave
// the previous registry in place.
func Watch(ctx context.Context, path string, src *Source, onError func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("schema: watch %s: %w", path, err)
	}
	reg, err := LoadFile(abs)
	if err != nil {
		return err
	}
	src.Store(reg)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: watch: %w", err)
	}
	defer w.Close()
	// Watch the directory so atomic renames by editors are seen.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("schema: watch %s: %w", filepath.Dir(abs), err)
	}
	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			reg, err := LoadFile(abs)
			if err != nil {
				report(err)
				continue
			}
			src.Store(reg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			report(fmt.Errorf("schema: watch: %w", err))
		}
	}
}
