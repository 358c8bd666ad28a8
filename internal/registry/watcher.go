package registry

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Watcher reloads the catalog file when it changes on disk and swaps the new
// snapshot into the handle. A reload that fails validation keeps the previous
// snapshot; the error goes to OnError.
type Watcher struct {
	handle *Handle
	fs     afero.Fs
	path   string
	fsw    *fsnotify.Watcher
	done   chan struct{}

	// OnError receives reload failures. Nil means failures are dropped.
	OnError func(error)
	// OnReload is called after a successful swap. Nil is allowed.
	OnReload func(*Registry)
}

// Watch starts watching the catalog file backing the handle's snapshot.
// It returns immediately; reloads happen on a background goroutine until
// Close is called.
func Watch(handle *Handle, fs afero.Fs, path string) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("cannot watch the built-in catalog")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// a file-level watch dies with the old inode.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		handle: handle,
		fs:     fs,
		path:   path,
		fsw:    fsw,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

func (w *Watcher) reload() {
	r, err := Load(w.fs, w.path)
	if err != nil {
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}
	w.handle.Swap(r)
	if w.OnReload != nil {
		w.OnReload(r)
	}
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
