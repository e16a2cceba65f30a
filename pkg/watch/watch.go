// Package watch re-parses capture files whenever they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/ccollicutt/pinglag/pkg/capture"
)

// UpdateFunc receives every fresh parse of a watched file.
type UpdateFunc func(c *capture.Capture)

// Watcher follows a set of capture files. Each write re-parses the whole
// file; a capture is never merged with an earlier parse.
type Watcher struct {
	files    map[string]bool
	onUpdate UpdateFunc
	fsw      *fsnotify.Watcher
}

// New creates a watcher for paths. Parent directories are watched so that
// files replaced by rename or created later are still seen.
func New(paths []string, onUpdate UpdateFunc) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool, len(paths)),
		onUpdate: onUpdate,
		fsw:      fsw,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	return w, nil
}

// Run parses every watched file once, then follows changes until ctx is
// done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for path := range w.files {
		w.reparse(ctx, path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if !w.files[path] {
				continue
			}
			w.reparse(ctx, path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("file watcher error")
		}
	}
}

func (w *Watcher) reparse(ctx context.Context, path string) {
	c, err := capture.Read(ctx, path)
	if err != nil {
		// Missing files are expected until the capture starts.
		log.WithError(err).WithField("file", path).Debug("capture not readable")
		return
	}
	log.WithFields(log.Fields{
		"file":    path,
		"samples": c.Metrics.Len(),
	}).Info("capture updated")
	w.onUpdate(c)
}
