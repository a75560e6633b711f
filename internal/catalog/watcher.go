package catalog

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"potager/pkg/domain"
)

// Update carries a reloaded catalog or the error that prevented reloading.
type Update struct {
	Crops []domain.Crop
	Err   error
}

// Watcher reloads a catalog file whenever it changes on disk. The parent
// directory is watched so editors that replace the file are followed.
type Watcher struct {
	Path    string
	Updates <-chan Update

	updates  chan Update
	stop     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a watcher for the catalog at path.
func NewWatcher(path string) (*Watcher, error) {
	if _, err := FormatFor(path); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	ch := make(chan Update, 4)
	return &Watcher{
		Path:     abs,
		Updates:  ch,
		updates:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Updates channel.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	<-w.done
	close(w.updates)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			crops, err := Load(w.Path)
			select {
			case w.updates <- Update{Crops: crops, Err: err}:
			case <-w.stop:
				return
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
