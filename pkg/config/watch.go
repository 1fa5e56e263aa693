package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"
	"github.com/mitchellh/go-homedir"
)

func StateFile(filename string) (string, error) {
	return xdg.StateFile(fmt.Sprintf("%s/%s", XDGName, filename))
}

// Watcher reports writes to one config file.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	Changes chan string
	Errors  chan error
}

// Watch watches the directory holding path, since most editors replace a
// file on save instead of writing it in place.
func Watch(path string) (*Watcher, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	expanded, err = filepath.Abs(expanded)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create watcher")
	}
	if err := fw.Add(filepath.Dir(expanded)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "unable to watch %s", expanded)
	}

	w := &Watcher{
		watcher: fw,
		path:    expanded,
		Changes: make(chan string, 1),
		Errors:  make(chan error, 1),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.Changes)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// coalesce bursts of events into one pending change
			select {
			case w.Changes <- w.path:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
