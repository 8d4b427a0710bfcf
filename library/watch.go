package library

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

type watcher struct {
	w    *fsnotify.Watcher
	done chan bool
}

// Watch forgets cached scenes when their files change on disk.
// onChange is called with file name after scene was dropped, may be nil
func (l *Library) Watch(path string, onChange func(file string)) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "Failed to create watcher")
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return errors.Wrapf(err, "Failed to watch %q", path)
	}

	l.watcher = &watcher{w: w, done: make(chan bool)}
	go func(wt *watcher) {
		for {
			select {
			case <-wt.done:
				return
			case event, ok := <-wt.w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				file := filepath.Base(event.Name)
				l.Invalidate(file)
				if onChange != nil {
					onChange(file)
				}
			case err, ok := <-wt.w.Errors:
				if !ok {
					return
				}
				log.Printf("[library] Watcher error: %v", err)
			}
		}
	}(l.watcher)
	log.Printf("[library] Watching %q", path)
	return nil
}

// Close stops watcher started by Watch
func (l *Library) Close() error {
	l.lock.Lock()
	wt := l.watcher
	l.watcher = nil
	l.lock.Unlock()

	if wt == nil {
		return nil
	}
	// closed without lock, event loop may be waiting for it in Invalidate
	close(wt.done)
	return wt.w.Close()
}
