package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// crontabWatcher signals on Changes whenever the crontab file is written,
// created or moved into place. The parent directory is watched rather than
// the file so that editors which replace the file are still noticed. Bursts
// of events collapse into one pending signal.
type crontabWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	changes chan struct{}
	done    chan struct{}
}

func watchCrontab(path string) (*crontabWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &crontabWatcher{
		watcher: watcher,
		path:    absPath,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

func (w *crontabWatcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *crontabWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *crontabWatcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			logrus.Debugf("crontab event: %s", event)

			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			logrus.Errorf("crontab watcher error: %v", err)
		}
	}
}
