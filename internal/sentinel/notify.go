package sentinel

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// notifyChannel sets up a write-event accelerator on the watched log. The
// loop treats events as hints to poll early; polling stays authoritative.
// fsnotify failing here only costs latency, never correctness, so init
// errors degrade to pure polling with a warning.
func (s *Sentinel) notifyChannel() (<-chan struct{}, func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, polling only", zap.Error(err))
		return nil, func() {}
	}

	// Watch the directory: the log may not exist yet, and a watch on the
	// file itself breaks on rotation.
	dir := filepath.Dir(s.cfg.Log)
	if err := watcher.Add(dir); err != nil {
		s.logger.Warn("failed to watch log directory, polling only",
			zap.String("dir", dir), zap.Error(err))
		watcher.Close()
		return nil, func() {}
	}

	wake := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(wake)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.cfg.Log || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Debug("fsnotify error", zap.Error(err))
			}
		}
	}()
	return wake, func() {
		watcher.Close()
		<-done
	}
}
