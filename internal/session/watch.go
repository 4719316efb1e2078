package session

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/lazyai/lazyai/internal/oplog"
)

// Watch invalidates the listing cache when the base directory changes
// underneath the store (another process attaching markers, manual
// cleanup, and so on). It blocks until ctx is cancelled.
//
// The watcher is best-effort: local writes already invalidate the
// cache, so losing events only delays visibility of external changes.
func (s *Store) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(s.baseDir); err != nil {
		// Base dir may not exist until the first session is created;
		// fall back to cache-on-write only.
		oplog.Log.Warn("session watcher disabled", "dir", s.baseDir, "error", err)
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.Invalidate()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			oplog.Log.Warn("session watcher error", "error", err)
		}
	}
}
