package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docuflow/internal/checksum"
)

// ChangeCallback is called with the key whose file was changed by
// something other than this process.
type ChangeCallback func(key string)

const watchDebounce = 150 * time.Millisecond

// Watch watches the data directory and reports keys whose files were
// changed externally (another process or a manual edit) until ctx is
// cancelled. Writes made through this FS are recognised by checksum and
// not reported.
func (f *FS) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}
	f.primeChecksums()

	logger.Info("watcher: started", slog.String("root", f.root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(key string) {
		pending[key] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			for key := range pending {
				delete(pending, key)
				if f.externallyChanged(key) {
					logger.Debug("watcher: external change", slog.String("key", key))
					if cb != nil {
						cb(key)
					}
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key, isKey := keyFromFile(ev.Name)
			if !isKey {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule(key)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// externallyChanged compares the file on disk against the last known checksum.
func (f *FS) externallyChanged(key string) bool {
	p, err := f.keyPath(key)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		f.mu.Lock()
		_, known := f.written[key]
		delete(f.written, key)
		f.mu.Unlock()
		return known
	}
	if err != nil {
		return false
	}
	return f.changed(key, checksum.Sum(data))
}

// primeChecksums records the current contents so startup state is not
// reported as a change.
func (f *FS) primeChecksums() {
	keys, err := f.Keys()
	if err != nil {
		return
	}
	for _, key := range keys {
		if data, err := f.Get(key); err == nil {
			f.changed(key, checksum.Sum(data))
		}
	}
}
