package builtin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cryptforge/forge-studio/internal/domain"
)

const reloadDebounce = 150 * time.Millisecond

// Watcher reports changed definition files in the override directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan domain.Category
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewWatcher watches dir for changes to <category>.yaml files.
func NewWatcher(dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan domain.Category, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	watcher.wg.Add(1)
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes Events and Errors.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	// Trailing-edge debounce: editors emit several events per save and the
	// first one often sees a truncated file.
	fire := make(chan domain.Category, 16)
	timers := make(map[domain.Category]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			c, ok := CategoryForFile(event.Name)
			if !ok {
				continue
			}
			if t, ok := timers[c]; ok {
				t.Reset(reloadDebounce)
				continue
			}
			timers[c] = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- c:
				case <-w.closeCh:
				}
			})
		case c := <-fire:
			select {
			case w.Events <- c:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// WatchAndReseed reseeds a category whenever its override file changes,
// until ctx is done. Reload failures are logged and the previous built-ins
// stay in place.
func (s *Seeder) WatchAndReseed(ctx context.Context) error {
	dir := s.loader.OverrideDir()
	if dir == "" {
		return nil
	}

	w, err := NewWatcher(dir)
	if err != nil {
		return err
	}
	s.logger.Info("watching built-in overrides", slog.String("dir", dir))

	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-w.Events:
				if !ok {
					return
				}
				if _, err := s.Seed(ctx, c); err != nil {
					s.logger.Warn("built-in reload failed",
						slog.String("category", string(c)),
						slog.String("error", err.Error()))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("built-in watcher error", slog.String("error", err.Error()))
			}
		}
	}()
	return nil
}
