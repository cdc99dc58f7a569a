package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Watcher polls the source's modification time and reloads the store when
// the data changed.
type Watcher struct {
	source      Source
	store       *Store
	interval    time.Duration
	loadTimeout time.Duration
	logger      *slog.Logger
	scheduler   *gocron.Scheduler
}

func NewWatcher(source Source, store *Store, interval, loadTimeout time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		source:      source,
		store:       store,
		interval:    interval,
		loadTimeout: loadTimeout,
		logger:      logger.With("component", "watcher"),
	}
}

func (w *Watcher) Start() error {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(w.interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.loadTimeout)
		defer cancel()

		if _, err := w.Check(ctx); err != nil {
			w.logger.Error("dataset check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule dataset check: %w", err)
	}

	w.logger.Info("watching dataset", "source", w.source.Name(), "interval", w.interval)
	scheduler.StartAsync()
	w.scheduler = scheduler
	return nil
}

func (w *Watcher) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}

// Check reloads when the source is newer than the loaded table and reports
// whether it did.
func (w *Watcher) Check(ctx context.Context) (bool, error) {
	current := w.store.Current()
	if current == nil {
		return false, nil
	}

	modTime, err := w.source.ModTime(ctx)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", w.source.Name(), err)
	}
	if !modTime.After(current.SourceTime()) {
		return false, nil
	}

	w.logger.Info("dataset changed", "source", w.source.Name(), "mod_time", modTime)
	if _, err := w.store.Reload(ctx); err != nil {
		return false, err
	}
	return true, nil
}
