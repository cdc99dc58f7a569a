package dataset

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/models"
)

// TableLoader produces a fresh table on every call.
type TableLoader interface {
	Load(ctx context.Context) (*models.Table, error)
}

// LoadObserver is told about every load attempt the store makes.
type LoadObserver interface {
	ObserveLoad(rows int, loadedAt time.Time, err error)
}

// Store holds the process-wide table. The first Get loads it; every later
// Get returns the same pointer until Reload swaps in a new one. Tables are
// never modified after they are stored.
type Store struct {
	loader   TableLoader
	logger   *slog.Logger
	observer LoadObserver

	table atomic.Pointer[models.Table]
	mu    sync.Mutex // serialises loads
}

func NewStore(loader TableLoader, logger *slog.Logger) *Store {
	return &Store{
		loader: loader,
		logger: logger.With("component", "store"),
	}
}

// SetObserver must be called before the store is shared.
func (s *Store) SetObserver(o LoadObserver) {
	s.observer = o
}

// Get returns the cached table, loading it on first use. A failed first load
// is not remembered; the next Get tries again.
func (s *Store) Get(ctx context.Context) (*models.Table, error) {
	if t := s.table.Load(); t != nil {
		return t, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t := s.table.Load(); t != nil {
		return t, nil
	}

	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.table.Store(t)
	return t, nil
}

// Reload replaces the table. On error the previous table stays in place.
func (s *Store) Reload(ctx context.Context) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx)
	if err != nil {
		s.logger.Error("reload failed, keeping previous table", "error", err)
		return nil, err
	}

	prev := s.table.Swap(t)
	prevRows := 0
	if prev != nil {
		prevRows = prev.Len()
	}
	s.logger.Info("table reloaded", "records", t.Len(), "previous_records", prevRows)
	return t, nil
}

// Current returns the loaded table without triggering a load.
func (s *Store) Current() *models.Table {
	return s.table.Load()
}

func (s *Store) load(ctx context.Context) (*models.Table, error) {
	t, err := s.loader.Load(ctx)
	if s.observer != nil {
		if err != nil {
			s.observer.ObserveLoad(0, time.Time{}, err)
		} else {
			s.observer.ObserveLoad(t.Len(), t.LoadedAt(), nil)
		}
	}
	return t, err
}
