package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harborfresh/storefront-backend/pkg/kv"
	"github.com/harborfresh/storefront-backend/pkg/logger"
	"github.com/harborfresh/storefront-backend/pkg/metrics"
)

const defaultPersistTimeout = 5 * time.Second

// Store owns the in-memory cart state. All mutations funnel through the
// reducer under a single mutex; every mutation schedules a best-effort
// background persist whose failure is logged, never surfaced to the caller.
type Store struct {
	storage        kv.Store
	key            string
	logg           *logger.Logger
	metrics        *metrics.CartMetrics
	persistTimeout time.Duration

	mu    sync.Mutex
	state State
	seq   uint64

	persistMu    sync.Mutex
	persistedSeq uint64
	wg           sync.WaitGroup
}

// StoreParams wires the store's collaborators.
type StoreParams struct {
	Storage kv.Store
	Key     string
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics

	// PersistTimeout bounds each background snapshot write. Zero means the
	// default of five seconds.
	PersistTimeout time.Duration
}

// NewStore builds a cart store backed by the provided key-value storage.
func NewStore(params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if params.Key == "" {
		return nil, fmt.Errorf("cart storage key required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	return &Store{
		storage:        params.Storage,
		key:            params.Key,
		logg:           params.Logger,
		metrics:        params.Metrics,
		persistTimeout: timeout,
	}, nil
}

// Hydrate loads the persisted snapshot once at startup. A missing or corrupt
// snapshot hydrates to the empty state; nothing here is fatal.
func (s *Store) Hydrate(ctx context.Context) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate.read_failed")
		}
		return
	}

	state, err := decodeSnapshot(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate.corrupt_snapshot")
		return
	}

	s.dispatch(ctx, action{typ: actionLoadCart, items: state.Items})
}

// AddToCart merges the product into the cart: a line already holding this id
// gains quantity, otherwise a new line is appended. Price fields are
// first-write-wins on repeated adds.
func (s *Store) AddToCart(ctx context.Context, product Product) {
	s.dispatch(ctx, action{typ: actionAddItem, product: product})
}

// RemoveOne decrements the line's quantity, removing the line when it reaches
// zero. Unknown ids are a no-op.
func (s *Store) RemoveOne(ctx context.Context, id string) {
	s.dispatch(ctx, action{typ: actionRemoveOne, id: id})
}

// RemoveItemCompletely drops the whole line regardless of quantity.
func (s *Store) RemoveItemCompletely(ctx context.Context, id string) {
	s.dispatch(ctx, action{typ: actionRemoveAllOfItem, id: id})
}

// ClearCart resets the cart to empty and removes the persisted snapshot, so no
// stale non-empty snapshot can survive a crash after the clear.
func (s *Store) ClearCart(ctx context.Context) {
	s.dispatch(ctx, action{typ: actionClear})
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.state.Items...)
}

// TotalCount is the sum of quantities over all lines.
func (s *Store) TotalCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, line := range s.state.Items {
		total += int64(line.Quantity)
	}
	return total
}

// TotalPrice is the sum of unit price times quantity over all lines.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, line := range s.state.Items {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// Close waits for in-flight snapshot writes to settle.
func (s *Store) Close() error {
	s.wg.Wait()
	return nil
}

func (s *Store) dispatch(ctx context.Context, act action) {
	s.mu.Lock()
	s.state = reduce(s.state, act)
	s.seq++
	seq := s.seq
	state := s.state
	s.mu.Unlock()

	s.metrics.IncMutation(string(act.typ))
	s.schedulePersist(ctx, seq, state)
}

// schedulePersist writes the snapshot on a background goroutine. The sequence
// guard drops writes that lost the race to a newer mutation, so the stored
// snapshot never regresses behind memory by more than the in-flight window.
func (s *Store) schedulePersist(ctx context.Context, seq uint64, state State) {
	empty := len(state.Items) == 0

	var payload string
	if !empty {
		encoded, err := encodeSnapshot(state)
		if err != nil {
			s.metrics.IncPersistFailure()
			s.logg.Error(ctx, "cart.persist.encode_failed", err)
			return
		}
		payload = encoded
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		persistCtx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		s.persistMu.Lock()
		defer s.persistMu.Unlock()
		if seq <= s.persistedSeq {
			return
		}

		var err error
		if empty {
			err = s.storage.Del(persistCtx, s.key)
		} else {
			err = s.storage.Set(persistCtx, s.key, payload)
		}
		if err != nil {
			s.metrics.IncPersistFailure()
			s.logg.Error(persistCtx, "cart.persist.write_failed", err)
			return
		}
		s.persistedSeq = seq
	}()
}
