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

const defaultPollInterval = time.Second

// Watcher clears the cart when an authenticated session disappears. It is
// edge-triggered: only the HAD_SESSION to NO_SESSION transition clears, so a
// session that simply has not loaded yet at startup leaves the cart alone.
type Watcher struct {
	store    *Store
	storage  kv.Store
	tokenKey string
	interval time.Duration
	logg     *logger.Logger
	metrics  *metrics.CartMetrics

	hadSession bool

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// WatcherParams wires the watcher's collaborators. The token key is owned by
// the auth flow; the watcher only reads it.
type WatcherParams struct {
	Store    *Store
	Storage  kv.Store
	TokenKey string
	Interval time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.CartMetrics
}

// NewWatcher builds a lifecycle watcher for the given store.
func NewWatcher(params WatcherParams) (*Watcher, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("token storage required")
	}
	if params.TokenKey == "" {
		return nil, fmt.Errorf("token key required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{
		store:    params.Store,
		storage:  params.Storage,
		tokenKey: params.TokenKey,
		interval: interval,
		logg:     params.Logger,
		metrics:  params.Metrics,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the polling loop. The first observation runs immediately so
// the initial token state is captured before the first interval elapses.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.tick(ctx)
		for {
			select {
			case <-w.done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
}

// Stop tears the polling loop down and waits for it to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
}

// tick observes token presence once. A read failure leaves the remembered
// flag untouched so a flaky storage round-trip cannot fake a logout.
func (w *Watcher) tick(ctx context.Context) {
	_, err := w.storage.Get(ctx, w.tokenKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		w.logg.Warn(w.logg.WithField(ctx, "error", err.Error()), "cart.watcher.token_read_failed")
		return
	}
	present := err == nil

	if w.hadSession && !present && w.store.TotalCount() > 0 {
		w.store.ClearCart(ctx)
		w.metrics.IncWatcherClear()
		w.logg.Info(ctx, "cart.watcher.cleared_on_logout")
	}

	w.hadSession = present
}
