package cart

import (
	"context"
	"testing"
	"time"

	"github.com/harborfresh/storefront-backend/pkg/kv"
)

func newTestWatcher(t *testing.T, store *Store, storage kv.Store) *Watcher {
	t.Helper()
	watcher, err := NewWatcher(WatcherParams{
		Store:    store,
		Storage:  storage,
		TokenKey: "token",
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	return watcher
}

func TestWatcherClearsOnLogoutTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	store := newTestStore(t, mem)
	store.AddToCart(ctx, Product{ID: "a", UnitPrice: 50000})
	watcher := newTestWatcher(t, store, mem)

	if err := mem.Set(ctx, "token", "jwt-value"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	// Observations: present, present, absent. Only the third clears.
	watcher.tick(ctx)
	if store.TotalCount() == 0 {
		t.Fatal("cart cleared on first present observation")
	}
	watcher.tick(ctx)
	if store.TotalCount() == 0 {
		t.Fatal("cart cleared on steady present observation")
	}

	if err := mem.Del(ctx, "token"); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	watcher.tick(ctx)
	if got := store.TotalCount(); got != 0 {
		t.Fatalf("expected cart cleared after logout transition, count %d", got)
	}

	// Further absent observations must not clear again.
	store.AddToCart(ctx, Product{ID: "b", UnitPrice: 1000})
	watcher.tick(ctx)
	if got := store.TotalCount(); got != 1 {
		t.Fatalf("steady absent observation must not clear, count %d", got)
	}
}

func TestWatcherNoFalseClearOnStartup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	store := newTestStore(t, mem)
	store.AddToCart(ctx, Product{ID: "a", UnitPrice: 2000})
	watcher := newTestWatcher(t, store, mem)

	// Never logged in: absent, absent, absent.
	for i := 0; i < 3; i++ {
		watcher.tick(ctx)
	}

	if got := store.TotalCount(); got != 1 {
		t.Fatalf("watcher must not clear without a transition, count %d", got)
	}
}

func TestWatcherIgnoresEmptyCartLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	store := newTestStore(t, mem)
	watcher := newTestWatcher(t, store, mem)

	if err := mem.Set(ctx, "token", "jwt-value"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	watcher.tick(ctx)
	if err := mem.Del(ctx, "token"); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	watcher.tick(ctx)

	if watcher.hadSession {
		t.Fatal("remembered flag must track the observation even without a clear")
	}
}

func TestWatcherReadErrorLeavesFlagUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	store := newTestStore(t, mem)
	store.AddToCart(ctx, Product{ID: "a", UnitPrice: 3000})

	watcher, err := NewWatcher(WatcherParams{
		Store:    store,
		Storage:  flakyKV{inner: mem},
		TokenKey: "token",
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	if err := mem.Set(ctx, "token", "jwt-value"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	watcher.tick(ctx)
	if !watcher.hadSession {
		t.Fatal("expected session observed")
	}

	// Storage starts failing; the flag must not flip and the cart must stay.
	watcher.tick(failCtx(ctx))
	if !watcher.hadSession {
		t.Fatal("read error must leave the remembered flag untouched")
	}
	if store.TotalCount() != 1 {
		t.Fatal("read error must not clear the cart")
	}
}

func TestWatcherStartStop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	store := newTestStore(t, mem)
	store.AddToCart(ctx, Product{ID: "a", UnitPrice: 50000})

	if err := mem.Set(ctx, "token", "jwt-value"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	watcher, err := NewWatcher(WatcherParams{
		Store:    store,
		Storage:  mem,
		TokenKey: "token",
		Interval: 5 * time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	watcher.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	if err := mem.Del(ctx, "token"); err != nil {
		t.Fatalf("remove token: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for store.TotalCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not clear the cart within a polling interval")
		}
		time.Sleep(5 * time.Millisecond)
	}

	watcher.Stop()
	watcher.Stop() // idempotent
}

// flakyKV fails reads when the context carries the failure marker.
type flakyKV struct {
	inner kv.Store
}

type failKey struct{}

func failCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, failKey{}, true)
}

func (f flakyKV) Get(ctx context.Context, key string) (string, error) {
	if ctx.Value(failKey{}) != nil {
		return "", context.DeadlineExceeded
	}
	return f.inner.Get(ctx, key)
}

func (f flakyKV) Set(ctx context.Context, key, value string) error {
	return f.inner.Set(ctx, key, value)
}

func (f flakyKV) Del(ctx context.Context, keys ...string) error {
	return f.inner.Del(ctx, keys...)
}
