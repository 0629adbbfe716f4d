package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/harborfresh/storefront-backend/internal/cart"
	"github.com/harborfresh/storefront-backend/internal/orders"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/kv"
	"github.com/harborfresh/storefront-backend/pkg/logger"
	"github.com/harborfresh/storefront-backend/pkg/momo"
)

type stubGateway struct {
	response *momo.PaymentResponse
	err      error
	lastReq  momo.PaymentRequest
	calls    int
}

func (s *stubGateway) CreatePayment(ctx context.Context, req momo.PaymentRequest) (*momo.PaymentResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type stubHistory struct {
	appended []orders.Order
	err      error
}

func (s *stubHistory) Append(ctx context.Context, order orders.Order) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, order)
	return nil
}

func newTestStore(t *testing.T) *cart.Store {
	t.Helper()
	store, err := cart.NewStore(cart.StoreParams{
		Storage: kv.NewMemory(),
		Key:     "cart",
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestService(t *testing.T, store *cart.Store, gateway *stubGateway, history *stubHistory) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:            store,
		Gateway:          gateway,
		History:          history,
		Logger:           logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DefaultOrderInfo: "HarborFresh order",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCheckoutHappyPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	store.AddToCart(ctx, cart.Product{ID: "a", Name: "Salmon", UnitPrice: 50000})
	store.AddToCart(ctx, cart.Product{ID: "a", Name: "Salmon", UnitPrice: 50000})
	store.AddToCart(ctx, cart.Product{ID: "b", Name: "Tuna", UnitPrice: 75000})

	gateway := &stubGateway{response: &momo.PaymentResponse{PayURL: "https://pay.test/x"}}
	history := &stubHistory{}
	svc := newTestService(t, store, gateway, history)

	result, err := svc.Checkout(ctx, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.PayURL != "https://pay.test/x" {
		t.Fatalf("unexpected pay url %q", result.PayURL)
	}
	if result.Total != 175000 {
		t.Fatalf("unexpected total %d", result.Total)
	}
	if gateway.lastReq.Amount != 175000 {
		t.Fatalf("gateway charged %d", gateway.lastReq.Amount)
	}
	if gateway.lastReq.OrderInfo != "HarborFresh order" {
		t.Fatalf("default order info not applied: %q", gateway.lastReq.OrderInfo)
	}

	if len(history.appended) != 1 {
		t.Fatalf("expected one recorded order, got %d", len(history.appended))
	}
	order := history.appended[0]
	if order.OrderCode != result.OrderCode || order.Total != 175000 || len(order.Items) != 2 {
		t.Fatalf("unexpected order %+v", order)
	}

	if store.TotalCount() != 0 {
		t.Fatal("cart should be cleared after checkout")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestStore(t), &stubGateway{}, &stubHistory{})
	_, err := svc.Checkout(context.Background(), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutGatewayFailureKeepsCart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	store.AddToCart(ctx, cart.Product{ID: "a", Name: "Salmon", UnitPrice: 50000})

	gateway := &stubGateway{err: errors.New("gateway down")}
	history := &stubHistory{}
	svc := newTestService(t, store, gateway, history)

	_, err := svc.Checkout(ctx, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if store.TotalCount() != 1 {
		t.Fatal("cart must survive a failed payment")
	}
	if len(history.appended) != 0 {
		t.Fatal("no order should be recorded on failure")
	}
}

func TestCheckoutSucceedsWhenHistoryWriteFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	store.AddToCart(ctx, cart.Product{ID: "a", Name: "Salmon", UnitPrice: 50000})

	gateway := &stubGateway{response: &momo.PaymentResponse{PayURL: "https://pay.test/x"}}
	history := &stubHistory{err: errors.New("storage down")}
	svc := newTestService(t, store, gateway, history)

	result, err := svc.Checkout(ctx, "weekend order")
	if err != nil {
		t.Fatalf("checkout should not fail on history write: %v", err)
	}
	if result.PayURL == "" {
		t.Fatal("pay url missing")
	}
	if gateway.lastReq.OrderInfo != "weekend order" {
		t.Fatalf("caller order info not forwarded: %q", gateway.lastReq.OrderInfo)
	}
	if store.TotalCount() != 0 {
		t.Fatal("cart should still clear")
	}
}
