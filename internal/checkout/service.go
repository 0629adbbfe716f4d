package checkout

import (
	"context"
	"fmt"

	"github.com/harborfresh/storefront-backend/internal/cart"
	"github.com/harborfresh/storefront-backend/internal/orders"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/logger"
	"github.com/harborfresh/storefront-backend/pkg/metrics"
	"github.com/harborfresh/storefront-backend/pkg/momo"
)

type paymentGateway interface {
	CreatePayment(ctx context.Context, req momo.PaymentRequest) (*momo.PaymentResponse, error)
}

type orderHistory interface {
	Append(ctx context.Context, order orders.Order) error
}

// Result is what the storefront needs to hand the shopper off to the gateway.
type Result struct {
	OrderCode string `json:"orderCode"`
	PayURL    string `json:"payUrl"`
	Total     int64  `json:"total"`
}

// Service turns the current cart into a MoMo payment and an order record.
type Service interface {
	Checkout(ctx context.Context, orderInfo string) (*Result, error)
}

type service struct {
	store       *cart.Store
	gateway     paymentGateway
	history     orderHistory
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
	orderInfo   string
	redirectURL string
	ipnURL      string
}

// ServiceParams wires the checkout dependencies.
type ServiceParams struct {
	Store   *cart.Store
	Gateway paymentGateway
	History orderHistory
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics

	// DefaultOrderInfo is used when the caller supplies no order description.
	DefaultOrderInfo string
	RedirectURL      string
	IPNURL           string
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("order history required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:       params.Store,
		gateway:     params.Gateway,
		history:     params.History,
		logg:        params.Logger,
		metrics:     params.Metrics,
		orderInfo:   params.DefaultOrderInfo,
		redirectURL: params.RedirectURL,
		ipnURL:      params.IPNURL,
	}, nil
}

// Checkout creates a gateway payment for the cart total, records the order and
// clears the cart. The cart survives untouched when the gateway rejects the
// payment, so the shopper can retry.
func (s *service) Checkout(ctx context.Context, orderInfo string) (*Result, error) {
	items := s.store.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	total := s.store.TotalPrice()

	if orderInfo == "" {
		orderInfo = s.orderInfo
	}
	orderCode := orders.NewOrderCode()

	payment, err := s.gateway.CreatePayment(ctx, momo.PaymentRequest{
		Amount:      total,
		OrderInfo:   orderInfo,
		ExtraData:   orderCode,
		RedirectURL: s.redirectURL,
		IPNURL:      s.ipnURL,
	})
	if err != nil {
		s.metrics.IncCheckout("failure")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}

	order := orders.Order{
		OrderCode: orderCode,
		Items:     items,
		Total:     total,
		OrderInfo: orderInfo,
		PayURL:    payment.PayURL,
	}
	if err := s.history.Append(ctx, order); err != nil {
		// The payment already exists; losing the history entry is not worth
		// failing the checkout over.
		s.logg.Error(ctx, "checkout.record_order_failed", err)
	}

	s.store.ClearCart(ctx)
	s.metrics.IncCheckout("success")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_code": orderCode,
		"total":      total,
	}), "checkout.completed")

	return &Result{OrderCode: orderCode, PayURL: payment.PayURL, Total: total}, nil
}
