package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harborfresh/storefront-backend/internal/cart"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/kv"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

// Order is one completed checkout, newest first in history.
type Order struct {
	OrderCode string      `json:"orderCode"`
	Items     []cart.Line `json:"items"`
	Total     int64       `json:"total"`
	OrderInfo string      `json:"orderInfo,omitempty"`
	PayURL    string      `json:"payUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Service keeps the order history blob in the key-value store.
type Service interface {
	Append(ctx context.Context, order Order) error
	List(ctx context.Context) ([]Order, error)
}

type service struct {
	storage kv.Store
	key     string
	logg    *logger.Logger
}

// ServiceParams wires the order history dependencies.
type ServiceParams struct {
	Storage kv.Store
	Key     string
	Logger  *logger.Logger
}

// NewService builds the order history service.
func NewService(params ServiceParams) (Service, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("order storage required")
	}
	if params.Key == "" {
		return nil, fmt.Errorf("order history key required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{storage: params.Storage, key: params.Key, logg: params.Logger}, nil
}

// NewOrderCode returns a fresh order identifier.
func NewOrderCode() string {
	return uuid.NewString()
}

// Append prepends the order to the stored history.
func (s *service) Append(ctx context.Context, order Order) error {
	if order.OrderCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order code is required")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	history, err := s.load(ctx)
	if err != nil {
		return err
	}

	history = append([]Order{order}, history...)
	raw, err := json.Marshal(history)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order history")
	}
	if err := s.storage.Set(ctx, s.key, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order history")
	}
	return nil
}

// List returns the stored history, newest first. A missing or corrupt blob is
// an empty history, not an error.
func (s *service) List(ctx context.Context) ([]Order, error) {
	return s.load(ctx)
}

func (s *service) load(ctx context.Context) ([]Order, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []Order{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order history")
	}

	var history []Order
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.corrupt_history")
		return []Order{}, nil
	}
	return history, nil
}
