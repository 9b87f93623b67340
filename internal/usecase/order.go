package usecase

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
)

// OrderUseCase serves order reads and housekeeping.
type OrderUseCase struct {
	orders repository.OrderRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders}
}

// Get returns an order owned by userID.
func (u *OrderUseCase) Get(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.NotFoundError{Resource: "order"}
		}
		return nil, &domainErrors.PersistenceError{Op: "load order", Cause: err}
	}
	if order.UserID != userID {
		return nil, &domainErrors.NotFoundError{Resource: "order"}
	}
	return order, nil
}

// StalePending returns orders created before cutoff that still await payment.
func (u *OrderUseCase) StalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	return u.orders.SelectStalePending(ctx, cutoff, limit)
}

// CancelStale cancels an unpaid order. It reports false when the order moved on meanwhile.
func (u *OrderUseCase) CancelStale(ctx context.Context, orderID int64) (bool, error) {
	return u.orders.CancelPending(ctx, orderID)
}
