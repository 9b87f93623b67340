package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
)

// AdminUseCase performs staff-only fulfilment transitions.
type AdminUseCase struct {
	users  repository.UserRepository
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewAdminUseCase constructs AdminUseCase.
func NewAdminUseCase(users repository.UserRepository, orders repository.OrderRepository, logger *zap.Logger) *AdminUseCase {
	return &AdminUseCase{users: users, orders: orders, logger: logger.Named("admin")}
}

// UpdateOrderStatus moves an order to status on behalf of staff member actorID.
// Requesting the current status is a no-op. Payment status is never touched.
func (u *AdminUseCase) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.Order, error) {
	actor, err := u.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.AuthError{}
		}
		return nil, &domainErrors.PersistenceError{Op: "load user", Cause: err}
	}
	if !actor.IsStaff {
		return nil, &domainErrors.AuthError{Reason: domainErrors.ErrForbidden}
	}
	if !status.Valid() {
		return nil, domainErrors.NewValidationError("invalid status change",
			domainErrors.ValidationDetail{Field: "status", Message: "unknown order status"})
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.NotFoundError{Resource: "order"}
		}
		return nil, &domainErrors.PersistenceError{Op: "load order", Cause: err}
	}
	if order.Status == status {
		return order, nil
	}
	if !model.CanStaffTransition(order.Status, status) {
		return nil, &domainErrors.ConflictError{
			Message: fmt.Sprintf("cannot move order from %s to %s", order.Status, status),
		}
	}

	updated, err := u.orders.UpdateStatus(ctx, orderID, order.Status, status)
	if err != nil {
		if errors.Is(err, domainErrors.ErrStaleStatus) {
			return nil, &domainErrors.ConflictError{Message: domainErrors.ErrStaleStatus.Error()}
		}
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.NotFoundError{Resource: "order"}
		}
		return nil, &domainErrors.PersistenceError{Op: "update order status", Cause: err}
	}

	u.logger.Info("order status changed by staff",
		zap.Int64("order_id", orderID),
		zap.Int64("actor_id", actorID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)
	return updated, nil
}
