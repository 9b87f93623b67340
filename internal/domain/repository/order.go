package repository

import (
	"context"
	"time"

	"github.com/polkiloo/paycore/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// CreateWithItems inserts the order and its items atomically and fills in
	// generated identifiers. A taken order number yields ErrDuplicateOrderNumber.
	CreateWithItems(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// AttachPayment stores the reference on the order and inserts txn as the
	// only pending payment attempt, superseding the previous one.
	AttachPayment(ctx context.Context, orderID int64, txn *model.PaymentTransaction) error
	// UpdateStatus moves the order from one status to another. It fails with
	// ErrStaleStatus when the stored status is no longer from.
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (*model.Order, error)
	// SelectStalePending claims up to limit unpaid orders created before
	// createdBefore. A claimed order is skipped by other callers for a lease period.
	SelectStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error)
	// CancelPending cancels an order still awaiting payment together with its
	// pending attempt. It reports false when the order already moved on.
	CancelPending(ctx context.Context, orderID int64) (bool, error)
}
