package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
)

// sweepClaimLease is how long a swept order stays invisible to other sweepers.
const sweepClaimLease = 5 * time.Minute

const (
	orderNumberConstraint     = "orders_order_number_key"
	orderReferenceConstraint  = "orders_payment_reference_key"
	transactionRefConstraint  = "payment_transactions_reference_key"
	onePendingPaymentPerOrder = "payment_transactions_one_pending"
	orderItemColumnList       = "id, order_id, product_id, variant_id, name, brand, sku, price, quantity"
	selectItemsByOrderID      = `SELECT ` + orderItemColumnList + ` FROM order_items WHERE order_id=$1 ORDER BY id`
	selectOrderByIDForUpdate  = `SELECT ` + orderColumnList + ` FROM orders WHERE id=$1 FOR UPDATE`
	selectOrderByID           = `SELECT ` + orderColumnList + ` FROM orders WHERE id=$1`
	setPendingPaymentsStatus  = `UPDATE payment_transactions SET status=$1, updated_at=NOW() WHERE order_id=$2 AND type=$3 AND status=$4`
	lockPendingPayments       = `SELECT id FROM payment_transactions WHERE order_id=$1 AND type=$2 AND status=$3 FOR UPDATE`
	orderColumnList           = "id, user_id, order_number, subtotal, tax, shipping_cost, discount, total, currency, customer, shipping_address, billing_address, status, payment_status, payment_method, payment_reference, created_at, updated_at"
)

var orderColumns = strings.Split(orderColumnList, ", ")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                           model.Order
		customer, shipping, billing []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Number,
		&o.Amounts.Subtotal, &o.Amounts.Tax, &o.Amounts.Shipping, &o.Amounts.Discount, &o.Amounts.Total,
		&o.Currency, &customer, &shipping, &billing,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.PaymentReference,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("decode customer snapshot: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(billing, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	return &o, nil
}

func loadItems(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	rows, err := q.Query(ctx, selectItemsByOrderID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Name, &it.Brand, &it.SKU, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) CreateWithItems(ctx context.Context, order *model.Order) error {
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("encode customer snapshot: %w", err)
	}
	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return fmt.Errorf("encode billing address: %w", err)
	}

	query, args, err := r.storage.builder.
		Insert("orders").
		Columns("user_id", "order_number", "subtotal", "tax", "shipping_cost", "discount", "total",
			"currency", "customer", "shipping_address", "billing_address",
			"status", "payment_status", "payment_method").
		Values(order.UserID, order.Number,
			order.Amounts.Subtotal, order.Amounts.Tax, order.Amounts.Shipping, order.Amounts.Discount, order.Amounts.Total,
			order.Currency, customer, shipping, billing,
			string(order.Status), string(order.PaymentStatus), string(order.PaymentMethod)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	const insertItem = `INSERT INTO order_items (order_id, product_id, variant_id, name, brand, sku, price, quantity)
                        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, args...).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			if constraint, ok := uniqueViolation(err); ok && constraint == orderNumberConstraint {
				return domainErrors.ErrDuplicateOrderNumber
			}
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRow(ctx, insertItem, order.ID, item.ProductID, item.VariantID,
				item.Name, item.Brand, item.SKU, item.Price, item.Quantity).Scan(&item.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, selectOrderByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	if order.Items, err = loadItems(ctx, r.storage.pool, id); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) AttachPayment(ctx context.Context, orderID int64, txn *model.PaymentTransaction) error {
	metadata, err := model.EncodeMetadata(txn.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	const (
		setReference = `UPDATE orders SET payment_reference=$1, updated_at=NOW()
                        WHERE id=$2 AND status=$3 AND payment_status=$4`
		insertTxn = `INSERT INTO payment_transactions (order_id, gateway, reference, amount, currency, status, type, metadata)
                        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`
	)

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, setPendingPaymentsStatus,
			string(model.TransactionStatusSuperseded), orderID,
			string(model.TransactionTypePayment), string(model.TransactionStatusPending)); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, setReference, txn.Reference, orderID,
			string(model.OrderStatusPending), string(model.PaymentStatusPending))
		if err != nil {
			return mapReferenceError(err)
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrStaleStatus
		}

		err = tx.QueryRow(ctx, insertTxn, orderID, string(txn.Gateway), txn.Reference, txn.Amount, txn.Currency,
			string(txn.Status), string(txn.Type), metadata).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
		if err != nil {
			return mapReferenceError(err)
		}
		txn.OrderID = orderID
		return nil
	})
}

func mapReferenceError(err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case orderReferenceConstraint, transactionRefConstraint:
			return domainErrors.ErrDuplicateReference
		case onePendingPaymentPerOrder:
			return domainErrors.ErrStaleStatus
		}
	}
	return err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (*model.Order, error) {
	query, args, err := r.storage.builder.
		Update("orders").
		Set("status", string(to)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": orderID, "status": string(from)}).
		ToSql()
	if err != nil {
		return nil, err
	}

	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	order, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return order, domainErrors.ErrStaleStatus
	}
	return order, nil
}

func (r *orderRepository) SelectStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error) {
	const claimOrders = `UPDATE orders SET sweep_claimed_at=NOW() WHERE id = ANY($1)`

	if limit <= 0 {
		limit = 1
	}
	query, args, err := r.storage.builder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"status": string(model.OrderStatusPending), "payment_status": string(model.PaymentStatusPending)}).
		Where(sq.Lt{"created_at": createdBefore}).
		Where(sq.Or{
			sq.Eq{"sweep_claimed_at": nil},
			sq.Expr(fmt.Sprintf("sweep_claimed_at < NOW() - INTERVAL '%d seconds'", int(sweepClaimLease.Seconds()))),
		}).
		OrderBy("created_at").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		orders, err = collectOrders(tx.Query(ctx, query, args...))
		if err != nil || len(orders) == 0 {
			return err
		}
		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		_, err = tx.Exec(ctx, claimOrders, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func collectOrders(rows pgx.Rows, err error) ([]model.Order, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) CancelPending(ctx context.Context, orderID int64) (bool, error) {
	const cancelOrder = `UPDATE orders SET status=$1, payment_status=$2, updated_at=NOW()
                         WHERE id=$3 AND status=$4 AND payment_status=$5`

	var cancelled bool
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := drain(tx.Query(ctx, lockPendingPayments, orderID,
			string(model.TransactionTypePayment), string(model.TransactionStatusPending))); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, cancelOrder,
			string(model.OrderStatusCancelled), string(model.PaymentStatusCancelled), orderID,
			string(model.OrderStatusPending), string(model.PaymentStatusPending))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, setPendingPaymentsStatus,
			string(model.TransactionStatusCancelled), orderID,
			string(model.TransactionTypePayment), string(model.TransactionStatusPending)); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

func drain(rows pgx.Rows, err error) error {
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}
