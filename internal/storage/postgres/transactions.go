package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
)

const (
	transactionColumnList           = "id, order_id, gateway, reference, amount, currency, status, type, metadata, created_at, updated_at"
	selectTransactionByRef          = `SELECT ` + transactionColumnList + ` FROM payment_transactions WHERE reference=$1`
	selectTransactionByRefForUpdate = selectTransactionByRef + ` FOR UPDATE`
)

func scanTransaction(row pgx.Row) (*model.PaymentTransaction, error) {
	var (
		t        model.PaymentTransaction
		metadata []byte
	)
	err := row.Scan(&t.ID, &t.OrderID, &t.Gateway, &t.Reference, &t.Amount, &t.Currency,
		&t.Status, &t.Type, &metadata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Metadata, err = model.DecodeMetadata(metadata); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*model.PaymentTransaction, error) {
	txn, err := scanTransaction(r.storage.pool.QueryRow(ctx, selectTransactionByRef, reference))
	if err != nil {
		return nil, notFound(err)
	}
	return txn, nil
}

// Settle locks the attempt before its order, the same order AttachPayment and
// CancelPending use.
func (r *transactionRepository) Settle(ctx context.Context, reference string, fn repository.SettleFunc) (*repository.SettleResult, error) {
	const (
		updateTxn   = `UPDATE payment_transactions SET status=$1, metadata=$2, updated_at=NOW() WHERE id=$3 RETURNING updated_at`
		updateOrder = `UPDATE orders SET status=$1, payment_status=$2, updated_at=NOW() WHERE id=$3 RETURNING updated_at`
	)

	var result *repository.SettleResult
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		txn, err := scanTransaction(tx.QueryRow(ctx, selectTransactionByRefForUpdate, reference))
		if err != nil {
			return notFound(err)
		}
		order, err := scanOrder(tx.QueryRow(ctx, selectOrderByIDForUpdate, txn.OrderID))
		if err != nil {
			return notFound(err)
		}

		settlement, err := fn(txn, order)
		if err != nil {
			return err
		}
		if settlement == nil {
			result = &repository.SettleResult{Transaction: txn, Order: order}
			return nil
		}

		metadata, err := model.EncodeMetadata(settlement.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		if err := tx.QueryRow(ctx, updateTxn, string(settlement.TransactionStatus), metadata, txn.ID).Scan(&txn.UpdatedAt); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, updateOrder, string(settlement.OrderStatus), string(settlement.PaymentStatus), order.ID).Scan(&order.UpdatedAt); err != nil {
			return err
		}

		txn.Status = settlement.TransactionStatus
		txn.Metadata = settlement.Metadata
		order.Status = settlement.OrderStatus
		order.PaymentStatus = settlement.PaymentStatus
		result = &repository.SettleResult{Transaction: txn, Order: order, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
