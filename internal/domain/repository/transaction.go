package repository

import (
	"context"

	"github.com/polkiloo/paycore/internal/domain/model"
)

// SettleFunc computes the settlement for a locked transaction and its order.
// Returning nil leaves both rows untouched.
type SettleFunc func(txn *model.PaymentTransaction, order *model.Order) (*model.Settlement, error)

// SettleResult is the state of the transaction and order after Settle.
type SettleResult struct {
	Transaction *model.PaymentTransaction
	Order       *model.Order
	Changed     bool
}

// TransactionRepository describes persistence operations with payment attempts.
type TransactionRepository interface {
	GetByReference(ctx context.Context, reference string) (*model.PaymentTransaction, error)
	// Settle locks the transaction row identified by reference, lets fn decide
	// the outcome and writes it in the same database transaction.
	Settle(ctx context.Context, reference string, fn SettleFunc) (*SettleResult, error)
}
