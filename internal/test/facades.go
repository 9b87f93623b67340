package test

import (
	"context"
	"sync"

	"github.com/polkiloo/paycore/internal/domain/model"
)

// HealthStub reports a configurable health state.
type HealthStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (s HealthStub) HealthCheck(context.Context) error {
	return s.Err
}

// NotifierStub counts settled payment notifications.
type NotifierStub struct {
	mu      sync.Mutex
	Settled []model.PaymentTransaction
}

// PaymentSettled records txn.
func (n *NotifierStub) PaymentSettled(ctx context.Context, order *model.Order, txn *model.PaymentTransaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Settled = append(n.Settled, *txn)
}

// Count returns the number of notifications received.
func (n *NotifierStub) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Settled)
}
