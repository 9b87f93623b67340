// Package facadestub holds facade doubles for the HTTP layer and the sweeper.
package facadestub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/paycore/internal/domain/model"
	testhelpers "github.com/polkiloo/paycore/internal/test"
	"github.com/polkiloo/paycore/internal/usecase"
)

// FacadeStub aggregates facade dependencies for HTTP layer tests.
type FacadeStub struct {
	testhelpers.AuthFacadeStub
	PaymentFacadeStub
	OrderFacadeStub
	testhelpers.HealthStub
}

// PaymentFacadeStub provides controllable behaviour for payment endpoints.
type PaymentFacadeStub struct {
	CreateIntentFn  func(context.Context, int64, usecase.OrderDraft, usecase.CustomerInfo) (*usecase.IntakeResult, error)
	ConfirmFn       func(context.Context, int64, string) (*usecase.Confirmation, error)
	WalletPaymentFn func(context.Context, int64, usecase.OrderDraft, usecase.CustomerInfo) (*usecase.Confirmation, error)
}

// CreatePaymentIntent delegates to override or returns a pending card intent.
func (s PaymentFacadeStub) CreatePaymentIntent(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.IntakeResult, error) {
	if s.CreateIntentFn != nil {
		return s.CreateIntentFn(ctx, userID, draft, customer)
	}
	order := &model.Order{ID: 1, UserID: userID, Number: "ORD-2025-00000001", Currency: draft.Currency}
	return &usecase.IntakeResult{
		Order:         order,
		PaymentHandle: "pi_1_secret",
		Reference:     "pi_1",
		AmountMinor:   model.MinorUnits(draft.Amounts.Total),
		Currency:      draft.Currency,
		Status:        model.GatewayStatusRequiresPaymentMethod,
	}, nil
}

// ConfirmPayment delegates to override or returns a settled payment.
func (s PaymentFacadeStub) ConfirmPayment(ctx context.Context, userID int64, reference string) (*usecase.Confirmation, error) {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, userID, reference)
	}
	return SettledConfirmation(userID, reference, model.PaymentMethodCard), nil
}

// ProcessWalletPayment delegates to override or returns a settled wallet payment.
func (s PaymentFacadeStub) ProcessWalletPayment(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.Confirmation, error) {
	if s.WalletPaymentFn != nil {
		return s.WalletPaymentFn(ctx, userID, draft, customer)
	}
	return SettledConfirmation(userID, "GCASH-1700000000000-ABC123", model.PaymentMethodWallet), nil
}

// SettledConfirmation builds a confirmation for a succeeded payment.
func SettledConfirmation(userID int64, reference string, method model.PaymentMethod) *usecase.Confirmation {
	ref := reference
	return &usecase.Confirmation{
		Order: &model.Order{
			ID:               1,
			UserID:           userID,
			Number:           "ORD-2025-00000001",
			Status:           model.OrderStatusProcessing,
			PaymentStatus:    model.PaymentStatusSucceeded,
			PaymentMethod:    method,
			PaymentReference: &ref,
		},
		Transaction: &model.PaymentTransaction{
			ID:        1,
			OrderID:   1,
			Gateway:   method,
			Reference: reference,
			Status:    model.TransactionStatusSucceeded,
			Type:      model.TransactionTypePayment,
		},
		GatewayStatus: model.GatewayStatusSucceeded,
		Changed:       true,
	}
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	OrderFn        func(context.Context, int64, int64) (*model.Order, error)
	RetryFn        func(context.Context, int64, int64) (*usecase.IntakeResult, error)
	UpdateStatusFn func(context.Context, int64, int64, model.OrderStatus) (*model.Order, error)
}

// Order delegates to override or returns a pending order owned by userID.
func (s OrderFacadeStub) Order(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Number: "ORD-2025-00000001",
		Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending}, nil
}

// RetryPayment delegates to override or returns a fresh intent.
func (s OrderFacadeStub) RetryPayment(ctx context.Context, userID, orderID int64) (*usecase.IntakeResult, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, userID, orderID)
	}
	return &usecase.IntakeResult{
		Order:         &model.Order{ID: orderID, UserID: userID, Number: "ORD-2025-00000001"},
		PaymentHandle: "pi_2_secret",
		Reference:     "pi_2",
		Currency:      "PHP",
		Status:        model.GatewayStatusRequiresPaymentMethod,
	}, nil
}

// UpdateOrderStatus delegates to override or echoes the requested status.
func (s OrderFacadeStub) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, actorID, orderID, status)
	}
	return &model.Order{ID: orderID, Status: status}, nil
}

// SweepCall records a sweeper action against an order.
type SweepCall struct {
	OrderID   int64
	Reference string
}

// SweepFacadeStub mimics sweeper interactions with the payment facade.
type SweepFacadeStub struct {
	Orders      [][]model.Order
	OrdersFn    func(context.Context, time.Time, int) ([]model.Order, error)
	ReconcileFn func(context.Context, string) (*usecase.Confirmation, error)
	CancelFn    func(context.Context, int64) (bool, error)

	Reconciled []SweepCall
	Cancelled  []SweepCall
	Cutoffs    []time.Time

	mu              sync.Mutex
	ordersCallCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *SweepFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *SweepFacadeStub) Unlock() { s.mu.Unlock() }

// StalePendingOrders returns batches from configured queue.
func (s *SweepFacadeStub) StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	s.mu.Lock()
	s.Cutoffs = append(s.Cutoffs, cutoff)
	s.mu.Unlock()
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, cutoff, limit)
	}
	call := atomic.AddInt32(&s.ordersCallCount, 1)
	if int(call) <= len(s.Orders) {
		return s.Orders[call-1], nil
	}
	return nil, nil
}

// ReconcilePayment records the reference and returns the configured outcome.
func (s *SweepFacadeStub) ReconcilePayment(ctx context.Context, reference string) (*usecase.Confirmation, error) {
	s.mu.Lock()
	s.Reconciled = append(s.Reconciled, SweepCall{Reference: reference})
	s.mu.Unlock()
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, reference)
	}
	return SettledConfirmation(0, reference, model.PaymentMethodCard), nil
}

// CancelStaleOrder records the order and reports it cancelled.
func (s *SweepFacadeStub) CancelStaleOrder(ctx context.Context, orderID int64) (bool, error) {
	s.mu.Lock()
	s.Cancelled = append(s.Cancelled, SweepCall{OrderID: orderID})
	s.mu.Unlock()
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID)
	}
	return true, nil
}
