package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
	"github.com/polkiloo/paycore/internal/metrics"
)

// Notifier is told about every payment attempt that reached a terminal status.
type Notifier interface {
	PaymentSettled(ctx context.Context, order *model.Order, txn *model.PaymentTransaction)
}

// Confirmation is the outcome of reconciling one payment reference.
type Confirmation struct {
	Order         *model.Order
	Transaction   *model.PaymentTransaction
	GatewayStatus model.GatewayStatus
	Changed       bool
}

// ReconcilerParams lists the dependencies of Reconciler.
type ReconcilerParams struct {
	fx.In

	Orders       repository.OrderRepository
	Transactions repository.TransactionRepository
	Gateways     *gateway.Registry
	Notifier     Notifier
	Metrics      *metrics.Collectors  `optional:"true"`
	Tracing      trace.TracerProvider `optional:"true"`
	Logger       *zap.Logger
}

// Reconciler brings stored payment state in line with the gateway.
type Reconciler struct {
	orders       repository.OrderRepository
	transactions repository.TransactionRepository
	gateways     *gateway.Registry
	notifier     Notifier
	metrics      *metrics.Collectors
	tracer       trace.Tracer
	logger       *zap.Logger
}

// NewReconciler constructs Reconciler.
func NewReconciler(p ReconcilerParams) *Reconciler {
	return &Reconciler{
		orders:       p.Orders,
		transactions: p.Transactions,
		gateways:     p.Gateways,
		notifier:     p.Notifier,
		metrics:      collectorsOrNop(p.Metrics),
		tracer:       tracerFrom(p.Tracing),
		logger:       p.Logger.Named("reconciler"),
	}
}

// Confirm reconciles the payment identified by reference on behalf of userID.
// References of other callers are reported as not found.
func (r *Reconciler) Confirm(ctx context.Context, userID int64, reference string) (*Confirmation, error) {
	txn, order, err := r.load(ctx, reference)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, &domainErrors.NotFoundError{Resource: "payment"}
	}
	return r.reconcile(ctx, txn, order)
}

// ConfirmByReference reconciles a payment without a caller scope.
func (r *Reconciler) ConfirmByReference(ctx context.Context, reference string) (*Confirmation, error) {
	txn, order, err := r.load(ctx, reference)
	if err != nil {
		return nil, err
	}
	return r.reconcile(ctx, txn, order)
}

func (r *Reconciler) load(ctx context.Context, reference string) (*model.PaymentTransaction, *model.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil, domainErrors.NewValidationError("invalid confirmation",
			domainErrors.ValidationDetail{Field: "paymentIntentId", Message: "is required"})
	}

	txn, err := r.transactions.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil, &domainErrors.NotFoundError{Resource: "payment"}
		}
		return nil, nil, &domainErrors.PersistenceError{Op: "load payment", Cause: err}
	}
	order, err := r.orders.GetByID(ctx, txn.OrderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil, &domainErrors.NotFoundError{Resource: "payment"}
		}
		return nil, nil, &domainErrors.PersistenceError{Op: "load order", Cause: err}
	}
	return txn, order, nil
}

func (r *Reconciler) reconcile(ctx context.Context, txn *model.PaymentTransaction, order *model.Order) (res *Confirmation, err error) {
	ctx, span := r.tracer.Start(ctx, "reconciler.Confirm", trace.WithAttributes(
		attribute.String("payment.reference", txn.Reference),
		attribute.String("payment.method", string(txn.Gateway)),
		attribute.Int64("order.id", order.ID),
	))
	defer func() { finishSpan(span, err) }()

	if txn.Status.Final() {
		r.metrics.Confirmations.WithLabelValues(string(txn.Gateway), "terminal").Inc()
		return &Confirmation{Order: order, Transaction: txn, GatewayStatus: lastStatus(txn)}, nil
	}

	gw, ok := r.gateways.Get(txn.Gateway)
	if !ok {
		return nil, fmt.Errorf("no gateway registered for %s", txn.Gateway)
	}
	conf, err := gw.Confirm(ctx, txn.Reference, txn.Metadata)
	if err != nil {
		var gwErr *domainErrors.GatewayError
		if errors.As(err, &gwErr) {
			r.metrics.GatewayErrors.WithLabelValues(string(txn.Gateway), errorCode(gwErr)).Inc()
			return nil, gwErr
		}
		r.metrics.GatewayErrors.WithLabelValues(string(txn.Gateway), "unknown").Inc()
		return nil, &domainErrors.GatewayError{Provider: string(txn.Gateway), Message: "confirm failed", Cause: err}
	}

	transition := model.TransitionFor(conf.Status)
	settled, err := r.transactions.Settle(ctx, txn.Reference, func(locked *model.PaymentTransaction, current *model.Order) (*model.Settlement, error) {
		return model.PlanSettlement(locked, current, transition, conf.Metadata)
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.NotFoundError{Resource: "payment"}
		}
		return nil, &domainErrors.PersistenceError{Op: "settle payment", Cause: err}
	}

	result := "noop"
	if settled.Changed {
		result = "changed"
	}
	r.metrics.Confirmations.WithLabelValues(string(txn.Gateway), result).Inc()

	// Settle returns the order without items.
	settled.Order.Items = order.Items

	if settled.Changed && txn.Status.Terminal() {
		r.logger.Warn("payment received on a closed attempt",
			zap.String("reference", txn.Reference),
			zap.Int64("order_id", settled.Order.ID),
			zap.String("previous_status", string(txn.Status)),
			zap.String("current_reference", settled.Order.Reference()),
		)
	}
	if settled.Changed {
		r.logger.Info("payment reconciled",
			zap.String("reference", txn.Reference),
			zap.Int64("order_id", settled.Order.ID),
			zap.String("gateway_status", string(conf.Status)),
			zap.String("transaction_status", string(settled.Transaction.Status)),
			zap.String("order_status", string(settled.Order.Status)),
		)
		if settled.Transaction.Status.Terminal() {
			r.notifier.PaymentSettled(ctx, settled.Order, settled.Transaction)
		}
	}

	return &Confirmation{
		Order:         settled.Order,
		Transaction:   settled.Transaction,
		GatewayStatus: conf.Status,
		Changed:       settled.Changed,
	}, nil
}

func lastStatus(txn *model.PaymentTransaction) model.GatewayStatus {
	if txn.Metadata == nil {
		return ""
	}
	return txn.Metadata.LastStatus()
}
