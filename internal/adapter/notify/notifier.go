package notify

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/metrics"
	"github.com/polkiloo/paycore/internal/usecase"
)

// Module provides the notifier used by the reconciler.
var Module = fx.Provide(
	fx.Annotate(NewLogNotifier, fx.As(new(usecase.Notifier))),
)

// LogNotifier records settled payments in the log and in metrics. It stands
// in for e-mail or webhook delivery.
type LogNotifier struct {
	logger  *zap.Logger
	metrics *metrics.Collectors
}

var _ usecase.Notifier = (*LogNotifier)(nil)

// NewLogNotifier constructs LogNotifier.
func NewLogNotifier(logger *zap.Logger, collectors *metrics.Collectors) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify"), metrics: collectors}
}

func (n *LogNotifier) PaymentSettled(ctx context.Context, order *model.Order, txn *model.PaymentTransaction) {
	n.metrics.PaymentsSettled.WithLabelValues(string(txn.Gateway), string(txn.Status)).Inc()

	fields := []zap.Field{
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.Number),
		zap.String("reference", txn.Reference),
		zap.String("method", string(txn.Gateway)),
		zap.String("transaction_status", string(txn.Status)),
		zap.String("order_status", string(order.Status)),
		zap.String("amount", txn.Amount.StringFixed(2)),
		zap.String("currency", txn.Currency),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	if order.Customer.Email != "" {
		fields = append(fields, zap.String("email", order.Customer.Email))
	}
	n.logger.Info("payment settled", fields...)
}
