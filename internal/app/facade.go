package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/usecase"
)

// HealthChecker reports whether backing services are reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FacadeParams lists the use cases behind PaymentFacade.
type FacadeParams struct {
	fx.In

	Auth       *usecase.AuthUseCase
	Intake     *usecase.IntakeUseCase
	Reconciler *usecase.Reconciler
	Orders     *usecase.OrderUseCase
	Admin      *usecase.AdminUseCase
	Health     HealthChecker
	Logger     *zap.Logger
}

// PaymentFacade is the single entry point used by the HTTP layer and the sweeper.
type PaymentFacade struct {
	auth       *usecase.AuthUseCase
	intake     *usecase.IntakeUseCase
	reconciler *usecase.Reconciler
	orders     *usecase.OrderUseCase
	admin      *usecase.AdminUseCase
	health     HealthChecker
	logger     *zap.Logger
}

func NewPaymentFacade(p FacadeParams) *PaymentFacade {
	return &PaymentFacade{
		auth:       p.Auth,
		intake:     p.Intake,
		reconciler: p.Reconciler,
		orders:     p.Orders,
		admin:      p.Admin,
		health:     p.Health,
		logger:     p.Logger,
	}
}

func (f *PaymentFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *PaymentFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *PaymentFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *PaymentFacade) CreatePaymentIntent(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.IntakeResult, error) {
	return f.intake.CreateOrder(ctx, userID, draft, customer, model.PaymentMethodCard)
}

func (f *PaymentFacade) ConfirmPayment(ctx context.Context, userID int64, reference string) (*usecase.Confirmation, error) {
	return f.reconciler.Confirm(ctx, userID, reference)
}

// ProcessWalletPayment creates a wallet order and settles it from the status
// the wallet reported. When settling fails the order stays pending for the
// sweeper.
func (f *PaymentFacade) ProcessWalletPayment(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.Confirmation, error) {
	res, err := f.intake.CreateOrder(ctx, userID, draft, customer, model.PaymentMethodWallet)
	if err != nil {
		return nil, err
	}
	conf, err := f.reconciler.Confirm(ctx, userID, res.Reference)
	if err != nil {
		f.logger.Warn("wallet payment created but not settled",
			zap.Int64("order_id", res.Order.ID),
			zap.String("reference", res.Reference),
			zap.Error(err),
		)
		return nil, err
	}
	return conf, nil
}

func (f *PaymentFacade) Order(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, userID, orderID)
}

func (f *PaymentFacade) RetryPayment(ctx context.Context, userID, orderID int64) (*usecase.IntakeResult, error) {
	return f.intake.RetryPayment(ctx, userID, orderID)
}

func (f *PaymentFacade) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.Order, error) {
	return f.admin.UpdateOrderStatus(ctx, actorID, orderID, status)
}

func (f *PaymentFacade) StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	return f.orders.StalePending(ctx, cutoff, limit)
}

func (f *PaymentFacade) ReconcilePayment(ctx context.Context, reference string) (*usecase.Confirmation, error) {
	return f.reconciler.ConfirmByReference(ctx, reference)
}

func (f *PaymentFacade) CancelStaleOrder(ctx context.Context, orderID int64) (bool, error) {
	return f.orders.CancelStale(ctx, orderID)
}

func (f *PaymentFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
