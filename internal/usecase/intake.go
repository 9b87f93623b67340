package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	"github.com/polkiloo/paycore/internal/config"
	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
	"github.com/polkiloo/paycore/internal/metrics"
)

// ItemDraft is an order line as submitted by the client.
type ItemDraft struct {
	ProductID int64
	VariantID *int64
	Quantity  int
	Price     decimal.Decimal
}

// OrderDraft is the order part of an intake request.
type OrderDraft struct {
	Items        []ItemDraft
	Amounts      model.Amounts
	Currency     string
	Shipping     model.Address
	WalletNumber string
}

// CustomerInfo is the buyer part of an intake request.
type CustomerInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Billing   model.Address
}

// IntakeResult is returned once the order is stored and a gateway attempt exists.
type IntakeResult struct {
	Order         *model.Order
	Transaction   *model.PaymentTransaction
	PaymentHandle string
	Reference     string
	AmountMinor   int64
	Currency      string
	Status        model.GatewayStatus
}

// IntakeParams lists the dependencies of IntakeUseCase.
type IntakeParams struct {
	fx.In

	Orders   repository.OrderRepository
	Users    repository.UserRepository
	Products repository.ProductRepository
	Gateways *gateway.Registry
	Numbers  *OrderNumberGenerator
	Config   *config.Config
	Metrics  *metrics.Collectors  `optional:"true"`
	Tracing  trace.TracerProvider `optional:"true"`
	Logger   *zap.Logger
}

// IntakeUseCase validates, stores and starts payment for new orders.
type IntakeUseCase struct {
	orders        repository.OrderRepository
	users         repository.UserRepository
	products      repository.ProductRepository
	gateways      *gateway.Registry
	numbers       *OrderNumberGenerator
	walletTimeout time.Duration
	metrics       *metrics.Collectors
	tracer        trace.Tracer
	logger        *zap.Logger
}

// NewIntakeUseCase constructs IntakeUseCase.
func NewIntakeUseCase(p IntakeParams) *IntakeUseCase {
	return &IntakeUseCase{
		orders:        p.Orders,
		users:         p.Users,
		products:      p.Products,
		gateways:      p.Gateways,
		numbers:       p.Numbers,
		walletTimeout: p.Config.WalletTimeout,
		metrics:       collectorsOrNop(p.Metrics),
		tracer:        tracerFrom(p.Tracing),
		logger:        p.Logger.Named("intake"),
	}
}

// CreateOrder validates the request, stores the order and opens a payment
// attempt with the gateway for method. A gateway failure leaves the stored
// order pending so the payment can be retried.
func (u *IntakeUseCase) CreateOrder(ctx context.Context, userID int64, draft OrderDraft, customer CustomerInfo, method model.PaymentMethod) (res *IntakeResult, err error) {
	ctx, span := u.tracer.Start(ctx, "intake.CreateOrder",
		trace.WithAttributes(attribute.String("payment.method", string(method))))
	defer func() { finishSpan(span, err) }()

	draft.Currency = strings.ToUpper(strings.TrimSpace(draft.Currency))
	verr := validateOrder(draft, customer, method)
	gw, ok := u.gateways.Get(method)
	if !ok {
		verr.Add("paymentMethod", "unsupported payment method")
	}
	if !verr.Empty() {
		return nil, verr
	}

	catalog, err := u.products.FindByIDs(ctx, productIDs(draft.Items))
	if err != nil {
		return nil, &domainErrors.PersistenceError{Op: "catalog lookup", Cause: err}
	}
	validateCatalog(verr, draft.Items, catalog)
	if !verr.Empty() {
		return nil, verr
	}

	user, err := u.caller(ctx, userID)
	if err != nil {
		return nil, err
	}

	order := buildOrder(userID, draft, customer, method, catalog)
	if itemsTotal := model.ItemsSubtotal(order.Items); !itemsTotal.Equal(order.Amounts.Subtotal) {
		u.metrics.SubtotalMismatch.Inc()
		u.logger.Warn("order subtotal differs from item total",
			zap.String("subtotal", order.Amounts.Subtotal.StringFixed(2)),
			zap.String("items_total", itemsTotal.StringFixed(2)),
		)
	}

	if err := u.persist(ctx, order); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("order.number", order.Number))

	billing := gateway.BillingInfo{
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Billing,
	}
	return u.startPayment(ctx, gw, order, user, billing)
}

// RetryPayment opens a new gateway attempt for an order still awaiting
// payment. The previous pending attempt is superseded.
func (u *IntakeUseCase) RetryPayment(ctx context.Context, userID, orderID int64) (res *IntakeResult, err error) {
	ctx, span := u.tracer.Start(ctx, "intake.RetryPayment",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer func() { finishSpan(span, err) }()

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.NotFoundError{Resource: "order"}
		}
		return nil, &domainErrors.PersistenceError{Op: "load order", Cause: err}
	}
	if order.UserID != userID {
		return nil, &domainErrors.NotFoundError{Resource: "order"}
	}
	if !order.AwaitingPayment() {
		return nil, &domainErrors.ConflictError{Message: fmt.Sprintf("order %s is not awaiting payment", order.Number)}
	}

	gw, ok := u.gateways.Get(order.PaymentMethod)
	if !ok {
		return nil, fmt.Errorf("no gateway registered for %s", order.PaymentMethod)
	}
	user, err := u.caller(ctx, userID)
	if err != nil {
		return nil, err
	}

	billing := gateway.BillingInfo{
		FirstName: order.Customer.FirstName,
		LastName:  order.Customer.LastName,
		Email:     order.Customer.Email,
		Phone:     order.Customer.Phone,
		Address:   order.BillingAddress,
	}
	return u.startPayment(ctx, gw, order, user, billing)
}

func (u *IntakeUseCase) caller(ctx context.Context, userID int64) (*model.User, error) {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &domainErrors.AuthError{}
		}
		return nil, &domainErrors.PersistenceError{Op: "load user", Cause: err}
	}
	return user, nil
}

// persist stores order under a fresh number, retrying once on a collision.
func (u *IntakeUseCase) persist(ctx context.Context, order *model.Order) error {
	for attempt := 1; attempt <= 2; attempt++ {
		number, err := u.numbers.Next()
		if err != nil {
			return err
		}
		order.Number = number

		err = u.orders.CreateWithItems(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainErrors.ErrDuplicateOrderNumber) {
			return &domainErrors.PersistenceError{Op: "create order", Cause: err}
		}
		u.logger.Warn("order number collision", zap.String("number", number), zap.Int("attempt", attempt))
	}
	return &domainErrors.PersistenceError{Op: "order number collision"}
}

func (u *IntakeUseCase) startPayment(ctx context.Context, gw gateway.Gateway, order *model.Order, user *model.User, billing gateway.BillingInfo) (*IntakeResult, error) {
	method := gw.Method()
	req := gateway.IntentRequest{
		Order:               order,
		Billing:             billing,
		ExistingCustomerRef: user.CustomerRef(),
		WalletHandle:        order.Customer.WalletNumber,
		IdempotencyKey:      order.Number + "-" + uuid.NewString(),
	}

	intent, err := u.createIntent(ctx, gw, req)
	if err != nil {
		u.logger.Error("payment intent failed, order left pending",
			zap.Int64("order_id", order.ID),
			zap.String("order_number", order.Number),
			zap.String("method", string(method)),
			zap.Error(err),
		)
		return nil, err
	}

	if intent.CustomerRef != "" && intent.CustomerRef != user.CustomerRef() {
		if err := u.users.SetExternalCustomerID(ctx, user.ID, intent.CustomerRef); err != nil {
			u.logger.Warn("store gateway customer id failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	txn := &model.PaymentTransaction{
		OrderID:   order.ID,
		Gateway:   method,
		Reference: intent.Reference,
		Amount:    order.Amounts.Total,
		Currency:  order.Currency,
		Status:    model.TransactionStatusPending,
		Type:      model.TransactionTypePayment,
		Metadata:  intent.Metadata,
	}
	if err := u.orders.AttachPayment(ctx, order.ID, txn); err != nil {
		u.metrics.IntentsCreated.WithLabelValues(string(method), "unrecorded").Inc()
		if errors.Is(err, domainErrors.ErrStaleStatus) {
			return nil, &domainErrors.ConflictError{Message: fmt.Sprintf("order %s is no longer awaiting payment", order.Number)}
		}
		return nil, &domainErrors.PersistenceError{Op: "attach payment", Cause: err}
	}
	order.PaymentReference = &intent.Reference
	u.metrics.IntentsCreated.WithLabelValues(string(method), "created").Inc()

	u.logger.Info("payment attempt started",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.Number),
		zap.String("reference", intent.Reference),
		zap.String("method", string(method)),
	)

	return &IntakeResult{
		Order:         order,
		Transaction:   txn,
		PaymentHandle: intent.ClientSecret,
		Reference:     intent.Reference,
		AmountMinor:   model.MinorUnits(order.Amounts.Total),
		Currency:      order.Currency,
		Status:        intent.Status,
	}, nil
}

func (u *IntakeUseCase) createIntent(ctx context.Context, gw gateway.Gateway, req gateway.IntentRequest) (intent *gateway.Intent, err error) {
	method := gw.Method()
	ctx, span := u.tracer.Start(ctx, "gateway.CreateIntent",
		trace.WithAttributes(attribute.String("payment.method", string(method))))
	defer func() { finishSpan(span, err) }()

	callCtx := ctx
	if method == model.PaymentMethodWallet && u.walletTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, u.walletTimeout)
		defer cancel()
	}

	intent, err = gw.CreateIntent(callCtx, req)
	if err == nil {
		return intent, nil
	}

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		u.metrics.IntentsCreated.WithLabelValues(string(method), "timeout").Inc()
		return nil, &domainErrors.TimeoutError{Op: string(method) + " create intent", After: u.walletTimeout}
	}

	u.metrics.IntentsCreated.WithLabelValues(string(method), "failed").Inc()
	var gwErr *domainErrors.GatewayError
	if errors.As(err, &gwErr) {
		u.metrics.GatewayErrors.WithLabelValues(string(method), errorCode(gwErr)).Inc()
		return nil, gwErr
	}
	u.metrics.GatewayErrors.WithLabelValues(string(method), "unknown").Inc()
	return nil, &domainErrors.GatewayError{Provider: string(method), Message: "create intent failed", Cause: err}
}

func errorCode(err *domainErrors.GatewayError) string {
	if err.Code == "" {
		return "unknown"
	}
	return err.Code
}

func productIDs(items []ItemDraft) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func buildOrder(userID int64, draft OrderDraft, customer CustomerInfo, method model.PaymentMethod, catalog map[int64]model.Product) *model.Order {
	items := make([]model.OrderItem, 0, len(draft.Items))
	for _, d := range draft.Items {
		product := catalog[d.ProductID]
		productID := d.ProductID
		items = append(items, model.OrderItem{
			ProductID: &productID,
			VariantID: d.VariantID,
			Name:      product.Name,
			Brand:     product.Brand,
			SKU:       product.SKU,
			Price:     d.Price,
			Quantity:  d.Quantity,
		})
	}
	return &model.Order{
		UserID:   userID,
		Amounts:  draft.Amounts,
		Currency: draft.Currency,
		Customer: model.CustomerSnapshot{
			FirstName:    customer.FirstName,
			LastName:     customer.LastName,
			Email:        customer.Email,
			Phone:        customer.Phone,
			WalletNumber: draft.WalletNumber,
		},
		ShippingAddress: draft.Shipping,
		BillingAddress:  customer.Billing,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   method,
		Items:           items,
	}
}
