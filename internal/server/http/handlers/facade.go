package handlers

import (
	"context"

	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
}

// PaymentFacade covers checkout and confirmation.
type PaymentFacade interface {
	CreatePaymentIntent(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.IntakeResult, error)
	ConfirmPayment(ctx context.Context, userID int64, reference string) (*usecase.Confirmation, error)
	ProcessWalletPayment(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.Confirmation, error)
}

// OrderFacade covers order reads, payment retries and staff transitions.
type OrderFacade interface {
	Order(ctx context.Context, userID, orderID int64) (*model.Order, error)
	RetryPayment(ctx context.Context, userID, orderID int64) (*usecase.IntakeResult, error)
	UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.Order, error)
}

// HealthFacade reports backing service health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// Facade aggregates the full set of operations used across handlers.
type Facade interface {
	AuthFacade
	PaymentFacade
	OrderFacade
	HealthFacade
}
