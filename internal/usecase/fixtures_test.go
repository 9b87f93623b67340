package usecase

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	"github.com/polkiloo/paycore/internal/adapter/gateway/mock"
	"github.com/polkiloo/paycore/internal/config"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/metrics"
	testhelpers "github.com/polkiloo/paycore/internal/test"
)

var (
	laptop = model.Product{ID: 1, Name: "Laptop", Brand: "Acme", SKU: "LP-1", Price: decimal.RequireFromString("22500")}
	mouse  = model.Product{ID: 2, Name: "Mouse", Brand: "Acme", SKU: "MS-1", Price: decimal.RequireFromString("999")}
)

type fixture struct {
	store    *testhelpers.OrderStore
	users    *testhelpers.UserRepositoryStub
	notifier *testhelpers.NotifierStub
	metrics  *metrics.Collectors
	buyer    *model.User
	cfg      *config.Config
}

func newFixture() *fixture {
	users := testhelpers.NewUserRepositoryStub()
	return &fixture{
		store:    testhelpers.NewOrderStore(laptop, mouse),
		users:    users,
		notifier: &testhelpers.NotifierStub{},
		metrics:  metrics.NewNop(),
		buyer:    users.AddUser("buyer", false),
		cfg:      &config.Config{OrderNumberPrefix: "ORD", WalletTimeout: time.Second},
	}
}

func (f *fixture) intake(gateways ...gateway.Gateway) *IntakeUseCase {
	return NewIntakeUseCase(IntakeParams{
		Orders:   f.store,
		Users:    f.users,
		Products: f.store,
		Gateways: gateway.NewRegistry(gateways...),
		Numbers:  NewOrderNumberGenerator(f.cfg.OrderNumberPrefix),
		Config:   f.cfg,
		Metrics:  f.metrics,
		Logger:   zap.NewNop(),
	})
}

func (f *fixture) reconciler(gateways ...gateway.Gateway) *Reconciler {
	return NewReconciler(ReconcilerParams{
		Orders:       f.store,
		Transactions: f.store,
		Gateways:     gateway.NewRegistry(gateways...),
		Notifier:     f.notifier,
		Metrics:      f.metrics,
		Logger:       zap.NewNop(),
	})
}

func cardGateway(t *testing.T) *mock.MockGateway {
	t.Helper()
	g := mock.NewMockGateway(gomock.NewController(t))
	g.EXPECT().Method().Return(model.PaymentMethodCard).AnyTimes()
	return g
}

func address() model.Address {
	return model.Address{Line1: "1 Ayala Ave", City: "Makati", State: "NCR", PostalCode: "1226", Country: "PH"}
}

// checkout is 45999.00 of items plus 3679.92 tax and 500 shipping, 50178.92 in total.
func checkout() (OrderDraft, CustomerInfo) {
	draft := OrderDraft{
		Items: []ItemDraft{
			{ProductID: laptop.ID, Quantity: 2, Price: laptop.Price},
			{ProductID: mouse.ID, Quantity: 1, Price: mouse.Price},
		},
		Amounts: model.Amounts{
			Subtotal: decimal.RequireFromString("45999.00"),
			Tax:      decimal.RequireFromString("3679.92"),
			Shipping: decimal.RequireFromString("500"),
			Total:    decimal.RequireFromString("50178.92"),
		},
		Currency: "php",
		Shipping: address(),
	}
	customer := CustomerInfo{
		FirstName: "Juan",
		LastName:  "Dela Cruz",
		Email:     "juan@example.com",
		Phone:     "09171234567",
		Billing:   address(),
	}
	return draft, customer
}

func walletCheckout() (OrderDraft, CustomerInfo) {
	draft, customer := checkout()
	draft.Items = draft.Items[1:]
	draft.Amounts = model.Amounts{Subtotal: mouse.Price, Total: mouse.Price}
	draft.WalletNumber = "09171234567"
	customer.FirstName, customer.LastName = "", ""
	return draft, customer
}
