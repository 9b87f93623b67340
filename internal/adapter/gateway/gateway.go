package gateway

import (
	"context"
	"sort"

	"github.com/polkiloo/paycore/internal/domain/model"
)

// Gateway starts and inspects payments with one provider.
type Gateway interface {
	Method() model.PaymentMethod
	// CreateIntent opens a payment for the order with the provider.
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// Confirm reports the authoritative status of reference. recorded is the
	// metadata stored with the attempt.
	Confirm(ctx context.Context, reference string, recorded model.PaymentMetadata) (*Confirmation, error)
}

// BillingInfo identifies the payer towards the provider.
type BillingInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   model.Address
}

// FullName joins first and last name.
func (b BillingInfo) FullName() string {
	return model.CustomerSnapshot{FirstName: b.FirstName, LastName: b.LastName}.FullName()
}

// IntentRequest carries everything a provider needs to open a payment.
type IntentRequest struct {
	Order               *model.Order
	Billing             BillingInfo
	ExistingCustomerRef string
	WalletHandle        string
	IdempotencyKey      string
}

// Intent is an opened payment.
type Intent struct {
	Reference    string
	ClientSecret string
	CustomerRef  string
	Status       model.GatewayStatus
	Metadata     model.PaymentMetadata
}

// Confirmation is the provider's current view of a payment.
type Confirmation struct {
	Status   model.GatewayStatus
	Metadata model.PaymentMetadata
}

// Registry resolves gateways by payment method.
type Registry struct {
	gateways map[model.PaymentMethod]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[model.PaymentMethod]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Method()] = g
	}
	return r
}

func (r *Registry) Get(method model.PaymentMethod) (Gateway, bool) {
	g, ok := r.gateways[method]
	return g, ok
}

// Methods lists the registered payment methods in name order.
func (r *Registry) Methods() []model.PaymentMethod {
	methods := make([]model.PaymentMethod, 0, len(r.gateways))
	for m := range r.gateways {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
