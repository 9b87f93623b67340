package dto

import "github.com/shopspring/decimal"

// Address is a postal address in request and response bodies.
type Address struct {
	Line1      string `json:"address_line_1"`
	Line2      string `json:"address_line_2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
}

// OrderItem is a cart line submitted by the client.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderData is the cart and money breakdown of a checkout request.
type OrderData struct {
	Items        []OrderItem     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	Shipping     Address         `json:"shipping"`
	GCashNumber  string          `json:"gcash_number,omitempty"`
}

// CustomerInfo identifies the buyer. StripeCustomerID is accepted for
// compatibility and ignored; the stored profile reference wins.
type CustomerInfo struct {
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	Billing          Address `json:"billing"`
	StripeCustomerID string  `json:"stripeCustomerId,omitempty"`
}

// CreatePaymentIntentRequest is the body of POST /api/create-payment-intent.
type CreatePaymentIntentRequest struct {
	OrderData     OrderData    `json:"orderData"`
	CustomerInfo  CustomerInfo `json:"customerInfo"`
	PaymentMethod string       `json:"paymentMethod"`
}

// CreatePaymentIntentResponse carries what the browser needs to finish a card payment.
type CreatePaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         int64  `json:"orderId"`
	OrderNumber     string `json:"orderNumber"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// ConfirmPaymentRequest is the body of POST /api/confirm-payment.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentIntentResponse summarizes the reconciled payment attempt.
type PaymentIntentResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	TransactionStatus string `json:"transaction_status"`
}

// ConfirmPaymentResponse is returned after reconciliation.
type ConfirmPaymentResponse struct {
	Success       bool                  `json:"success"`
	Order         OrderResponse         `json:"order"`
	PaymentIntent PaymentIntentResponse `json:"payment_intent"`
}

// WalletPaymentRequest is the body of POST /api/process-gcash-payment.
type WalletPaymentRequest struct {
	OrderData    OrderData    `json:"orderData"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
}

// WalletPaymentResponse reports a settled wallet payment.
type WalletPaymentResponse struct {
	Success         bool   `json:"success"`
	OrderID         int64  `json:"orderId"`
	OrderNumber     string `json:"orderNumber"`
	ReferenceNumber string `json:"referenceNumber"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}
