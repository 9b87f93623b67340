package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusDisputed   OrderStatus = "disputed"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusDisputed:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// InPaymentPhase reports whether payment confirmations may still move the order.
func (s OrderStatus) InPaymentPhase() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// PaymentStatus is the payment outcome as seen by the order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentMethod selects the gateway used for an order.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// Valid reports whether m names a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodWallet
}

// Address is an immutable postal address snapshot.
type Address struct {
	Line1      string `json:"address_line_1"`
	Line2      string `json:"address_line_2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
}

// CustomerSnapshot captures the buyer identity at the time the order was placed.
type CustomerSnapshot struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone"`
	WalletNumber string `json:"wallet_number,omitempty"`
}

// FullName joins first and last name.
func (c CustomerSnapshot) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Order is a customer purchase together with its payment state.
type Order struct {
	ID               int64
	UserID           int64
	Number           string
	Amounts          Amounts
	Currency         string
	Customer         CustomerSnapshot
	ShippingAddress  Address
	BillingAddress   Address
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    PaymentMethod
	PaymentReference *string
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Reference returns the current payment reference or an empty string.
func (o *Order) Reference() string {
	if o.PaymentReference == nil {
		return ""
	}
	return *o.PaymentReference
}

// AwaitingPayment reports whether the order can still start or retry a payment.
func (o *Order) AwaitingPayment() bool {
	return o.Status == OrderStatusPending && o.PaymentStatus == PaymentStatusPending
}

// CancelledUnpaid reports whether the order was cancelled because its payment
// never completed.
func (o *Order) CancelledUnpaid() bool {
	return o.Status == OrderStatusCancelled && o.PaymentStatus == PaymentStatusCancelled
}

// OrderItem is a denormalized line of an order. Items are written once with
// the order and never updated.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID *int64
	VariantID *int64
	Name      string
	Brand     string
	SKU       string
	Price     decimal.Decimal
	Quantity  int
}

// Total returns price multiplied by quantity.
func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
