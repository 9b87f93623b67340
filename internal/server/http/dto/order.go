package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemResponse is a stored order line.
type OrderItemResponse struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	SKU       string          `json:"sku,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID               int64               `json:"id"`
	OrderNumber      string              `json:"order_number"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentMethod    string              `json:"payment_method"`
	PaymentReference *string             `json:"payment_reference"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	Tax              decimal.Decimal     `json:"tax"`
	ShippingCost     decimal.Decimal     `json:"shipping_cost"`
	Discount         decimal.Decimal     `json:"discount"`
	Total            decimal.Decimal     `json:"total"`
	Currency         string              `json:"currency"`
	ShippingAddress  Address             `json:"shipping_address"`
	BillingAddress   Address             `json:"billing_address"`
	Items            []OrderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// RetryPaymentResponse carries the new payment handle for a pending order.
type RetryPaymentResponse struct {
	OrderID         int64  `json:"orderId"`
	OrderNumber     string `json:"orderNumber"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// UpdateOrderStatusRequest is the body of the staff status endpoint.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
