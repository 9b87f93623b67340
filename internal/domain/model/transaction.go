package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle of a single payment attempt.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusSucceeded  TransactionStatus = "succeeded"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
	TransactionStatusSuperseded TransactionStatus = "superseded"
)

// Terminal reports whether the attempt is closed. A superseded or cancelled
// attempt may still be paid at the provider; only Final attempts never move.
func (s TransactionStatus) Terminal() bool {
	return s != TransactionStatusPending
}

// Final reports whether the attempt can no longer change.
func (s TransactionStatus) Final() bool {
	return s == TransactionStatusSucceeded
}

// TransactionType distinguishes charges from refunds.
type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
)

// PaymentTransaction records one attempt against a gateway.
type PaymentTransaction struct {
	ID        int64
	OrderID   int64
	Gateway   PaymentMethod
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Status    TransactionStatus
	Type      TransactionType
	Metadata  PaymentMetadata
	CreatedAt time.Time
	UpdatedAt time.Time
}
