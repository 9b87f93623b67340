package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/paycore/internal/adapter/gateway/wallet"
	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
)

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

const subCentMessage = "must have at most two decimal places"

// validateOrder collects every structural violation of an intake request.
// It performs no IO.
func validateOrder(draft OrderDraft, customer CustomerInfo, method model.PaymentMethod) *domainErrors.ValidationError {
	verr := domainErrors.NewValidationError("invalid order")

	if len(draft.Items) == 0 {
		verr.Add("orderData.items", "at least one item is required")
	}
	for i, item := range draft.Items {
		field := fmt.Sprintf("orderData.items[%d]", i)
		if item.ProductID <= 0 {
			verr.Add(field+".product_id", "must be a catalog product id")
		}
		if item.Quantity < 1 {
			verr.Add(field+".quantity", "must be at least 1")
		}
		switch {
		case item.Price.IsNegative():
			verr.Add(field+".price", "must not be negative")
		case !model.WholeCents(item.Price):
			verr.Add(field+".price", subCentMessage)
		}
	}

	money := []struct {
		field string
		value decimal.Decimal
	}{
		{"orderData.subtotal", draft.Amounts.Subtotal},
		{"orderData.tax", draft.Amounts.Tax},
		{"orderData.shipping_cost", draft.Amounts.Shipping},
		{"orderData.discount", draft.Amounts.Discount},
		{"orderData.total", draft.Amounts.Total},
	}
	comparable := true
	for _, m := range money {
		switch {
		case m.value.IsNegative():
			verr.Add(m.field, "must not be negative")
			comparable = false
		case !model.WholeCents(m.value):
			verr.Add(m.field, subCentMessage)
			comparable = false
		}
	}
	if comparable && !draft.Amounts.Balanced() {
		verr.Add("orderData.total", "must equal subtotal + tax + shipping_cost - discount")
	}
	if !currencyPattern.MatchString(draft.Currency) {
		verr.Add("orderData.currency", "must be a 3-letter currency code")
	}

	required := []struct {
		field string
		value string
	}{
		{"customerInfo.billing.address_line_1", customer.Billing.Line1},
		{"customerInfo.billing.city", customer.Billing.City},
		{"customerInfo.billing.state", customer.Billing.State},
		{"customerInfo.billing.postal_code", customer.Billing.PostalCode},
		{"customerInfo.phone", customer.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.Add(r.field, "is required")
		}
	}

	switch method {
	case model.PaymentMethodCard:
		if strings.TrimSpace(customer.FirstName) == "" {
			verr.Add("customerInfo.firstName", "is required")
		}
		if strings.TrimSpace(customer.LastName) == "" {
			verr.Add("customerInfo.lastName", "is required")
		}
	case model.PaymentMethodWallet:
		switch {
		case strings.TrimSpace(draft.WalletNumber) == "":
			verr.Add("orderData.gcash_number", "is required")
		case !wallet.ValidNumber(draft.WalletNumber):
			verr.Add("orderData.gcash_number", "must be a mobile number like 09171234567")
		}
	}

	return verr
}

// validateCatalog reports items whose product is not in the catalog.
func validateCatalog(verr *domainErrors.ValidationError, items []ItemDraft, catalog map[int64]model.Product) {
	for i, item := range items {
		if _, ok := catalog[item.ProductID]; !ok {
			verr.Add(fmt.Sprintf("orderData.items[%d].product_id", i), "unknown product")
		}
	}
}
