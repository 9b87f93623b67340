package card

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
)

// Provider names the card gateway in errors and logs.
const Provider = "card"

// Client talks to a Stripe-compatible payment intents API.
type Client struct {
	baseURL    *url.URL
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ gateway.Gateway = (*Client)(nil)

type paymentIntent struct {
	ID               string              `json:"id"`
	ClientSecret     string              `json:"client_secret"`
	Status           model.GatewayStatus `json:"status"`
	Customer         string              `json:"customer"`
	AmountReceived   int64               `json:"amount_received"`
	PaymentMethod    string              `json:"payment_method"`
	LastPaymentError *apiError           `json:"last_payment_error"`
}

type customer struct {
	ID string `json:"id"`
}

type apiError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// NewClient creates a card gateway client. timeout bounds every HTTP call.
func NewClient(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse card gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("card gateway url must be absolute")
	}
	if secretKey == "" {
		return nil, fmt.Errorf("card gateway secret key is empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		secretKey:  secretKey,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Method() model.PaymentMethod {
	return model.PaymentMethodCard
}

// CreateIntent upserts the customer and opens a payment intent for the order total.
func (c *Client) CreateIntent(ctx context.Context, req gateway.IntentRequest) (*gateway.Intent, error) {
	if req.Order == nil {
		return nil, fmt.Errorf("card intent without order")
	}
	customerRef, err := c.upsertCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(model.MinorUnits(req.Order.Amounts.Total), 10))
	form.Set("currency", strings.ToLower(req.Order.Currency))
	form.Set("customer", customerRef)
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[order_id]", strconv.FormatInt(req.Order.ID, 10))
	form.Set("metadata[order_number]", req.Order.Number)
	if req.Billing.Email != "" {
		form.Set("receipt_email", req.Billing.Email)
	}

	var pi paymentIntent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, req.IdempotencyKey, &pi); err != nil {
		return nil, err
	}
	if pi.Customer == "" {
		pi.Customer = customerRef
	}

	return &gateway.Intent{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		CustomerRef:  pi.Customer,
		Status:       pi.Status,
		Metadata:     pi.metadata(),
	}, nil
}

// Confirm always asks the provider; the recorded metadata is not trusted.
func (c *Client) Confirm(ctx context.Context, reference string, _ model.PaymentMetadata) (*gateway.Confirmation, error) {
	var pi paymentIntent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(reference), nil, "", &pi); err != nil {
		return nil, err
	}
	return &gateway.Confirmation{Status: pi.Status, Metadata: pi.metadata()}, nil
}

func (pi paymentIntent) metadata() model.CardMetadata {
	m := model.CardMetadata{
		PaymentIntentID: pi.ID,
		CustomerID:      pi.Customer,
		GatewayStatus:   pi.Status,
		AmountReceived:  pi.AmountReceived,
		PaymentMethodID: pi.PaymentMethod,
	}
	if pi.LastPaymentError != nil {
		m.LastErrorCode = pi.LastPaymentError.Code
		m.LastErrorMessage = pi.LastPaymentError.Message
	}
	return m
}

func (c *Client) upsertCustomer(ctx context.Context, req gateway.IntentRequest) (string, error) {
	form := url.Values{}
	form.Set("name", req.Billing.FullName())
	form.Set("email", req.Billing.Email)
	form.Set("phone", req.Billing.Phone)
	addr := req.Billing.Address
	form.Set("address[line1]", addr.Line1)
	if addr.Line2 != "" {
		form.Set("address[line2]", addr.Line2)
	}
	form.Set("address[city]", addr.City)
	form.Set("address[state]", addr.State)
	form.Set("address[postal_code]", addr.PostalCode)
	if addr.Country != "" {
		form.Set("address[country]", addr.Country)
	}

	var cus customer
	if req.ExistingCustomerRef != "" {
		err := c.do(ctx, http.MethodPost, "/v1/customers/"+url.PathEscape(req.ExistingCustomerRef), form, "", &cus)
		if err == nil {
			return cus.ID, nil
		}
		var gwErr *domainErrors.GatewayError
		if !errors.As(err, &gwErr) || gwErr.HTTPStatus != http.StatusNotFound {
			return "", err
		}
		c.logger.Warn("stored customer missing at provider, creating a new one",
			zap.String("customer_id", req.ExistingCustomerRef))
	}

	key := ""
	if req.IdempotencyKey != "" {
		key = req.IdempotencyKey + "-customer"
	}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, key, &cus); err != nil {
		return "", err
	}
	return cus.ID, nil
}

func (c *Client) do(ctx context.Context, method, apiPath string, form url.Values, idempotencyKey string, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, apiPath)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domainErrors.GatewayError{Provider: Provider, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domainErrors.GatewayError{Provider: Provider, Message: "read response", HTTPStatus: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("card gateway request failed",
			zap.String("method", method),
			zap.String("path", apiPath),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return decodeError(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &domainErrors.GatewayError{Provider: Provider, Message: "decode response", HTTPStatus: resp.StatusCode, Cause: err}
	}
	return nil
}

func decodeError(status int, payload []byte) *domainErrors.GatewayError {
	gwErr := &domainErrors.GatewayError{
		Provider:          Provider,
		Message:           http.StatusText(status),
		HTTPStatus:        status,
		ClientCorrectable: clientCorrectable(status),
	}
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return gwErr
	}
	if env.Error.Message != "" {
		gwErr.Message = env.Error.Message
	}
	gwErr.Code = env.Error.Code
	if gwErr.Code == "" {
		gwErr.Code = env.Error.DeclineCode
	}
	if gwErr.Code == "" {
		gwErr.Code = env.Error.Type
	}
	return gwErr
}

// clientCorrectable reports whether the caller can fix the request and retry.
func clientCorrectable(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}
