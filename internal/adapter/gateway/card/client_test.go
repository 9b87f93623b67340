package card

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	"github.com/polkiloo/paycore/internal/config"
	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
)

type recordedRequest struct {
	method string
	path   string
	form   map[string]string
	header http.Header
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, form: form, header: r.Header.Clone()})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *fakeProvider) {
	t.Helper()
	fake := &fakeProvider{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "sk_test_123", 0, zap.NewNop())
	require.NoError(t, err)
	return client, fake
}

func intentRequest() gateway.IntentRequest {
	return gateway.IntentRequest{
		Order: &model.Order{
			ID:       42,
			Number:   "ORD-2025-12345678",
			Currency: "PHP",
			Amounts:  model.Amounts{Total: decimal.RequireFromString("50178.92")},
		},
		Billing: gateway.BillingInfo{
			FirstName: "Juan",
			LastName:  "Dela Cruz",
			Email:     "juan@example.com",
			Phone:     "09171234567",
			Address:   model.Address{Line1: "1 Rizal St", City: "Manila", State: "NCR", PostalCode: "1000"},
		},
		IdempotencyKey: "order-42-attempt",
	}
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient("://bad-url", "key", 0, zap.NewNop())
	assert.Error(t, err)
	_, err = NewClient("/relative", "key", 0, zap.NewNop())
	assert.Error(t, err)
	_, err = NewClient("https://api.example.com", "", 0, zap.NewNop())
	assert.Error(t, err)

	client, err := NewClient("https://api.example.com", "key", 0, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodCard, client.Method())
}

func TestCreateIntentNewCustomer(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customers":
			_, _ = w.Write([]byte(`{"id":"cus_new"}`))
		case "/v1/payment_intents":
			_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","customer":"cus_new"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	intent, err := client.CreateIntent(context.Background(), intentRequest())
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.Reference)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, "cus_new", intent.CustomerRef)
	assert.Equal(t, model.GatewayStatusRequiresPaymentMethod, intent.Status)
	assert.Equal(t, model.CardMetadata{PaymentIntentID: "pi_1", CustomerID: "cus_new", GatewayStatus: model.GatewayStatusRequiresPaymentMethod}, intent.Metadata)

	require.Len(t, fake.requests, 2)
	cus := fake.requests[0]
	assert.Equal(t, http.MethodPost, cus.method)
	assert.Equal(t, "Juan Dela Cruz", cus.form["name"])
	assert.Equal(t, "NCR", cus.form["address[state]"])
	assert.Equal(t, "order-42-attempt-customer", cus.header.Get("Idempotency-Key"))

	pi := fake.requests[1]
	assert.Equal(t, "Bearer sk_test_123", pi.header.Get("Authorization"))
	assert.Equal(t, "order-42-attempt", pi.header.Get("Idempotency-Key"))
	assert.Equal(t, "5017892", pi.form["amount"])
	assert.Equal(t, "php", pi.form["currency"])
	assert.Equal(t, "cus_new", pi.form["customer"])
	assert.Equal(t, "42", pi.form["metadata[order_id]"])
	assert.Equal(t, "ORD-2025-12345678", pi.form["metadata[order_number]"])
	assert.Equal(t, "true", pi.form["automatic_payment_methods[enabled]"])
}

func TestCreateIntentUpdatesExistingCustomer(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customers/cus_old":
			_, _ = w.Write([]byte(`{"id":"cus_old"}`))
		case "/v1/payment_intents":
			_, _ = w.Write([]byte(`{"id":"pi_2","client_secret":"s","status":"requires_payment_method"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	req := intentRequest()
	req.ExistingCustomerRef = "cus_old"
	intent, err := client.CreateIntent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cus_old", intent.CustomerRef)
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "/v1/customers/cus_old", fake.requests[0].path)
}

func TestCreateIntentRecreatesMissingCustomer(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customers/cus_gone":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such customer"}}`))
		case "/v1/customers":
			_, _ = w.Write([]byte(`{"id":"cus_fresh"}`))
		case "/v1/payment_intents":
			_, _ = w.Write([]byte(`{"id":"pi_3","client_secret":"s","status":"requires_payment_method"}`))
		}
	})

	req := intentRequest()
	req.ExistingCustomerRef = "cus_gone"
	intent, err := client.CreateIntent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cus_fresh", intent.CustomerRef)
	assert.Len(t, fake.requests, 3)
}

func TestCreateIntentProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		correctable bool
	}{
		{name: "card declined", status: http.StatusPaymentRequired, body: `{"error":{"type":"card_error","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`, wantCode: "insufficient_funds", correctable: true},
		{name: "invalid request", status: http.StatusBadRequest, body: `{"error":{"type":"invalid_request_error","code":"parameter_invalid_integer","message":"Invalid integer"}}`, wantCode: "parameter_invalid_integer", correctable: true},
		{name: "bad key", status: http.StatusUnauthorized, body: `{"error":{"type":"invalid_request_error","message":"Invalid API Key"}}`, wantCode: "invalid_request_error"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"type":"rate_limit_error","code":"rate_limit"}}`, wantCode: "rate_limit"},
		{name: "provider outage", status: http.StatusBadGateway, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/v1/customers" {
					_, _ = w.Write([]byte(`{"id":"cus_1"}`))
					return
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.CreateIntent(context.Background(), intentRequest())
			var gwErr *domainErrors.GatewayError
			require.True(t, errors.As(err, &gwErr), "unexpected error %v", err)
			assert.Equal(t, Provider, gwErr.Provider)
			assert.Equal(t, tt.status, gwErr.HTTPStatus)
			assert.Equal(t, tt.wantCode, gwErr.Code)
			assert.Equal(t, tt.correctable, gwErr.ClientCorrectable)
		})
	}
}

func TestCreateIntentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, "key", 0, zap.NewNop())
	require.NoError(t, err)

	_, err = client.CreateIntent(context.Background(), intentRequest())
	var gwErr *domainErrors.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.False(t, gwErr.ClientCorrectable)
	assert.NotNil(t, gwErr.Cause)
}

func TestCreateIntentRequiresOrder(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.CreateIntent(context.Background(), gateway.IntentRequest{})
	assert.Error(t, err)
	assert.Empty(t, fake.requests)
}

func TestConfirmRefetchesIntent(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded","customer":"cus_1","amount_received":5017892,"payment_method":"pm_1"}`))
	})

	recorded := model.CardMetadata{PaymentIntentID: "pi_1", GatewayStatus: model.GatewayStatusCanceled}
	conf, err := client.Confirm(context.Background(), "pi_1", recorded)
	require.NoError(t, err)
	assert.Equal(t, model.GatewayStatusSucceeded, conf.Status)
	meta := conf.Metadata.(model.CardMetadata)
	assert.Equal(t, int64(5017892), meta.AmountReceived)
	assert.Equal(t, "pm_1", meta.PaymentMethodID)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodGet, fake.requests[0].method)
	assert.Equal(t, "/v1/payment_intents/pi_1", fake.requests[0].path)
}

func TestConfirmKeepsLastPaymentError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"requires_payment_method","last_payment_error":{"code":"card_declined","message":"Your card was declined."}}`))
	})

	conf, err := client.Confirm(context.Background(), "pi_1", nil)
	require.NoError(t, err)
	meta := conf.Metadata.(model.CardMetadata)
	assert.Equal(t, "card_declined", meta.LastErrorCode)
	assert.Equal(t, "Your card was declined.", meta.LastErrorMessage)
}

func TestConfirmDecodeError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := client.Confirm(context.Background(), "pi_1", nil)
	var gwErr *domainErrors.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusOK, gwErr.HTTPStatus)
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := &config.Config{CardGatewayURL: "https://api.example.com", CardGatewayKey: "sk"}
	client, err := newClient(clientParams{Config: cfg, Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.NotNil(t, client)
}
