package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/server/http/dto"
	"github.com/polkiloo/paycore/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/paycore/internal/test"
	"github.com/polkiloo/paycore/internal/test/facadestub"
	"github.com/polkiloo/paycore/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const checkoutBody = `{
  "orderData": {
    "items": [{"product_id": 1, "quantity": 2, "price": 22500}, {"product_id": 2, "quantity": 1, "price": "999.00"}],
    "subtotal": 45999.00, "tax": 3679.92, "shipping_cost": 500, "discount": 0, "total": 50178.92,
    "currency": "PHP",
    "shipping": {"address_line_1": "1 Ayala Ave", "city": "Makati", "state": "NCR", "postal_code": "1226"}
  },
  "customerInfo": {
    "firstName": "Juan", "lastName": "Dela Cruz", "email": "juan@example.com", "phone": "09171234567",
    "billing": {"address_line_1": "1 Ayala Ave", "city": "Makati", "state": "NCR", "postal_code": "1226"},
    "stripeCustomerId": "cus_forged"
  },
  "paymentMethod": "card"
}`

const walletBody = `{
  "orderData": {
    "items": [{"product_id": 1, "quantity": 1, "price": 162}],
    "subtotal": 162, "total": 162, "currency": "PHP", "gcash_number": "09171234567"
  },
  "customerInfo": {
    "phone": "09171234567",
    "billing": {"address_line_1": "1 Ayala Ave", "city": "Makati", "state": "NCR", "postal_code": "1226"}
  }
}`

func newValidator(t *testing.T) *BodyValidator {
	t.Helper()
	v, err := NewBodyValidator()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}
	return v
}

func performRequest(t *testing.T, method, path string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	pattern := path
	if i := strings.Index(path, "?"); i >= 0 {
		pattern = path[:i]
	}
	router.Handle(method, routeFor(pattern), func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// routeFor turns /orders/<x>/... into the /orders/:id/... pattern.
func routeFor(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 2 && parts[1] == "orders" {
		parts[2] = ":id"
	}
	return strings.Join(parts, "/")
}

func asUser(id int64) func(*gin.Context) {
	return func(c *gin.Context) { c.Set(middleware.UserIDContextKey, id) }
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	if body.Error == "" {
		t.Fatalf("expected error message in %q", resp.Body.String())
	}
	return body
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}

	c.Set(middleware.UserIDContextKey, int64(42))
	if got := CurrentUserID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	login := testhelpers.RandomASCIIString(7, 14)
	password := testhelpers.RandomASCIIString(16, 32)
	body, _ := json.Marshal(dto.AuthRequest{Login: login, Password: password})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(ctx context.Context, gotLogin, gotPassword string) (string, error) {
		if gotLogin != login || gotPassword != password {
			t.Fatalf("unexpected credentials passed to facade: %q %q", gotLogin, gotPassword)
		}
		return "session-token", nil
	}}, newValidator(t), zap.NewNop())

	resp := performRequest(t, http.MethodPost, "/register", handler.Register, nil, body, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Authorization"); got != "Bearer session-token" {
		t.Fatalf("unexpected authorization header %q", got)
	}
	var out dto.AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || out.Token != "session-token" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}

	result := resp.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	found := false
	for _, cookie := range result.Cookies() {
		if cookie.Name == "paycore_token" && cookie.Value == "session-token" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected auth cookie named paycore_token")
	}
}

func TestAuthHandlerFailures(t *testing.T) {
	valid, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "secret"})
	tests := []struct {
		name   string
		login  bool
		facade testhelpers.AuthFacadeStub
		body   []byte
		status int
	}{
		{name: "malformed json", body: []byte("{"), status: http.StatusBadRequest},
		{name: "missing password", body: []byte(`{"login":"user"}`), status: http.StatusBadRequest},
		{
			name:   "duplicate login",
			body:   valid,
			status: http.StatusConflict,
			facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
				return "", domainErrors.ErrAlreadyExists
			}},
		},
		{
			name:   "weak password",
			body:   valid,
			status: http.StatusBadRequest,
			facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
				return "", domainErrors.NewValidationError("invalid registration", domainErrors.ValidationDetail{Field: "password", Message: "too short"})
			}},
		},
		{
			name:   "storage failure",
			body:   valid,
			status: http.StatusInternalServerError,
			facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
				return "", errors.New("db down")
			}},
		},
		{
			name:   "bad credentials",
			login:  true,
			body:   valid,
			status: http.StatusUnauthorized,
			facade: testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
				return "", domainErrors.ErrInvalidCredentials
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthHandler(tc.facade, newValidator(t), zap.NewNop())
			fn := handler.Register
			if tc.login {
				fn = handler.Login
			}
			resp := performRequest(t, http.MethodPost, "/auth", fn, nil, tc.body, nil)
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
			decodeError(t, resp)
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "secret"})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{}, newValidator(t), zap.NewNop())
	resp := performRequest(t, http.MethodPost, "/login", handler.Login, nil, body, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Authorization") != "Bearer "+testhelpers.Token(1) {
		t.Fatalf("expected auth header, got %q", resp.Header().Get("Authorization"))
	}
}

func TestPaymentHandlerCreateIntent(t *testing.T) {
	var gotDraft usecase.OrderDraft
	var gotCustomer usecase.CustomerInfo
	facade := facadestub.PaymentFacadeStub{}
	stub := facade
	facade.CreateIntentFn = func(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.IntakeResult, error) {
		if userID != 7 {
			t.Fatalf("expected caller 7, got %d", userID)
		}
		gotDraft, gotCustomer = draft, customer
		return stub.CreatePaymentIntent(ctx, userID, draft, customer)
	}
	handler := NewPaymentHandler(facade, newValidator(t), zap.NewNop())

	resp := performRequest(t, http.MethodPost, "/create-payment-intent", handler.CreateIntent, asUser(7), []byte(checkoutBody), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out dto.CreatePaymentIntentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Amount != 5017892 || out.ClientSecret != "pi_1_secret" || out.PaymentIntentID != "pi_1" || out.OrderNumber == "" {
		t.Fatalf("unexpected response %+v", out)
	}

	if len(gotDraft.Items) != 2 || !gotDraft.Items[1].Price.Equal(decimal.RequireFromString("999")) {
		t.Fatalf("items not converted: %+v", gotDraft.Items)
	}
	if !gotDraft.Amounts.Total.Equal(decimal.RequireFromString("50178.92")) || gotDraft.Currency != "PHP" {
		t.Fatalf("amounts not converted: %+v", gotDraft.Amounts)
	}
	if gotCustomer.Billing.City != "Makati" || gotCustomer.LastName != "Dela Cruz" {
		t.Fatalf("customer not converted: %+v", gotCustomer)
	}
}

func TestPaymentHandlerCreateIntentRejectsBody(t *testing.T) {
	called := false
	facade := facadestub.PaymentFacadeStub{CreateIntentFn: func(context.Context, int64, usecase.OrderDraft, usecase.CustomerInfo) (*usecase.IntakeResult, error) {
		called = true
		return nil, nil
	}}
	handler := NewPaymentHandler(facade, newValidator(t), zap.NewNop())

	bodies := map[string]string{
		"not json":         "{",
		"missing sections": `{}`,
		"wrong types":      `{"orderData":{"items":[{"product_id":"x","quantity":1.5,"price":1}],"subtotal":1,"total":1,"currency":"PHP"},"customerInfo":{"phone":"1","billing":{"address_line_1":"a","city":"b","state":"c","postal_code":"d"}}}`,
		"wallet method":    strings.Replace(checkoutBody, `"paymentMethod": "card"`, `"paymentMethod": "gcash"`, 1),
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/create-payment-intent", handler.CreateIntent, asUser(1), []byte(body), nil)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			decodeError(t, resp)
		})
	}
	if called {
		t.Fatal("facade must not be called for invalid bodies")
	}

	resp := performRequest(t, http.MethodPost, "/create-payment-intent", handler.CreateIntent, asUser(1), []byte(`{}`), nil)
	if body := decodeError(t, resp); len(body.Details) < 2 {
		t.Fatalf("expected every missing section reported, got %+v", body.Details)
	}
}

func TestPaymentHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", domainErrors.NewValidationError("invalid order", domainErrors.ValidationDetail{Field: "orderData.total", Message: "mismatch"}), http.StatusBadRequest, "invalid order"},
		{"declined card", &domainErrors.GatewayError{Provider: "card", Code: "card_declined", Message: "Your card was declined.", ClientCorrectable: true}, http.StatusBadRequest, "Your card was declined."},
		{"provider outage", &domainErrors.GatewayError{Provider: "card", Message: "secret internals", HTTPStatus: 502}, http.StatusInternalServerError, "payment provider error"},
		{"timeout", &domainErrors.TimeoutError{Op: "wallet create intent"}, http.StatusInternalServerError, "payment provider did not respond in time"},
		{"persistence", &domainErrors.PersistenceError{Op: "create order", Cause: errors.New("pq: boom")}, http.StatusInternalServerError, "internal server error"},
		{"unknown caller", &domainErrors.AuthError{}, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			facade := facadestub.PaymentFacadeStub{CreateIntentFn: func(context.Context, int64, usecase.OrderDraft, usecase.CustomerInfo) (*usecase.IntakeResult, error) {
				return nil, tc.err
			}}
			handler := NewPaymentHandler(facade, newValidator(t), zap.NewNop())
			resp := performRequest(t, http.MethodPost, "/create-payment-intent", handler.CreateIntent, asUser(1), []byte(checkoutBody), nil)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			if body := decodeError(t, resp); body.Error != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, body.Error)
			}
			if strings.Contains(resp.Body.String(), "secret internals") || strings.Contains(resp.Body.String(), "pq: boom") {
				t.Fatalf("internal details leaked: %s", resp.Body.String())
			}
		})
	}
}

func TestPaymentHandlerConfirm(t *testing.T) {
	handler := NewPaymentHandler(facadestub.PaymentFacadeStub{}, newValidator(t), zap.NewNop())
	resp := performRequest(t, http.MethodPost, "/confirm-payment", handler.Confirm, asUser(3), []byte(`{"paymentIntentId":"pi_1"}`), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.ConfirmPaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.Order.Status != "processing" || out.Order.PaymentStatus != "succeeded" ||
		out.PaymentIntent.ID != "pi_1" || out.PaymentIntent.Status != "succeeded" {
		t.Fatalf("unexpected response %+v", out)
	}

	resp = performRequest(t, http.MethodPost, "/confirm-payment", handler.Confirm, asUser(3), []byte(`{"paymentIntentId":""}`), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty id, got %d", resp.Code)
	}

	notFound := NewPaymentHandler(facadestub.PaymentFacadeStub{ConfirmFn: func(context.Context, int64, string) (*usecase.Confirmation, error) {
		return nil, &domainErrors.NotFoundError{Resource: "payment"}
	}}, newValidator(t), zap.NewNop())
	resp = performRequest(t, http.MethodPost, "/confirm-payment", notFound.Confirm, asUser(3), []byte(`{"paymentIntentId":"pi_other"}`), nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPaymentHandlerProcessWallet(t *testing.T) {
	var gotDraft usecase.OrderDraft
	facade := facadestub.PaymentFacadeStub{}
	stub := facade
	facade.WalletPaymentFn = func(ctx context.Context, userID int64, draft usecase.OrderDraft, customer usecase.CustomerInfo) (*usecase.Confirmation, error) {
		gotDraft = draft
		return stub.ProcessWalletPayment(ctx, userID, draft, customer)
	}
	handler := NewPaymentHandler(facade, newValidator(t), zap.NewNop())

	resp := performRequest(t, http.MethodPost, "/process-gcash-payment", handler.ProcessWallet, asUser(5), []byte(walletBody), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out dto.WalletPaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.Status != "succeeded" || !strings.HasPrefix(out.ReferenceNumber, "GCASH-") || out.Message == "" {
		t.Fatalf("unexpected response %+v", out)
	}
	if gotDraft.WalletNumber != "09171234567" {
		t.Fatalf("wallet number not passed: %+v", gotDraft)
	}

	noWallet := strings.Replace(walletBody, `, "gcash_number": "09171234567"`, "", 1)
	resp = performRequest(t, http.MethodPost, "/process-gcash-payment", handler.ProcessWallet, asUser(5), []byte(noWallet), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without wallet number, got %d", resp.Code)
	}

	timeout := NewPaymentHandler(facadestub.PaymentFacadeStub{WalletPaymentFn: func(context.Context, int64, usecase.OrderDraft, usecase.CustomerInfo) (*usecase.Confirmation, error) {
		return nil, &domainErrors.TimeoutError{Op: "wallet create intent"}
	}}, newValidator(t), zap.NewNop())
	resp = performRequest(t, http.MethodPost, "/process-gcash-payment", timeout.ProcessWallet, asUser(5), []byte(walletBody), nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on timeout, got %d", resp.Code)
	}
}

func TestOrderHandlerGet(t *testing.T) {
	handler := NewOrderHandler(facadestub.OrderFacadeStub{}, newValidator(t), zap.NewNop())

	resp := performRequest(t, http.MethodGet, "/orders/12", handler.Get, asUser(2), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || out.ID != 12 || out.Status != "pending" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	resp = performRequest(t, http.MethodGet, "/orders/abc", handler.Get, asUser(2), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.Code)
	}

	missing := NewOrderHandler(facadestub.OrderFacadeStub{OrderFn: func(context.Context, int64, int64) (*model.Order, error) {
		return nil, &domainErrors.NotFoundError{Resource: "order"}
	}}, newValidator(t), zap.NewNop())
	resp = performRequest(t, http.MethodGet, "/orders/12", missing.Get, asUser(2), nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestOrderHandlerRetryPayment(t *testing.T) {
	handler := NewOrderHandler(facadestub.OrderFacadeStub{}, newValidator(t), zap.NewNop())
	resp := performRequest(t, http.MethodPost, "/orders/4/retry-payment", handler.RetryPayment, asUser(2), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.RetryPaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || out.PaymentIntentID != "pi_2" || out.OrderID != 4 {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	conflict := NewOrderHandler(facadestub.OrderFacadeStub{RetryFn: func(context.Context, int64, int64) (*usecase.IntakeResult, error) {
		return nil, &domainErrors.ConflictError{Message: "order is not awaiting payment"}
	}}, newValidator(t), zap.NewNop())
	resp = performRequest(t, http.MethodPost, "/orders/4/retry-payment", conflict.RetryPayment, asUser(2), nil, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestOrderHandlerUpdateStatus(t *testing.T) {
	var gotStatus model.OrderStatus
	handler := NewOrderHandler(facadestub.OrderFacadeStub{UpdateStatusFn: func(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.Order, error) {
		gotStatus = status
		return &model.Order{ID: orderID, Status: status}, nil
	}}, newValidator(t), zap.NewNop())

	resp := performRequest(t, http.MethodPost, "/orders/9/status", handler.UpdateStatus, asUser(1), []byte(`{"status":"shipped"}`), nil)
	if resp.Code != http.StatusOK || gotStatus != model.OrderStatusShipped {
		t.Fatalf("expected 200 with shipped, got %d %q", resp.Code, gotStatus)
	}

	resp = performRequest(t, http.MethodPost, "/orders/9/status", handler.UpdateStatus, asUser(1), []byte(`{"status":"lost"}`), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}

	for name, tc := range map[string]struct {
		err    error
		status int
	}{
		"not staff":   {&domainErrors.AuthError{Reason: domainErrors.ErrForbidden}, http.StatusForbidden},
		"bad move":    {&domainErrors.ConflictError{Message: "cannot move order from delivered to shipped"}, http.StatusConflict},
		"no such one": {&domainErrors.NotFoundError{Resource: "order"}, http.StatusNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewOrderHandler(facadestub.OrderFacadeStub{UpdateStatusFn: func(context.Context, int64, int64, model.OrderStatus) (*model.Order, error) {
				return nil, tc.err
			}}, newValidator(t), zap.NewNop())
			resp := performRequest(t, http.MethodPost, "/orders/9/status", h.UpdateStatus, asUser(1), []byte(`{"status":"shipped"}`), nil)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", NewHealthHandler(testhelpers.HealthStub{}, zap.NewNop()).Check, nil, nil, nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ok"`) {
		t.Fatalf("expected healthy response, got %d %s", resp.Code, resp.Body.String())
	}

	resp = performRequest(t, http.MethodGet, "/healthz", NewHealthHandler(testhelpers.HealthStub{Err: errors.New("down")}, zap.NewNop()).Check, nil, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestBodyValidator(t *testing.T) {
	v := newValidator(t)

	if err := v.Validate(SchemaCreatePaymentIntent, []byte(checkoutBody)); err != nil {
		t.Fatalf("expected valid checkout body, got %v", err)
	}
	if err := v.Validate(SchemaProcessWallet, []byte(walletBody)); err != nil {
		t.Fatalf("expected valid wallet body, got %v", err)
	}

	err := v.Validate(SchemaCredentials, []byte(`{"login": 1}`))
	var verr *domainErrors.ValidationError
	if !errors.As(err, &verr) || len(verr.Details) != 2 {
		t.Fatalf("expected type and required violations, got %v", err)
	}

	if err := v.Validate(SchemaConfirmPayment, []byte("not json")); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for malformed json, got %v", err)
	}

	if err := v.Validate("nope", []byte(`{}`)); err == nil || errors.As(err, &verr) {
		t.Fatalf("expected plain error for unknown schema, got %v", err)
	}
}
