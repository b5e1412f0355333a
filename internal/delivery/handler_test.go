package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
	"github.com/Ojay1963/Delxta/internal/middleware"
	"github.com/Ojay1963/Delxta/internal/usecase"
)

const testSecret = "handler-secret"

type mockOrderUseCase struct {
	createCash   func(input domain.OrderDraftInput, caller *domain.Caller) (*domain.Order, error)
	getByID      func(id string, caller *domain.Caller) (*domain.Order, error)
	listMine     func(caller *domain.Caller) ([]domain.Order, error)
	listAdmin    func(status string, caller *domain.Caller) ([]domain.Order, error)
	updateStatus func(id string, status domain.OrderStatus, caller *domain.Caller) (*domain.Order, error)
}

func (m *mockOrderUseCase) CreateCashOrder(_ context.Context, input domain.OrderDraftInput, caller *domain.Caller) (*domain.Order, error) {
	return m.createCash(input, caller)
}

func (m *mockOrderUseCase) GetOrderByID(_ context.Context, id string, caller *domain.Caller) (*domain.Order, error) {
	return m.getByID(id, caller)
}

func (m *mockOrderUseCase) ListMyOrders(_ context.Context, caller *domain.Caller) ([]domain.Order, error) {
	return m.listMine(caller)
}

func (m *mockOrderUseCase) ListAdminOrders(_ context.Context, status string, caller *domain.Caller) ([]domain.Order, error) {
	return m.listAdmin(status, caller)
}

func (m *mockOrderUseCase) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus, caller *domain.Caller) (*domain.Order, error) {
	return m.updateStatus(id, status, caller)
}

type mockCheckoutUseCase struct {
	createSession func(input domain.OrderDraftInput, method domain.PaymentMethod, caller *domain.Caller) (*domain.CheckoutSession, error)
	getSession    func(id string, caller *domain.Caller) (*domain.CheckoutSession, error)
	completeCard  func(id string, card usecase.CardDetails, caller *domain.Caller) (*domain.Order, error)
	initialize    func(id, callbackURL string, caller *domain.Caller) (*clients.Initialization, error)
	complete      func(reference string, caller *domain.Caller) (*domain.Order, error)
	verify        func(reference string) (*clients.Verification, error)
	webhook       func(body []byte, signature string) (*domain.Order, error)
}

func (m *mockCheckoutUseCase) CreateCheckoutSession(_ context.Context, input domain.OrderDraftInput, method domain.PaymentMethod, caller *domain.Caller) (*domain.CheckoutSession, error) {
	return m.createSession(input, method, caller)
}

func (m *mockCheckoutUseCase) GetCheckoutSession(_ context.Context, id string, caller *domain.Caller) (*domain.CheckoutSession, error) {
	return m.getSession(id, caller)
}

func (m *mockCheckoutUseCase) CompleteSimulatedCard(_ context.Context, id string, card usecase.CardDetails, caller *domain.Caller) (*domain.Order, error) {
	return m.completeCard(id, card, caller)
}

func (m *mockCheckoutUseCase) InitializeGatewayPayment(_ context.Context, id, callbackURL string, caller *domain.Caller) (*clients.Initialization, error) {
	return m.initialize(id, callbackURL, caller)
}

func (m *mockCheckoutUseCase) CompleteGatewayPayment(_ context.Context, reference string, caller *domain.Caller) (*domain.Order, error) {
	return m.complete(reference, caller)
}

func (m *mockCheckoutUseCase) VerifyGatewayPayment(_ context.Context, reference string) (*clients.Verification, error) {
	return m.verify(reference)
}

func (m *mockCheckoutUseCase) HandleGatewayWebhook(_ context.Context, body []byte, signature string) (*domain.Order, error) {
	return m.webhook(body, signature)
}

func (m *mockCheckoutUseCase) PurgeExpiredSessions(context.Context) (int64, error) {
	return 0, nil
}

type fixture struct {
	router   *gin.Engine
	orders   *mockOrderUseCase
	checkout *mockCheckoutUseCase
	customer string
	admin    string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{orders: &mockOrderUseCase{}, checkout: &mockCheckoutUseCase{}}
	f.router = NewRouter(NewOrderHandler(f.orders, logger), NewCheckoutHandler(f.checkout, logger), testSecret, logger)

	var err error
	f.customer, err = middleware.IssueToken(&domain.Caller{UserID: "user-1", Email: "ada@example.com", Role: domain.RoleCustomer}, testSecret, time.Hour)
	require.NoError(t, err)
	f.admin, err = middleware.IssueToken(&domain.Caller{UserID: "admin-1", Role: domain.RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth_NoAuth(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_RequireToken(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/api/orders/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_CashOnDelivery(t *testing.T) {
	f := setup(t)
	var gotInput domain.OrderDraftInput
	var gotCaller *domain.Caller
	f.orders.createCash = func(input domain.OrderDraftInput, caller *domain.Caller) (*domain.Order, error) {
		gotInput, gotCaller = input, caller
		return &domain.Order{ID: "order-1", PaymentMethod: domain.PaymentCashOnDelivery}, nil
	}

	w := f.do(http.MethodPost, "/api/orders", f.customer, map[string]any{
		"customerName":  "Ada",
		"email":         "ada@example.com",
		"phone":         "+2348012345678",
		"deliveryType":  "pickup",
		"paymentMethod": "cash_on_delivery",
		"items":         []map[string]any{{"menuItemId": "jollof-rice", "quantity": 2, "servingOption": "family"}},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ada", gotInput.CustomerName)
	require.Len(t, gotInput.Items, 1)
	assert.Equal(t, "jollof-rice", gotInput.Items[0].MenuItemID)
	assert.Equal(t, int64(2), usecase.NormalizeQuantity(gotInput.Items[0].Quantity))
	assert.Equal(t, "user-1", gotCaller.UserID)
	assert.Equal(t, "Success", decode(t, w).Status)
}

func TestCreateOrder_RejectsOnlineMethod(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPost, "/api/orders", f.customer, map[string]any{"paymentMethod": "paystack"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPost, "/api/orders", f.customer, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Fail", decode(t, w).Status)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", domain.NewValidationError("Customer name is required."), http.StatusBadRequest, "validation"},
		{"item not found", domain.ErrItemNotFound, http.StatusBadRequest, "item_not_found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{"session expired", domain.ErrSessionExpired, http.StatusGone, "session_expired"},
		{"not successful", domain.NewPaymentNotSuccessfulError("failed"), http.StatusBadRequest, domain.CodePaymentNotSuccessful},
		{"amount mismatch", domain.NewAmountMismatchError(100, 50), http.StatusBadRequest, domain.CodeAmountMismatch},
		{"gateway", domain.NewGatewayError(domain.CodeGatewayUnavailable, "Payment gateway is unavailable.", nil), http.StatusBadGateway, domain.CodeGatewayUnavailable},
		{"conflict", domain.NewConflictError("Checkout session already completed."), http.StatusConflict, "conflict"},
		{"internal", io.ErrUnexpectedEOF, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.checkout.complete = func(string, *domain.Caller) (*domain.Order, error) {
				return nil, tt.err
			}

			w := f.do(http.MethodPost, "/api/payments/paystack/complete", f.customer, map[string]string{"reference": "ref"})
			assert.Equal(t, tt.wantCode, w.Code)
			resp := decode(t, w)
			assert.Equal(t, "Fail", resp.Status)
			assert.Equal(t, tt.wantErr, resp.ErrorCode)
			assert.Equal(t, domain.MessageOf(tt.err), resp.Message)
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	f := setup(t)
	var gotStatus string
	f.orders.listAdmin = func(status string, _ *domain.Caller) ([]domain.Order, error) {
		gotStatus = status
		return []domain.Order{{ID: "order-1"}}, nil
	}
	f.orders.updateStatus = func(id string, status domain.OrderStatus, _ *domain.Caller) (*domain.Order, error) {
		order := &domain.Order{ID: id}
		order.OrderStatus = status
		return order, nil
	}

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/orders/admin", f.customer, nil).Code)

	w := f.do(http.MethodGet, "/api/orders/admin?status=preparing", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preparing", gotStatus)

	assert.Equal(t, http.StatusForbidden,
		f.do(http.MethodPatch, "/api/orders/order-1/status", f.customer, map[string]string{"orderStatus": "completed"}).Code)

	w = f.do(http.MethodPatch, "/api/orders/order-1/status", f.admin, map[string]string{"orderStatus": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orderStatus":"completed"`)
}

func TestGetOrder_RoutesStaticBeforeParam(t *testing.T) {
	f := setup(t)
	f.orders.listMine = func(caller *domain.Caller) ([]domain.Order, error) {
		return []domain.Order{}, nil
	}
	var gotID string
	f.orders.getByID = func(id string, _ *domain.Caller) (*domain.Order, error) {
		gotID = id
		return &domain.Order{ID: id}, nil
	}

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/orders/my", f.customer, nil).Code)
	assert.Empty(t, gotID)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/orders/abc", f.customer, nil).Code)
	assert.Equal(t, "abc", gotID)
}

func TestCreateCheckoutSession(t *testing.T) {
	f := setup(t)
	expires := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	var gotMethod domain.PaymentMethod
	f.checkout.createSession = func(_ domain.OrderDraftInput, method domain.PaymentMethod, _ *domain.Caller) (*domain.CheckoutSession, error) {
		gotMethod = method
		return &domain.CheckoutSession{
			ID:            "sess-1",
			AmountKobo:    1000000,
			PaymentMethod: method,
			OrderDraft:    domain.OrderDraft{Total: 10000},
			ExpiresAt:     expires,
		}, nil
	}

	w := f.do(http.MethodPost, "/api/orders/checkout-session", f.customer, map[string]any{"paymentMethod": "paystack"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, domain.PaymentPaystack, gotMethod)

	var body struct {
		Data struct {
			CheckoutSessionID string `json:"checkoutSessionId"`
			Amount            int64  `json:"amount"`
			AmountKobo        int64  `json:"amountKobo"`
		} `json:"Data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sess-1", body.Data.CheckoutSessionID)
	assert.Equal(t, int64(10000), body.Data.Amount)
	assert.Equal(t, int64(1000000), body.Data.AmountKobo)
}

func TestCompleteCard_PassesDetails(t *testing.T) {
	f := setup(t)
	var gotID string
	var gotCard usecase.CardDetails
	f.checkout.completeCard = func(id string, card usecase.CardDetails, _ *domain.Caller) (*domain.Order, error) {
		gotID, gotCard = id, card
		return &domain.Order{ID: "order-9"}, nil
	}

	w := f.do(http.MethodPost, "/api/orders/checkout-session/sess-1/complete-card", f.customer, map[string]any{
		"paymentDetails": map[string]string{
			"cardNumber": "4242 4242 4242 4242", "cardHolderName": "Ada", "expiry": "12/30", "cvv": "123",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "sess-1", gotID)
	assert.Equal(t, "4242 4242 4242 4242", gotCard.CardNumber)
	assert.Equal(t, "123", gotCard.CVV)
}

func TestInitializePaystack(t *testing.T) {
	f := setup(t)
	f.checkout.initialize = func(id, callbackURL string, _ *domain.Caller) (*clients.Initialization, error) {
		assert.Equal(t, "sess-1", id)
		assert.Equal(t, "https://shop.example/return", callbackURL)
		return &clients.Initialization{AuthorizationURL: "https://pay.example/x", Reference: "delxta_1_abcdef"}, nil
	}

	w := f.do(http.MethodPost, "/api/payments/paystack/initialize", f.customer, map[string]string{
		"checkoutSessionId": "sess-1", "callbackUrl": "https://shop.example/return",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authorizationUrl":"https://pay.example/x"`)
}

func TestVerifyPaystack(t *testing.T) {
	f := setup(t)
	f.checkout.verify = func(reference string) (*clients.Verification, error) {
		return &clients.Verification{Status: "success", Reference: reference, AmountMinorUnits: 500}, nil
	}

	w := f.do(http.MethodGet, "/api/payments/paystack/verify/ref-1", f.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reference":"ref-1"`)
}

func TestPaystackWebhook(t *testing.T) {
	f := setup(t)
	payload := `{"event":"charge.success","data":{"reference":"ref-1"}}`
	f.checkout.webhook = func(body []byte, signature string) (*domain.Order, error) {
		if signature != "good" {
			return nil, domain.NewForbiddenError("Invalid webhook signature.")
		}
		assert.Equal(t, payload, string(body))
		return &domain.Order{ID: "order-7"}, nil
	}

	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/paystack/webhook", bytes.NewBufferString(payload))
		req.Header.Set(clients.PaystackSignatureHeader, signature)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	w := send("good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orderId":"order-7"`)

	assert.Equal(t, http.StatusForbidden, send("bad").Code)
}

func TestPaystackWebhook_IgnoredEvent(t *testing.T) {
	f := setup(t)
	f.checkout.webhook = func([]byte, string) (*domain.Order, error) { return nil, nil }

	w := f.do(http.MethodPost, "/api/payments/paystack/webhook", "", `{"event":"transfer.success"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Event acknowledged", decode(t, w).Message)
}
