package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/backend"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/cart"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/checkout"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/gateway"
)

type stubResultSource struct {
	result gateway.SessionResult
	reason string
}

func (s *stubResultSource) GetResult() (gateway.SessionResult, string) {
	return s.result, s.reason
}

type fakeVerifier struct {
	orderErr  error
	verifyErr error
	verified  int
	lastOrder backend.CreateOrderRequest
}

func (f *fakeVerifier) CreatePaymentOrder(ctx context.Context, req backend.CreateOrderRequest) (domain.PaymentOrder, error) {
	f.lastOrder = req
	if f.orderErr != nil {
		return domain.PaymentOrder{}, f.orderErr
	}
	return domain.PaymentOrder{
		OrderID:  "ord_42",
		Amount:   req.Amount,
		Currency: req.Currency,
	}, nil
}

func (f *fakeVerifier) VerifyPayment(ctx context.Context, v domain.PaymentVerification) error {
	f.verified++
	return f.verifyErr
}

type checkoutFixture struct {
	store    *cart.Store
	verifier *fakeVerifier
	router   chi.Router
}

func newCheckoutFixture(t *testing.T, result gateway.SessionResult, reason string) *checkoutFixture {
	t.Helper()

	store := newTestStore(t)
	verifier := &fakeVerifier{}
	gw := gateway.NewSandbox(&stubResultSource{result: result, reason: reason}, "test-secret")
	orch := checkout.NewOrchestrator(gw, &staticConfig{})
	require.NoError(t, orch.LoadGateway(context.Background()))

	handler := NewCheckoutHandler(store, orch, verifier, "INR")
	router := chi.NewRouter()
	router.Post("/checkout", handler.StartCheckout)

	return &checkoutFixture{store: store, verifier: verifier, router: router}
}

type staticConfig struct{}

func (staticConfig) GatewayConfig(ctx context.Context) (domain.GatewayConfig, error) {
	return domain.GatewayConfig{PublicKeyID: "key_test"}, nil
}

func (f *checkoutFixture) fillCart(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	f.store.AddItem(ctx, domain.Product{ID: "thali", Name: "Thali", Price: "150.00"}, 2, "", nil)
	f.store.SetCustomer(ctx, domain.Customer{Name: "Asha", Email: email})
	f.store.SetFulfillment(ctx, domain.Fulfillment{TableRef: "T7"})
}

func (f *checkoutFixture) post(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestStartCheckout_EmptyCart(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultSuccess, "")

	rec := sut.post(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartCheckout_Unauthenticated(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultSuccess, "")
	sut.fillCart(t, "")

	rec := sut.post(t)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartCheckout_Success(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultSuccess, "")
	sut.fillCart(t, "asha@example.com")

	rec := sut.post(t)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp.Outcome)
	assert.Equal(t, "ord_42", resp.OrderID)
	assert.Equal(t, 1, sut.verifier.verified)
	assert.Equal(t, "T7", sut.verifier.lastOrder.TableRef)

	// the cart is emptied once the backend confirms the payment
	assert.Empty(t, sut.store.Session().Lines)
}

func TestStartCheckout_GatewayFailure(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultFailure, "insufficient funds")
	sut.fillCart(t, "asha@example.com")

	rec := sut.post(t)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Outcome)
	assert.Contains(t, resp.Notice, "insufficient funds")
	assert.Equal(t, 0, sut.verifier.verified)

	// a failed attempt keeps the cart intact
	assert.NotEmpty(t, sut.store.Session().Lines)
}

func TestStartCheckout_Dismissed(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultDismiss, "")
	sut.fillCart(t, "asha@example.com")

	rec := sut.post(t)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Outcome)
	assert.NotEmpty(t, sut.store.Session().Lines)
}

func TestStartCheckout_VerificationRejected(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultSuccess, "")
	sut.fillCart(t, "asha@example.com")
	sut.verifier.verifyErr = errors.New("signature mismatch")

	rec := sut.post(t)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Outcome)
	assert.Contains(t, resp.Notice, "contact support")

	// the cart is not cleared when the backend rejects the verification
	assert.NotEmpty(t, sut.store.Session().Lines)
}

func TestStartCheckout_OrderCreationFails(t *testing.T) {
	sut := newCheckoutFixture(t, gateway.ResultSuccess, "")
	sut.fillCart(t, "asha@example.com")
	sut.verifier.orderErr = errors.New("backend unreachable")

	rec := sut.post(t)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
