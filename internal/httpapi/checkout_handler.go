package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/backend"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/cart"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/checkout"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
)

// Verifier is the slice of the backend client the checkout surface
// needs: order creation before the attempt, verification inside the
// success continuation.
type Verifier interface {
	CreatePaymentOrder(ctx context.Context, req backend.CreateOrderRequest) (domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, v domain.PaymentVerification) error
}

type CheckoutHandler struct {
	store    *cart.Store
	orch     *checkout.Orchestrator
	backend  Verifier
	currency string
}

func NewCheckoutHandler(store *cart.Store, orch *checkout.Orchestrator, b Verifier, currency string) *CheckoutHandler {
	return &CheckoutHandler{
		store:    store,
		orch:     orch,
		backend:  b,
		currency: currency,
	}
}

type CheckoutResponseDTO struct {
	Outcome string `json:"outcome"`
	Notice  string `json:"notice,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session := h.store.Session()
	if len(session.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty, nothing to checkout")
		return
	}

	order, err := h.backend.CreatePaymentOrder(ctx, backend.CreateOrderRequest{
		Amount:     h.store.TotalAmount(),
		Currency:   h.currency,
		TableRef:   session.Fulfillment.TableRef,
		RoomNumber: session.Fulfillment.RoomNumber,
	})
	if err != nil {
		respondError(w, http.StatusBadGateway, "order_creation_failed", err.Error())
		return
	}

	var result CheckoutResponseDTO
	result.OrderID = order.OrderID

	err = h.orch.Start(ctx, order, session.Customer, checkout.Hooks{
		OnSuccess: func(ctx context.Context, v domain.PaymentVerification) error {
			if err := h.backend.VerifyPayment(ctx, v); err != nil {
				return err
			}
			// confirmed by the backend, the cart is done
			h.store.Clear(ctx)
			result.Outcome = "succeeded"
			result.Notice = "payment confirmed"
			return nil
		},
		OnFailure: func(err error) {
			result.Outcome = "failed"
			result.Notice = err.Error()
		},
		OnCancel: func() {
			result.Outcome = "cancelled"
			result.Notice = "payment cancelled"
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrGatewayNotReady):
			respondError(w, http.StatusServiceUnavailable, "gateway_not_ready", err.Error())
		case errors.Is(err, checkout.ErrNotAuthenticated):
			respondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		case errors.Is(err, checkout.ErrCheckoutInProgress):
			respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
		default:
			respondError(w, http.StatusBadGateway, "config_fetch_failed", err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}
