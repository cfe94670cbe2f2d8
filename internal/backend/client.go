package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
)

// Client talks to the platform backend: gateway configuration, payment
// order creation and post-payment verification. All calls go through a
// shared circuit breaker so a flapping backend trips fast instead of
// piling up requests.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	sfg     singleflight.Group // collapses concurrent config fetches
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "platform-backend",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

type gatewayConfigDTO struct {
	PublicKeyID string `json:"publicKeyId"`
}

// GatewayConfig fetches the gateway public key id. The call is side
// effect free and cheap, so concurrent callers share one request.
func (c *Client) GatewayConfig(ctx context.Context) (domain.GatewayConfig, error) {
	v, err, _ := c.sfg.Do("gateway-config", func() (interface{}, error) {
		var dto gatewayConfigDTO
		if err := c.doJSON(ctx, http.MethodGet, "/api/payments/config", nil, &dto, nil); err != nil {
			return nil, err
		}
		return domain.GatewayConfig{PublicKeyID: dto.PublicKeyID}, nil
	})
	if err != nil {
		return domain.GatewayConfig{}, fmt.Errorf("gateway config fetch failed: %w", err)
	}
	return v.(domain.GatewayConfig), nil
}

type CreateOrderRequest struct {
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	TableRef    string              `json:"table_ref,omitempty"`
	RoomNumber  string              `json:"room_number,omitempty"`
	PlanDetails *domain.PlanDetails `json:"plan_details,omitempty"`
}

type paymentOrderDTO struct {
	OrderID     string              `json:"orderId"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	PlanDetails *domain.PlanDetails `json:"planDetails,omitempty"`
}

// CreatePaymentOrder asks the backend to create the server-side payment
// order the gateway session will be scoped to. Each call carries a fresh
// idempotency key so backend retries cannot double-create orders.
func (c *Client) CreatePaymentOrder(ctx context.Context, req CreateOrderRequest) (domain.PaymentOrder, error) {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	var dto paymentOrderDTO
	if err := c.doJSON(ctx, http.MethodPost, "/api/payments/orders", req, &dto, headers); err != nil {
		return domain.PaymentOrder{}, fmt.Errorf("payment order creation failed: %w", err)
	}

	return domain.PaymentOrder{
		OrderID:  dto.OrderID,
		Amount:   dto.Amount,
		Currency: dto.Currency,
		Plan:     dto.PlanDetails,
	}, nil
}

// VerifyPayment forwards the gateway's verification data verbatim. A
// rejection here is final for the attempt; the gateway side must not be
// retried for the same order.
func (c *Client) VerifyPayment(ctx context.Context, v domain.PaymentVerification) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/payments/verify", v, nil, nil); err != nil {
		return fmt.Errorf("payment verification failed: %w", err)
	}
	return nil
}

type errorResponseDTO struct {
	Error string `json:"error"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var dto errorResponseDTO
			if json.Unmarshal(data, &dto) == nil && dto.Error != "" {
				return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, dto.Error)
			}
			return nil, fmt.Errorf("backend returned %d", resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
