package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
)

var (
	ErrNotLoaded      = errors.New("gateway client not loaded")
	ErrInvalidSession = errors.New("invalid gateway session")
)

type SessionResult int

const (
	ResultSuccess SessionResult = iota
	ResultDismiss
	ResultFailure
)

type GetSessionResult interface {
	GetResult() (SessionResult, string)
}

type RandomResult struct{}

func (r RandomResult) GetResult() (SessionResult, string) {
	randomInt := rand.Intn(101) // 101 because Intn is exclusive of the upper bound
	return calcResult(randomInt)
}

func calcResult(randomInt int) (SessionResult, string) {
	if randomInt < 85 {
		return ResultSuccess, ""
	}
	if randomInt < 95 {
		return ResultDismiss, ""
	}
	reason := randomInt - 95
	switch reason {
	case 1:
		return ResultFailure, "insufficient funds"
	case 2:
		return ResultFailure, "card declined by issuer"
	case 3:
		return ResultFailure, "authentication failed"
	default:
		return ResultFailure, "payment failed for unknown reason"
	}
}

// Sandbox simulates the hosted checkout client: it must be loaded before
// a session can open, and each opened session fires exactly one terminal
// callback chosen by its result source.
type Sandbox struct {
	mu     sync.Mutex
	loaded bool
	result GetSessionResult
	secret string
}

func NewSandbox(result GetSessionResult, secret string) *Sandbox {
	return &Sandbox{
		result: result,
		secret: secret,
	}
}

func (s *Sandbox) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	return nil
}

func (s *Sandbox) Open(_ context.Context, session Session, cb Callbacks) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		return ErrNotLoaded
	}
	if session.KeyID == "" || session.OrderID == "" {
		return ErrInvalidSession
	}
	if session.AmountMinor <= 0 {
		return fmt.Errorf("%w: non-positive amount %d", ErrInvalidSession, session.AmountMinor)
	}

	result, reason := s.result.GetResult()
	switch result {
	case ResultSuccess:
		paymentID := fmt.Sprintf("pay_%s", uuid.NewString())
		cb.OnSuccess(domain.PaymentVerification{
			GatewayPaymentID: paymentID,
			GatewayOrderID:   session.OrderID,
			GatewaySignature: Signature(session.OrderID, paymentID, s.secret),
		})
	case ResultDismiss:
		cb.OnDismiss()
	default:
		cb.OnFailure(errors.New(reason))
	}
	return nil
}

// Signature reproduces the gateway's success signature: hex-encoded
// SHA-512 over order id, payment id and the shared secret.
func Signature(orderID, paymentID, secret string) string {
	raw := orderID + "|" + paymentID + "|" + secret
	hash := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(hash[:])
}
