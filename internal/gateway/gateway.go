package gateway

import (
	"context"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
)

// Session describes one hosted checkout session. Amount is already in
// the gateway's minor-unit convention.
type Session struct {
	KeyID       string
	AmountMinor int64
	Currency    string
	Description string
	OrderID     string
	Prefill     Prefill
}

type Prefill struct {
	Name  string
	Email string
	Phone string
}

// Callbacks are the three mutually exclusive terminal events of an open
// session. The gateway fires exactly one of them, at most once.
type Callbacks struct {
	OnSuccess func(domain.PaymentVerification)
	OnFailure func(error)
	OnDismiss func()
}

// Gateway is the external payment client. Load fetches the client code
// once; Open drives a single session to one of the three callbacks. An
// error from Open means the gateway never took over the session.
type Gateway interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, session Session, cb Callbacks) error
}
