package checkout

import "errors"

var (
	ErrGatewayNotReady    = errors.New("payment gateway is not ready, try again")
	ErrNotAuthenticated   = errors.New("must be signed in to pay")
	ErrCheckoutInProgress = errors.New("a checkout attempt is already in progress")
)
