package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/gateway"
)

// ConfigSource supplies the backend-issued gateway configuration.
type ConfigSource interface {
	GatewayConfig(ctx context.Context) (domain.GatewayConfig, error)
}

// Hooks are the caller-supplied continuations for one checkout attempt.
// OnSuccess receives the gateway verification data and is expected to
// run the backend verification call; returning an error from it routes
// the attempt to OnFailure without reopening the gateway session.
// OnCancel fires only on user dismissal, which is not a failure.
type Hooks struct {
	OnSuccess func(ctx context.Context, v domain.PaymentVerification) error
	OnFailure func(err error)
	OnCancel  func()
}

// Orchestrator drives a single payment attempt against the external
// gateway: load the client once, fetch configuration, open one session
// and route its single terminal callback.
type Orchestrator struct {
	gateway gateway.Gateway
	config  ConfigSource

	sfg singleflight.Group // collapses concurrent gateway loads

	mu        sync.Mutex
	status    domain.CheckoutStatus
	ready     bool
	attemptID string
	outcome   *domain.CheckoutOutcome
}

func NewOrchestrator(g gateway.Gateway, config ConfigSource) *Orchestrator {
	return &Orchestrator{
		gateway: g,
		config:  config,
		status:  domain.CheckoutStatusIdle,
	}
}

// LoadGateway loads the gateway client code. Concurrent triggers share a
// single load; once loaded it never reloads. A failed load returns the
// machine to idle so a later call can retry.
func (o *Orchestrator) LoadGateway(ctx context.Context) error {
	if o.Ready() {
		return nil
	}

	_, err, _ := o.sfg.Do("gateway-load", func() (interface{}, error) {
		if !o.transition(domain.CheckoutStatusScriptLoading) {
			return nil, nil // another caller finished the load already
		}
		if err := o.gateway.Load(ctx); err != nil {
			o.transition(domain.CheckoutStatusIdle)
			return nil, fmt.Errorf("gateway load failed: %w", err)
		}
		o.mu.Lock()
		o.ready = true
		o.mu.Unlock()
		o.transition(domain.CheckoutStatusScriptReady)
		return nil, nil
	})
	return err
}

// Ready reports whether the gateway client finished loading.
func (o *Orchestrator) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

// Status returns the current machine state.
func (o *Orchestrator) Status() domain.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// LastOutcome returns the terminal outcome of the most recent completed
// attempt, or nil when no attempt has finished yet.
func (o *Orchestrator) LastOutcome() *domain.CheckoutOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// Start runs one checkout attempt for a server-created payment order.
// Precondition violations and config failures are returned to the caller
// without any gateway call; everything after the session opens is routed
// through the hooks, never an error return.
func (o *Orchestrator) Start(ctx context.Context, order domain.PaymentOrder, identity domain.Customer, hooks Hooks) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return ErrGatewayNotReady
	}
	if identity.Email == "" {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}
	if o.status != domain.CheckoutStatusScriptReady {
		o.mu.Unlock()
		return ErrCheckoutInProgress
	}
	o.status = domain.CheckoutStatusAwaitingConfig
	o.attemptID = uuid.NewString()
	attemptID := o.attemptID
	o.mu.Unlock()

	cfg, err := o.config.GatewayConfig(ctx)
	if err != nil {
		o.transition(domain.CheckoutStatusScriptReady)
		return err // recoverable, caller may retry the whole attempt
	}

	session := gateway.Session{
		KeyID:       cfg.PublicKeyID,
		AmountMinor: order.AmountMinorUnits(),
		Currency:    order.Currency,
		Description: order.Description(),
		OrderID:     order.OrderID,
		Prefill: gateway.Prefill{
			Name:  identity.Name,
			Email: identity.Email,
			// phone is not collected upstream, left blank
		},
	}

	if !o.transition(domain.CheckoutStatusSessionOpen) {
		return ErrCheckoutInProgress
	}
	log.Printf("opening gateway session attempt = %v order = %v amount_minor = %v", attemptID, order.OrderID, session.AmountMinor)

	err = o.gateway.Open(ctx, session, gateway.Callbacks{
		OnSuccess: func(v domain.PaymentVerification) { o.succeed(ctx, v, hooks) },
		OnFailure: func(reason error) { o.fail(reason, hooks) },
		OnDismiss: func() { o.cancel(hooks) },
	})
	if err != nil {
		// the gateway never took over; resolve here, do not propagate
		o.transition(domain.CheckoutStatusScriptReady)
		log.Printf("gateway session open failed attempt = %v: %v", attemptID, err)
		if hooks.OnFailure != nil {
			hooks.OnFailure(fmt.Errorf("could not open payment session: %w", err))
		}
	}
	return nil
}

func (o *Orchestrator) succeed(ctx context.Context, v domain.PaymentVerification, hooks Hooks) {
	if !o.terminate(domain.CheckoutStatusSucceeded, &domain.CheckoutOutcome{
		Kind:         domain.OutcomeSucceeded,
		Verification: &v,
	}) {
		return
	}

	log.Printf("gateway payment succeeded payment_id = %v", v.GatewayPaymentID)
	if hooks.OnSuccess != nil {
		if err := hooks.OnSuccess(ctx, v); err != nil {
			// the charge went through but verification was rejected; the
			// gateway session is closed, so no retry of the gateway step
			log.Printf("post-payment verification failed payment_id = %v: %v", v.GatewayPaymentID, err)
			if hooks.OnFailure != nil {
				hooks.OnFailure(fmt.Errorf("payment verification failed, contact support: %w", err))
			}
		}
	}
	o.transition(domain.CheckoutStatusScriptReady)
}

func (o *Orchestrator) fail(reason error, hooks Hooks) {
	if !o.terminate(domain.CheckoutStatusFailed, &domain.CheckoutOutcome{
		Kind:   domain.OutcomeFailed,
		Reason: reason,
	}) {
		return
	}

	log.Printf("gateway payment failed: %v", reason)
	if hooks.OnFailure != nil {
		hooks.OnFailure(reason)
	}
	o.transition(domain.CheckoutStatusScriptReady)
}

func (o *Orchestrator) cancel(hooks Hooks) {
	if !o.terminate(domain.CheckoutStatusCancelled, &domain.CheckoutOutcome{
		Kind: domain.OutcomeCancelled,
	}) {
		return
	}

	// dismissal is benign: no failure continuation, immediately retryable
	log.Printf("gateway session dismissed by user")
	if hooks.OnCancel != nil {
		hooks.OnCancel()
	}
	o.transition(domain.CheckoutStatusScriptReady)
}

// terminate moves to a terminal state and records the outcome. It
// returns false when the attempt already reached a terminal state, which
// keeps late or duplicate gateway callbacks from firing continuations
// twice.
func (o *Orchestrator) terminate(to domain.CheckoutStatus, outcome *domain.CheckoutOutcome) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !domain.CanTransitionTo(o.status, to) {
		return false
	}
	o.status = to
	o.outcome = outcome
	return true
}

func (o *Orchestrator) transition(to domain.CheckoutStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !domain.CanTransitionTo(o.status, to) {
		return false
	}
	o.status = to
	return true
}
