package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlanDetails is optional subscription metadata attached to a payment
// order by the backend.
type PlanDetails struct {
	Name         string `json:"name"`
	BillingCycle string `json:"billing_cycle"`
}

// PaymentOrder is the server-created order the gateway session is scoped
// to. Amount is in major currency units; conversion to the gateway's
// minor-unit convention happens only at session construction.
type PaymentOrder struct {
	OrderID  string          `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Plan     *PlanDetails    `json:"plan_details,omitempty"`
}

// AmountMinorUnits converts the major-unit amount to the gateway's
// minor-unit convention (x100).
func (o PaymentOrder) AmountMinorUnits() int64 {
	return o.Amount.Shift(2).Round(0).IntPart()
}

// Description builds the human-readable session description, preferring
// plan details when present.
func (o PaymentOrder) Description() string {
	if o.Plan != nil && o.Plan.Name != "" {
		if o.Plan.BillingCycle != "" {
			return fmt.Sprintf("%s (%s)", o.Plan.Name, o.Plan.BillingCycle)
		}
		return o.Plan.Name
	}
	return fmt.Sprintf("Order %s", o.OrderID)
}

// PaymentVerification carries the three opaque identifiers the gateway
// returns on success. They are forwarded verbatim to the backend
// verification endpoint.
type PaymentVerification struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// GatewayConfig is the backend-issued gateway configuration.
type GatewayConfig struct {
	PublicKeyID string `json:"public_key_id"`
}

type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "SUCCEEDED"
	OutcomeFailed    OutcomeKind = "FAILED"
	OutcomeCancelled OutcomeKind = "CANCELLED"
)

// CheckoutOutcome is the single terminal result of one checkout attempt.
type CheckoutOutcome struct {
	Kind         OutcomeKind
	Verification *PaymentVerification // set only for OutcomeSucceeded
	Reason       error                // set only for OutcomeFailed
}
