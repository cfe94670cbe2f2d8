package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle           CheckoutStatus = "IDLE"
	CheckoutStatusScriptLoading  CheckoutStatus = "SCRIPT_LOADING"
	CheckoutStatusScriptReady    CheckoutStatus = "SCRIPT_READY"
	CheckoutStatusAwaitingConfig CheckoutStatus = "AWAITING_CONFIG"
	CheckoutStatusSessionOpen    CheckoutStatus = "SESSION_OPEN"
	CheckoutStatusSucceeded      CheckoutStatus = "SUCCEEDED"
	CheckoutStatusFailed         CheckoutStatus = "FAILED"
	CheckoutStatusCancelled      CheckoutStatus = "CANCELLED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded || s == CheckoutStatusFailed || s == CheckoutStatusCancelled
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// Once the gateway script is loaded the machine rests at SCRIPT_READY
// between attempts; terminal states transition back there so a fresh
// attempt never re-loads the script.
var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:           {CheckoutStatusScriptLoading},
	CheckoutStatusScriptLoading:  {CheckoutStatusScriptReady, CheckoutStatusIdle},
	CheckoutStatusScriptReady:    {CheckoutStatusAwaitingConfig},
	CheckoutStatusAwaitingConfig: {CheckoutStatusSessionOpen, CheckoutStatusScriptReady},
	CheckoutStatusSessionOpen:    {CheckoutStatusSucceeded, CheckoutStatusFailed, CheckoutStatusCancelled, CheckoutStatusScriptReady},
	CheckoutStatusSucceeded:      {CheckoutStatusScriptReady},
	CheckoutStatusFailed:         {CheckoutStatusScriptReady},
	CheckoutStatusCancelled:      {CheckoutStatusScriptReady},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, allowed := range checkoutTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
