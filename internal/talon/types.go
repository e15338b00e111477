package talon

// EffectType of the effects this integration consumes. Talon.One emits many
// more; everything else is ignored.
const EffectAddLoyaltyPoints = "addLoyaltyPoints"

type EffectProps struct {
	Value float64 `json:"value"`
}

// Effect is one rule effect returned by a customer session update.
type Effect struct {
	EffectType string      `json:"effectType"`
	Props      EffectProps `json:"props"`
}

// SessionResult is the decoded response of PUT /v2/customer_sessions/{id}.
// A missing effects list decodes to nil and aggregates to zero.
type SessionResult struct {
	Effects []Effect `json:"effects"`
}

// LoyaltyPoints sums the values of all addLoyaltyPoints effects.
func (r *SessionResult) LoyaltyPoints() float64 {
	var total float64
	for _, effect := range r.Effects {
		if effect.EffectType == EffectAddLoyaltyPoints {
			total += effect.Props.Value
		}
	}
	return total
}

type Balance struct {
	ActivePoints  float64 `json:"activePoints"`
	PendingPoints float64 `json:"pendingPoints"`
}

// BalanceResult is the decoded response of the loyalty program balances
// endpoint. Absent fields decode to zero.
type BalanceResult struct {
	Balance Balance `json:"balance"`
}
