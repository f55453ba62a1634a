package engine

import (
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/types"
)

// Policy turns a compound sentiment score and the current holding into an instruction.
type Policy struct {
	BuyThreshold  float64
	SellThreshold float64
	Fraction      float64
}

// NewPolicy validates the thresholds once at startup. Inverted or non-finite
// thresholds return a *store.ConfigError.
func NewPolicy(buy, sell, fraction float64) (Policy, error) {
	if err := store.ValidateThresholds(buy, sell); err != nil {
		return Policy{}, err
	}
	if fraction <= 0 || fraction > 1 {
		return Policy{}, &store.ConfigError{Field: "decision.fraction", Reason: "must be in (0, 1]"}
	}
	return Policy{BuyThreshold: buy, SellThreshold: sell, Fraction: fraction}, nil
}

// Decide is pure: the same score and holding always give the same instruction and reason.
//
//	compound > buy  and holding <= 0 -> GO_LONG
//	compound < sell and holding >= 0 -> GO_SHORT
//	otherwise                        -> HOLD
func (p Policy) Decide(compound, holding float64) (types.Instruction, string) {
	if compound > p.BuyThreshold && holding <= 0 {
		return types.Instruction{Action: types.GoLong, Fraction: p.Fraction}, types.ReasonSignal
	}
	if compound < p.SellThreshold && holding >= 0 {
		return types.Instruction{Action: types.GoShort, Fraction: p.Fraction}, types.ReasonSignal
	}
	if compound > p.BuyThreshold || compound < p.SellThreshold {
		return types.HoldInstruction(), types.ReasonAlreadyPositioned
	}
	return types.HoldInstruction(), types.ReasonInsideThresholds
}
