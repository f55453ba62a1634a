package types

import "fmt"

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// FeatureWindow holds the most recent closes, oldest first.
type FeatureWindow []float64

type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// InterpretationRequest is the rendered prompt for one bar plus the data it embeds.
type InterpretationRequest struct {
	Symbol string
	Prompt string
	Window FeatureWindow
	Bands  Bands
}

// SentimentScore is a VADER-style polarity breakdown. Compound is in [-1, 1].
type SentimentScore struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"pos"`
	Neutral  float64 `json:"neu"`
	Negative float64 `json:"neg"`
}

type Action string

const (
	GoLong  Action = "GO_LONG"
	GoShort Action = "GO_SHORT"
	Hold    Action = "HOLD"
)

// Instruction is the target position emitted once per bar.
type Instruction struct {
	Action   Action  `json:"action"`
	Fraction float64 `json:"fraction,omitempty"`
}

func HoldInstruction() Instruction { return Instruction{Action: Hold} }

// Target returns the signed allocation the broker should hold: +fraction, -fraction or 0.
func (i Instruction) Target() float64 {
	switch i.Action {
	case GoLong:
		return i.Fraction
	case GoShort:
		return -i.Fraction
	}
	return 0
}

func (i Instruction) String() string {
	if i.Action == Hold {
		return string(Hold)
	}
	return fmt.Sprintf("%s(%.2f)", i.Action, i.Fraction)
}

type StepResult struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Time        int64           `json:"time"`
	Price       float64         `json:"price"`
	Instruction Instruction     `json:"instruction"`
	Score       *SentimentScore `json:"score,omitempty"`
	Bands       *Bands          `json:"bands,omitempty"`
	Holding     float64         `json:"holding"`
	Orders      []OrderResp     `json:"orders"`
	Reason      string          `json:"reason"`
}

type OrderReq struct {
	Symbol, Side string
	Qty          int
	Tag          string
}

type OrderResp struct {
	OrderID string  `json:"order_id"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Side    string  `json:"side,omitempty"`
	Qty     int     `json:"qty,omitempty"`
	Price   float64 `json:"price,omitempty"`
}

// Step reasons.
const (
	ReasonInsufficientHistory       = "insufficient_history"
	ReasonInterpretationUnavailable = "interpretation_unavailable"
	ReasonAlreadyPositioned         = "already_positioned"
	ReasonInsideThresholds          = "inside_thresholds"
	ReasonPositionUnknown           = "position_unknown"
	ReasonOrderError                = "order_error"
	ReasonSignal                    = "sentiment_signal"
)
