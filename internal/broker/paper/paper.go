package paper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

var (
	ErrInvalidFraction = errors.New("paper: target fraction must be in [-1, 1]")
	ErrInvalidPrice    = errors.New("paper: price must be positive")
)

type position struct {
	qty     int64
	avgCost decimal.Decimal
}

// Broker fills every order immediately at the reference price and charges a flat
// commission on traded notional. There is no margin model: shorts credit cash.
type Broker struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	commission   decimal.Decimal
	realized     decimal.Decimal
	fees         decimal.Decimal
	positions    map[string]*position
	marks        map[string]decimal.Decimal
	seq          int
}

var _ interfaces.Broker = (*Broker)(nil)

func NewBroker(startingCash, commissionRate float64) *Broker {
	cash := decimal.NewFromFloat(startingCash)
	return &Broker{
		startingCash: cash,
		cash:         cash,
		commission:   decimal.NewFromFloat(commissionRate),
		positions:    make(map[string]*position),
		marks:        make(map[string]decimal.Decimal),
	}
}

// Position returns the signed unit holding for symbol.
func (b *Broker) Position(ctx context.Context, symbol string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.positions[symbol]; p != nil {
		return float64(p.qty), nil
	}
	return 0, nil
}

// Mark records the latest price of symbol for equity calculations.
func (b *Broker) Mark(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marks[symbol] = decimal.NewFromFloat(price)
}

// SetTargetAllocation trades symbol to fraction of current equity. The target
// quantity is truncated toward zero to whole units, leaving room for commission.
func (b *Broker) SetTargetAllocation(ctx context.Context, symbol string, fraction, price float64) (types.OrderResp, error) {
	if fraction < -1 || fraction > 1 || math.IsNaN(fraction) {
		return types.OrderResp{}, ErrInvalidFraction
	}
	if !(price > 0) {
		return types.OrderResp{}, ErrInvalidPrice
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	px := decimal.NewFromFloat(price)
	b.marks[symbol] = px

	equity := b.equityLocked()
	unitCost := px.Mul(decimal.NewFromInt(1).Add(b.commission))
	target := decimal.NewFromFloat(fraction).Mul(equity).Div(unitCost).IntPart()

	p := b.positions[symbol]
	if p == nil {
		p = &position{}
	}
	delta := target - p.qty
	if delta == 0 {
		return types.OrderResp{Status: "NOOP", Message: "already at target", Price: price}, nil
	}

	b.fill(symbol, p, delta, px)
	b.seq++

	side, qty := "BUY", delta
	if delta < 0 {
		side, qty = "SELL", -delta
	}
	return types.OrderResp{
		OrderID: fmt.Sprintf("PAPER-%d", b.seq),
		Status:  "FILLED",
		Side:    side,
		Qty:     int(qty),
		Price:   price,
	}, nil
}

func (b *Broker) fill(symbol string, p *position, delta int64, px decimal.Decimal) {
	d := decimal.NewFromInt(delta)
	notional := d.Abs().Mul(px)
	fee := notional.Mul(b.commission)

	b.cash = b.cash.Sub(d.Mul(px)).Sub(fee)
	b.fees = b.fees.Add(fee)

	cur := p.qty
	next := cur + delta
	switch {
	case cur == 0 || sameSign(cur, delta):
		total := decimal.NewFromInt(abs(cur)).Mul(p.avgCost).Add(notional)
		p.avgCost = total.Div(decimal.NewFromInt(abs(next)))
	default:
		closed := min(abs(delta), abs(cur))
		pnl := px.Sub(p.avgCost).Mul(decimal.NewFromInt(closed))
		if cur < 0 {
			pnl = pnl.Neg()
		}
		b.realized = b.realized.Add(pnl)
		switch {
		case next == 0:
			p.avgCost = decimal.Zero
		case !sameSign(cur, next):
			p.avgCost = px
		}
	}
	p.qty = next

	if next == 0 {
		delete(b.positions, symbol)
	} else {
		b.positions[symbol] = p
	}
}

func (b *Broker) equityLocked() decimal.Decimal {
	equity := b.cash
	for sym, p := range b.positions {
		mark, ok := b.marks[sym]
		if !ok {
			mark = p.avgCost
		}
		equity = equity.Add(decimal.NewFromInt(p.qty).Mul(mark))
	}
	return equity
}

// Snapshot is a point-in-time view of the account.
type Snapshot struct {
	Cash        float64
	Equity      float64
	RealizedPnL float64
	Commission  float64
	Positions   map[string]int64
}

func (b *Broker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	positions := make(map[string]int64, len(b.positions))
	for sym, p := range b.positions {
		positions[sym] = p.qty
	}
	return Snapshot{
		Cash:        b.cash.InexactFloat64(),
		Equity:      b.equityLocked().InexactFloat64(),
		RealizedPnL: b.realized.InexactFloat64(),
		Commission:  b.fees.InexactFloat64(),
		Positions:   positions,
	}
}

func (b *Broker) StartingCash() float64 {
	return b.startingCash.InexactFloat64()
}

func sameSign(a, b int64) bool {
	return (a > 0) == (b > 0)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
