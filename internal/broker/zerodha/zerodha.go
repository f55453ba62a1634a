package zerodha

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/types"
)

var (
	ErrInvalidFraction = errors.New("zerodha: target fraction must be in [-1, 1]")
	ErrInvalidPrice    = errors.New("zerodha: price must be positive")
	ErrNoEquity        = errors.New("zerodha: no equity available for sizing")
)

// kiteClient is the subset of the Kite Connect REST client the adapter uses.
type kiteClient interface {
	GetPositions() (kiteconnect.Positions, error)
	GetUserSegmentMargins(segment string) (kiteconnect.Margins, error)
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type Params struct {
	Mode         string
	APIKey       string
	AccessToken  string
	Exchange     string
	Product      string
	StartingCash float64
}

// Zerodha sizes target allocations against the account's equity margin and
// submits market orders through Kite Connect. In DRY_RUN mode orders are
// simulated and positions are tracked locally against StartingCash.
type Zerodha struct {
	p  Params
	kc kiteClient

	mu  sync.Mutex
	sim map[string]int
}

var _ interfaces.Broker = (*Zerodha)(nil)

func NewZerodha(p Params) *Zerodha {
	var kc kiteClient
	if p.APIKey != "" {
		c := kiteconnect.New(p.APIKey)
		c.SetAccessToken(p.AccessToken)
		kc = c
	}
	return newWithClient(p, kc)
}

func newWithClient(p Params, kc kiteClient) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Product == "" {
		p.Product = kiteconnect.ProductMIS
	}
	return &Zerodha{p: p, kc: kc, sim: make(map[string]int)}
}

// FromConfig builds the adapter from the broker section of cfg.
func FromConfig(cfg *store.Config) *Zerodha {
	return NewZerodha(Params{
		Mode:         cfg.Mode,
		APIKey:       cfg.Broker.APIKey,
		AccessToken:  cfg.Broker.AccessToken,
		Exchange:     cfg.Broker.Exchange,
		Product:      cfg.Broker.Product,
		StartingCash: cfg.Broker.StartingCash,
	})
}

func (z *Zerodha) dryRun() bool {
	return z.p.Mode != "LIVE"
}

func (z *Zerodha) Position(ctx context.Context, symbol string) (float64, error) {
	qty, err := z.position(symbol)
	if err != nil {
		return 0, err
	}
	return float64(qty), nil
}

func (z *Zerodha) position(symbol string) (int, error) {
	if z.dryRun() {
		z.mu.Lock()
		defer z.mu.Unlock()
		return z.sim[symbol], nil
	}
	if z.kc == nil {
		return 0, errors.New("missing API key/access token")
	}

	positions, err := z.kc.GetPositions()
	if err != nil {
		return 0, fmt.Errorf("get positions: %w", err)
	}
	qty := 0
	for _, p := range positions.Net {
		if p.Tradingsymbol == symbol && p.Exchange == z.p.Exchange && p.Product == z.p.Product {
			qty += p.Quantity
		}
	}
	return qty, nil
}

func (z *Zerodha) equity() (float64, error) {
	if z.dryRun() {
		return z.p.StartingCash, nil
	}
	m, err := z.kc.GetUserSegmentMargins("equity")
	if err != nil {
		return 0, fmt.Errorf("get margins: %w", err)
	}
	return m.Net, nil
}

// SetTargetAllocation trades symbol so the holding is fraction of equity in whole shares.
func (z *Zerodha) SetTargetAllocation(ctx context.Context, symbol string, fraction, price float64) (types.OrderResp, error) {
	if fraction < -1 || fraction > 1 || math.IsNaN(fraction) {
		return types.OrderResp{}, ErrInvalidFraction
	}
	if !(price > 0) {
		return types.OrderResp{}, ErrInvalidPrice
	}

	current, err := z.position(symbol)
	if err != nil {
		return types.OrderResp{}, err
	}
	equity, err := z.equity()
	if err != nil {
		return types.OrderResp{}, err
	}
	if equity <= 0 && fraction != 0 {
		return types.OrderResp{}, ErrNoEquity
	}

	target := int(math.Trunc(fraction * equity / price))
	delta := target - current
	if delta == 0 {
		return types.OrderResp{Status: "NOOP", Message: "already at target", Price: price}, nil
	}

	req := types.OrderReq{Symbol: symbol, Side: kiteconnect.TransactionTypeBuy, Qty: delta, Tag: "sentiment"}
	if delta < 0 {
		req.Side, req.Qty = kiteconnect.TransactionTypeSell, -delta
	}
	resp, err := z.PlaceOrder(ctx, req)
	if err != nil {
		return types.OrderResp{}, err
	}
	resp.Side, resp.Qty, resp.Price = req.Side, req.Qty, price

	if z.dryRun() {
		z.mu.Lock()
		z.sim[symbol] = target
		z.mu.Unlock()
	}
	return resp, nil
}

func (z *Zerodha) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	logger.Debug(ctx, "Placing order", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "tag", req.Tag, "mode", z.p.Mode)

	if z.dryRun() {
		resp := types.OrderResp{OrderID: fmt.Sprintf("SIM-%d", time.Now().UnixNano()), Status: "SIMULATED", Message: "dry-run"}
		logger.Info(ctx, "Simulated order placed", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "order_id", resp.OrderID)
		return resp, nil
	}

	if z.kc == nil {
		err := errors.New("missing API key/access token")
		logger.ErrorWithErr(ctx, "Cannot place live order - missing credentials", err, "symbol", req.Symbol)
		return types.OrderResp{}, err
	}

	out, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   req.Symbol,
		Validity:        kiteconnect.ValidityDay,
		Product:         z.p.Product,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: req.Side,
		Quantity:        req.Qty,
		Tag:             req.Tag,
	})
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("place order: %w", err)
	}

	resp := types.OrderResp{OrderID: out.OrderID, Status: "PLACED", Message: "ok"}
	logger.Info(ctx, "Live order placed", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "order_id", resp.OrderID)
	return resp, nil
}
