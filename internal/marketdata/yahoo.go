package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"sentiment-trader/internal/api"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

var ErrNoData = errors.New("marketdata: no bars returned")

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooLoader downloads bars from the Yahoo Finance chart API.
type YahooLoader struct {
	client   *api.Client
	baseURL  string
	interval string
	retry    *api.RetryConfig
}

var _ interfaces.MarketData = (*YahooLoader)(nil)

func NewYahooLoader(interval string, opts ...api.ClientOption) *YahooLoader {
	if interval == "" {
		interval = "1d"
	}
	opts = append([]api.ClientOption{api.WithTimeout(30 * time.Second)}, opts...)
	return &YahooLoader{
		client:   api.NewClient(opts...),
		baseURL:  yahooChartURL,
		interval: interval,
		retry:    api.DefaultRetryConfig(),
	}
}

func (y *YahooLoader) Load(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", y.interval)
	q.Set("events", "history")

	req := api.NewRequest(http.MethodGet, y.baseURL+url.PathEscape(symbol)+"?"+q.Encode()).WithContext(ctx)
	for k, v := range api.YahooFinanceHeaders() {
		req.WithHeader(k, v)
	}
	resp, err := y.client.DoWithRetry(req, y.retry)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	var cr chartResponse
	if err := resp.ParseJSON(&cr); err != nil {
		return nil, err
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	res := cr.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	out := make([]types.Candle, 0, len(res.Timestamp))
	skipped := 0
	for i, ts := range res.Timestamp {
		c, ok := candleAt(ts, i, quote.Open, quote.High, quote.Low, quote.Close, quote.Volume)
		if !ok {
			skipped++
			continue
		}
		if ts < start.Unix() || ts >= end.Unix() {
			continue
		}
		if n := len(out); n > 0 && ts <= out[n-1].Ts {
			continue
		}
		out = append(out, c)
	}
	if skipped > 0 {
		logger.Debug(ctx, "Skipped incomplete Yahoo bars", "symbol", symbol, "count", skipped)
	}
	return out, nil
}

// candleAt builds the i-th bar; bars with a missing close are dropped.
func candleAt(ts int64, i int, open, high, low, closes, vol []*float64) (types.Candle, bool) {
	at := func(xs []*float64) (float64, bool) {
		if i >= len(xs) || xs[i] == nil {
			return 0, false
		}
		return *xs[i], true
	}
	c, ok := at(closes)
	if !ok {
		return types.Candle{}, false
	}
	candle := types.Candle{Ts: ts, Close: c, Open: c, High: c, Low: c}
	if v, ok := at(open); ok {
		candle.Open = v
	}
	if v, ok := at(high); ok {
		candle.High = v
	}
	if v, ok := at(low); ok {
		candle.Low = v
	}
	if v, ok := at(vol); ok {
		candle.Vol = v
	}
	return candle, true
}
