package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"sentiment-trader/internal/types"
)

const template = "Given the Bollinger Bands data, gravity modeling, technical analysis, and statistical analysis " +
	"such as normal distribution, please analyze the following %s closing prices for the last %d bars: [%s]. " +
	"Also take into account the Bollinger Bands values (upper band, middle band, lower band): %s, %s, %s."

// Build renders the window and bands into the request sent to the language model.
func Build(symbol string, window types.FeatureWindow, bands types.Bands) types.InterpretationRequest {
	prices := make([]string, len(window))
	for i, p := range window {
		prices[i] = formatPrice(p)
	}
	text := fmt.Sprintf(template, symbol, len(window), strings.Join(prices, ", "),
		formatPrice(bands.Upper), formatPrice(bands.Middle), formatPrice(bands.Lower))

	w := make(types.FeatureWindow, len(window))
	copy(w, window)
	return types.InterpretationRequest{
		Symbol: symbol,
		Prompt: text,
		Window: w,
		Bands:  bands,
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
