package engine

import (
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/store"
)

func New(cfg *store.Config, hist interfaces.History, brk interfaces.Broker, interp interfaces.Interpreter, scorer interfaces.Scorer) (interfaces.Engine, error) {
	return newEngine(cfg, hist, brk, interp, scorer)
}
