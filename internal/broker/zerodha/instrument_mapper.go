package zerodha

import "sync"

// instruments maps trading symbols to Kite instrument tokens.
type instruments struct {
	mu     sync.RWMutex
	tokens map[string]int
}

func newInstruments() *instruments {
	return &instruments{tokens: make(map[string]int)}
}

func (im *instruments) add(symbol string, token int) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.tokens[symbol] = token
}

func (im *instruments) token(symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	t, ok := im.tokens[symbol]
	return t, ok
}
