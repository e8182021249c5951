package engine

import (
	"sync"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// symbolState is the per-symbol execution state. The locked flag is the sole
// concurrency primitive preventing duplicate in-flight orders for one
// instrument.
type symbolState struct {
	locked        bool
	lastTradeTime time.Time
	lastTick      *types.Tick
}

// symbolTable owns every symbolState for the engine's lifetime. States are
// created lazily on first reference and survive config reloads.
type symbolTable struct {
	mu     sync.Mutex
	states map[string]*symbolState
}

func newSymbolTable() *symbolTable {
	return &symbolTable{states: make(map[string]*symbolState)}
}

// stateLocked returns the state for symbol, creating it if absent. Caller
// must hold mu.
func (t *symbolTable) stateLocked(symbol string) *symbolState {
	st, ok := t.states[symbol]
	if !ok {
		st = &symbolState{}
		t.states[symbol] = st
	}

	return st
}

// tryAcquire attempts the locked -> unlocked transition for symbol. The
// locked check, cooldown check, and flag set happen under one mutex hold so
// two near-simultaneous signals can never both pass the check before either
// sets the flag. Returns the rejection reason when acquisition fails.
func (t *symbolTable) tryAcquire(symbol string, cooldown time.Duration, now time.Time) (bool, types.RejectReason) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.stateLocked(symbol)
	if st.locked {
		return false, types.RejectReasonLocked
	}
	if cooldown > 0 && !st.lastTradeTime.IsZero() && now.Sub(st.lastTradeTime) < cooldown {
		return false, types.RejectReasonCooldown
	}
	st.locked = true

	return true, ""
}

// release returns symbol to the unlocked state. Safe to call from a deferred
// cleanup regardless of which pipeline step exited.
func (t *symbolTable) release(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stateLocked(symbol).locked = false
}

// recordTrade stores the trade timestamp that starts the cooldown window.
func (t *symbolTable) recordTrade(symbol string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stateLocked(symbol).lastTradeTime = at
}

// recordTick stores the most recent tick for symbol.
func (t *symbolTable) recordTick(tick types.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stateLocked(tick.Symbol).lastTick = &tick
}

// lastTick returns the most recent tick for symbol, or nil.
func (t *symbolTable) lastTick(symbol string) *types.Tick {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stateLocked(symbol).lastTick
}

// isLocked reports whether symbol currently holds the execution lock.
func (t *symbolTable) isLocked(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stateLocked(symbol).locked
}
