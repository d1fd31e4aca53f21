// Package papertrade forward-tests a strategy on live Bank Nifty data
// without placing real orders. Each evening it pulls the day's final bar,
// replays the strategy, and simulates any fresh signal at the next open;
// during the session a websocket LTP watcher enforces the stop-loss.
package papertrade

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Side of a simulated order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Fill represents a simulated order fill.
type Fill struct {
	OrderID  string    `json:"order_id"`
	Strategy string    `json:"strategy"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Qty      int64     `json:"qty"`
	Price    int64     `json:"price"` // paise, after slippage
	Slippage int64     `json:"slippage"`
	Reason   string    `json:"reason"`
	FilledAt time.Time `json:"filled_at"`
}

// Executor simulates order execution without real broker calls.
type Executor struct {
	mu       sync.RWMutex
	fills    []Fill
	orderSeq int64

	slippageBps int64 // basis points of slippage (e.g., 5 = 0.05%)
}

// NewExecutor creates a paper executor with the given simulated slippage.
func NewExecutor(slippageBps int64) *Executor {
	return &Executor{
		fills:       make([]Fill, 0, 256),
		slippageBps: slippageBps,
	}
}

// Execute simulates a market order at the given reference price. Buys
// fill above it and sells below it by the configured slippage.
func (e *Executor) Execute(strategy, symbol string, side Side, qty, refPrice int64, reason string) Fill {
	e.mu.Lock()
	e.orderSeq++
	orderID := fmt.Sprintf("PAPER-%d", e.orderSeq)

	slippage := int64(0)
	fillPrice := refPrice
	if refPrice > 0 && e.slippageBps > 0 {
		slippage = refPrice * e.slippageBps / 10000
		if side == SideBuy {
			fillPrice += slippage // buy higher
		} else {
			fillPrice -= slippage // sell lower
		}
	}

	fill := Fill{
		OrderID:  orderID,
		Strategy: strategy,
		Symbol:   symbol,
		Side:     side,
		Qty:      qty,
		Price:    fillPrice,
		Slippage: slippage,
		Reason:   reason,
		FilledAt: time.Now(),
	}
	e.fills = append(e.fills, fill)
	e.mu.Unlock()

	log.Printf("[paper] %s %s %s qty=%d price=%d (slip=%d) order=%s reason=%s",
		side, strategy, symbol, qty, fillPrice, slippage, orderID, reason)
	return fill
}

// Fills returns a snapshot of all fills.
func (e *Executor) Fills() []Fill {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make([]Fill, len(e.fills))
	copy(cp, e.fills)
	return cp
}
