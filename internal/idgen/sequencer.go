// Package idgen provides strictly monotonic id generation for collaborators
// that submit orders into the engine (the venue adapter uses it; cmd/loadgen
// assigns its own ids).
package idgen

import (
	"sync/atomic"

	"limitbook/domain/orderbook"
)

// Sequencer generates strictly monotonic order ids starting above a given
// floor, so multiple submitters can be given disjoint ranges.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer that will hand out ids starting at start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next order id.
func (s *Sequencer) Next() orderbook.OrderID {
	return orderbook.OrderID(s.next.Add(1))
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
