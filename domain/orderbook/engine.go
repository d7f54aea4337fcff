package orderbook

import (
	"sync"
	"time"
)

// Engine is the matching engine (C6): the single mutex-serialized owner of
// the side indices (C3), the order index (C4), and the level aggregates
// (C5). It is the only exported entry point into the book.
type Engine struct {
	mu sync.Mutex

	bids *sideIndex
	asks *sideIndex

	bidLevels *levelBook
	askLevels *levelBook

	orders map[OrderID]*indexEntry

	now func() time.Time

	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	prunerActive bool
}

// NewEngine constructs an empty engine and starts its GoodForDay pruner.
func NewEngine() *Engine {
	e := &Engine{
		bids:      newSideIndex(Buy),
		asks:      newSideIndex(Sell),
		bidLevels: newLevelBook(),
		askLevels: newLevelBook(),
		orders:    make(map[OrderID]*indexEntry),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	e.wg.Add(1)
	e.prunerActive = true
	go e.runPruner()
	return e
}

// Close shuts the engine down: it signals the pruner and waits for it to
// exit (spec §5, graceful shutdown). It sets no flag on the engine; after
// Close, further calls are undefined behavior.
func (e *Engine) Close() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

// ModifyRequest carries the fields of a Modify call (spec §4.4.4).
type ModifyRequest struct {
	ID       OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

// AddOrder submits o to the book and runs the match loop, returning any
// trades produced. See spec §4.4.1.
func (e *Engine) AddOrder(o *Order) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(o)
}

func (e *Engine) addLocked(o *Order) []Trade {
	if _, exists := e.orders[o.id]; exists {
		return nil
	}

	if o.otype == FillAndKill && !e.canMatchLocked(o.side, o.price) {
		return nil
	}

	if o.otype == Market {
		if o.side == Buy {
			worst, ok := e.asks.worstPrice()
			if !ok {
				return nil
			}
			o.toGoodTillCancel(worst)
		} else {
			worst, ok := e.bids.worstPrice()
			if !ok {
				return nil
			}
			o.toGoodTillCancel(worst)
		}
	}

	if o.otype == FillOrKill && !e.canFullyFillLocked(o.side, o.price, o.initial) {
		return nil
	}

	e.insertLocked(o)
	return e.matchOrdersLocked()
}

// canMatchLocked reports whether an order of side at price could cross the
// current opposite best.
func (e *Engine) canMatchLocked(side Side, price Price) bool {
	if side == Buy {
		best, ok := e.asks.bestPrice()
		return ok && price >= best
	}
	best, ok := e.bids.bestPrice()
	return ok && price <= best
}

// canFullyFillLocked is the C5-backed FillOrKill feasibility check of spec
// §4.4.1 step 4: sum resting quantity on the opposite side at-or-better than
// price, stopping as soon as it is known to cover qty or the price bound is
// exceeded. O(L) in the number of opposite levels touched.
func (e *Engine) canFullyFillLocked(side Side, price Price, qty Quantity) bool {
	if !e.canMatchLocked(side, price) {
		return false
	}
	var sum Quantity
	if side == Buy {
		e.asks.ascend(func(p Price, lvl *priceLevel) bool {
			if p > price {
				return false
			}
			sum += e.askLevels.totalAt(p)
			return sum < qty
		})
	} else {
		e.bids.descend(func(p Price, lvl *priceLevel) bool {
			if p < price {
				return false
			}
			sum += e.bidLevels.totalAt(p)
			return sum < qty
		})
	}
	return sum >= qty
}

// insertLocked inserts o at the back of its price level and records it in
// C3/C4/C5.
func (e *Engine) insertLocked(o *Order) {
	idx, levels := e.sideOf(o.side)
	lvl := idx.getOrCreate(o.price)
	node := lvl.pushBack(o)
	e.orders[o.id] = &indexEntry{order: o, node: node, side: o.side}
	levels.apply(o.price, o.remaining, levelAdd)
}

func (e *Engine) sideOf(side Side) (*sideIndex, *levelBook) {
	if side == Buy {
		return e.bids, e.bidLevels
	}
	return e.asks, e.askLevels
}

// matchOrdersLocked is the core price-time-priority match loop of spec
// §4.4.2, including the post-pass FillAndKill cleanup guarded by
// remaining > 0 (spec §9 flags the unconditional version as a bug to fix,
// not preserve).
func (e *Engine) matchOrdersLocked() []Trade {
	var trades []Trade

	for {
		bidPrice, ok1 := e.bids.bestPrice()
		askPrice, ok2 := e.asks.bestPrice()
		if !ok1 || !ok2 || bidPrice < askPrice {
			break
		}

		bidLevel, _ := e.bids.get(bidPrice)
		askLevel, _ := e.asks.get(askPrice)

		for !bidLevel.empty() && !askLevel.empty() {
			b := bidLevel.head.order
			a := askLevel.head.order
			q := minQuantity(b.remaining, a.remaining)

			b.fill(q)
			a.fill(q)

			trades = append(trades, Trade{
				Bid: TradeSide{OrderID: b.id, Price: b.price, Quantity: q},
				Ask: TradeSide{OrderID: a.id, Price: a.price, Quantity: q},
			})

			if b.isFilled() {
				bidLevel.popFront()
				delete(e.orders, b.id)
				e.bidLevels.apply(b.price, q, levelRemove)
			} else {
				e.bidLevels.apply(b.price, q, levelMatch)
			}

			if a.isFilled() {
				askLevel.popFront()
				delete(e.orders, a.id)
				e.askLevels.apply(a.price, q, levelRemove)
			} else {
				e.askLevels.apply(a.price, q, levelMatch)
			}
		}

		if bidLevel.empty() {
			e.bids.eraseAt(bidPrice)
		}
		if askLevel.empty() {
			e.asks.eraseAt(askPrice)
		}
	}

	if lvl, ok := e.bids.best(); ok && !lvl.empty() {
		if head := lvl.head.order; head.otype == FillAndKill && head.remaining > 0 {
			e.cancelLocked(head.id)
		}
	}
	if lvl, ok := e.asks.best(); ok && !lvl.empty() {
		if head := lvl.head.order; head.otype == FillAndKill && head.remaining > 0 {
			e.cancelLocked(head.id)
		}
	}

	return trades
}

func minQuantity(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}

// CancelOrder removes id from the book. No-op if id is unknown (spec §4.4.3).
func (e *Engine) CancelOrder(id OrderID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked(id)
}

func (e *Engine) cancelLocked(id OrderID) {
	entry, ok := e.orders[id]
	if !ok {
		return
	}
	delete(e.orders, id)

	idx, levels := e.sideOf(entry.side)
	lvl, ok := idx.get(entry.order.price)
	if !ok {
		panic("orderbook: index entry references a price level absent from its side index")
	}
	lvl.remove(entry.node)
	if lvl.empty() {
		idx.eraseAt(entry.order.price)
	}
	levels.apply(entry.order.price, entry.order.remaining, levelRemove)
}

// ModifyOrder cancels the existing order and resubmits a fresh one with the
// same id and type but the requested side/price/quantity (spec §4.4.4). This
// necessarily drops the original time priority. No-op returning nil trades
// if id is unknown.
func (e *Engine) ModifyOrder(req ModifyRequest) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.orders[req.ID]
	if !ok {
		return nil
	}
	otype := entry.order.otype
	e.cancelLocked(req.ID)

	fresh := NewOrder(req.ID, req.Side, otype, req.Price, req.Quantity)
	return e.addLocked(fresh)
}

// Size returns the number of live orders currently indexed (spec §4.4.5).
func (e *Engine) Size() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint64(len(e.orders))
}
