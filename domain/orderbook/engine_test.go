package orderbook

import "testing"

func TestSimpleCross(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	trades := e.AddOrder(NewOrder(2, Sell, GoodTillCancel, 100, 3))

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Bid.OrderID != 1 || tr.Ask.OrderID != 2 || tr.Bid.Quantity != 3 {
		t.Errorf("unexpected trade: %+v", tr)
	}

	if _, ok := e.orders[2]; ok {
		t.Error("order #2 should have been removed after full fill")
	}
	entry, ok := e.orders[1]
	if !ok {
		t.Fatal("order #1 should remain resting")
	}
	if entry.order.Remaining() != 2 {
		t.Errorf("expected #1 remaining=2, got %d", entry.order.Remaining())
	}
}

func TestPriceTimePriority(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	e.AddOrder(NewOrder(2, Buy, GoodTillCancel, 100, 5))
	trades := e.AddOrder(NewOrder(3, Sell, GoodTillCancel, 100, 7))

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Bid.OrderID != 1 || trades[0].Bid.Quantity != 5 {
		t.Errorf("first trade should fully consume #1: %+v", trades[0])
	}
	if trades[1].Bid.OrderID != 2 || trades[1].Bid.Quantity != 2 {
		t.Errorf("second trade should partially consume #2: %+v", trades[1])
	}

	if _, ok := e.orders[1]; ok {
		t.Error("#1 should be gone")
	}
	if _, ok := e.orders[3]; ok {
		t.Error("#3 should be gone")
	}
	entry, ok := e.orders[2]
	if !ok || entry.order.Remaining() != 3 {
		t.Errorf("expected #2 remaining=3, got entry=%v", entry)
	}
}

func TestFillAndKillPartial(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Sell, GoodTillCancel, 101, 2))
	trades := e.AddOrder(NewOrder(2, Buy, FillAndKill, 101, 5))

	if len(trades) != 1 || trades[0].Bid.Quantity != 2 {
		t.Fatalf("expected one trade of qty 2, got %+v", trades)
	}
	if e.Size() != 0 {
		t.Errorf("expected empty book after FAK remainder cancelled, size=%d", e.Size())
	}
}

func TestFillOrKillInfeasible(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Sell, GoodTillCancel, 101, 2))
	trades := e.AddOrder(NewOrder(2, Buy, FillOrKill, 101, 5))

	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %+v", trades)
	}
	if e.Size() != 1 {
		t.Errorf("expected only #1 to remain, size=%d", e.Size())
	}
	entry, ok := e.orders[1]
	if !ok || entry.order.Remaining() != 2 {
		t.Errorf("book should be unchanged: %+v", entry)
	}
}

func TestFillOrKillFeasible(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Sell, GoodTillCancel, 101, 2))
	e.AddOrder(NewOrder(2, Sell, GoodTillCancel, 102, 4))
	trades := e.AddOrder(NewOrder(3, Buy, FillOrKill, 102, 5))

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %+v", trades)
	}
	if e.Size() != 1 {
		t.Errorf("expected one residual resting order, size=%d", e.Size())
	}
}

func TestMarketConversionToWorst(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Sell, GoodTillCancel, 101, 1))
	e.AddOrder(NewOrder(2, Sell, GoodTillCancel, 103, 2))
	e.AddOrder(NewOrder(3, Sell, GoodTillCancel, 105, 4))

	trades := e.AddOrder(NewOrder(100, Buy, Market, 0, 10))

	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	var total Quantity
	for _, tr := range trades {
		total += tr.Bid.Quantity
	}
	if total != 7 {
		t.Errorf("expected total matched qty 7, got %d", total)
	}

	entry, ok := e.orders[100]
	if !ok {
		t.Fatal("residual market order should rest")
	}
	if entry.order.Price() != 105 {
		t.Errorf("expected residual pinned at worst price 105, got %d", entry.order.Price())
	}
	if entry.order.Remaining() != 3 {
		t.Errorf("expected residual remaining=3, got %d", entry.order.Remaining())
	}
	if entry.order.Type() != GoodTillCancel {
		t.Errorf("expected converted type GoodTillCancel, got %v", entry.order.Type())
	}
}

func TestMarketWithNoOppositeSideIsNoop(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	trades := e.AddOrder(NewOrder(1, Buy, Market, 0, 10))
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %+v", trades)
	}
	if e.Size() != 0 {
		t.Errorf("expected no residual order, size=%d", e.Size())
	}
}

func TestModifyResetsTimePriority(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	e.AddOrder(NewOrder(2, Buy, GoodTillCancel, 100, 5))
	e.ModifyOrder(ModifyRequest{ID: 1, Side: Buy, Price: 100, Quantity: 5})

	trades := e.AddOrder(NewOrder(3, Sell, GoodTillCancel, 100, 5))
	if len(trades) != 1 || trades[0].Bid.OrderID != 2 {
		t.Fatalf("expected #2 to match first after #1's modify, got %+v", trades)
	}
}

func TestDuplicateOrderIDIsNoop(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	trades := e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	if trades != nil {
		t.Errorf("expected nil trades for duplicate id, got %+v", trades)
	}
	if e.Size() != 1 {
		t.Errorf("expected size 1, got %d", e.Size())
	}
}

func TestCancelUnknownIsNoop(t *testing.T) {
	e := newTestEngine()
	defer e.Close()
	e.CancelOrder(999)
	if e.Size() != 0 {
		t.Errorf("expected size 0, got %d", e.Size())
	}
}

func TestModifyUnknownIsNoop(t *testing.T) {
	e := newTestEngine()
	defer e.Close()
	trades := e.ModifyOrder(ModifyRequest{ID: 999, Side: Buy, Price: 100, Quantity: 5})
	if trades != nil {
		t.Errorf("expected nil trades, got %+v", trades)
	}
}

func TestRoundTripIdempotence(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	if e.Size() != 1 {
		t.Fatal("expected size 1 after add")
	}
	e.CancelOrder(1)
	if e.Size() != 0 {
		t.Fatal("expected size 0 after cancel")
	}
	if e.bids.len() != 0 {
		t.Error("expected no residual price levels on bid side")
	}
	if len(e.bidLevels.levels) != 0 {
		t.Error("expected no residual level aggregate")
	}
}

func TestEmptyLevelCleanup(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	e.AddOrder(NewOrder(2, Sell, GoodTillCancel, 100, 5))

	if e.bids.len() != 0 || e.asks.len() != 0 {
		t.Error("expected both side indices empty after full cross")
	}
	if len(e.bidLevels.levels) != 0 || len(e.askLevels.levels) != 0 {
		t.Error("expected both level aggregates empty after full cross")
	}
}

func TestCrossingTermination(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.AddOrder(NewOrder(1, Buy, GoodTillCancel, 105, 3))
	e.AddOrder(NewOrder(2, Sell, GoodTillCancel, 100, 2))
	e.AddOrder(NewOrder(3, Buy, GoodTillCancel, 99, 4))
	e.AddOrder(NewOrder(4, Sell, GoodTillCancel, 106, 5))

	bestBid, hasBid := e.bids.bestPrice()
	bestAsk, hasAsk := e.asks.bestPrice()
	if hasBid && hasAsk && bestBid >= bestAsk {
		t.Errorf("expected non-crossing book, best bid %d best ask %d", bestBid, bestAsk)
	}
}

func newTestEngine() *Engine {
	e := &Engine{
		bids:      newSideIndex(Buy),
		asks:      newSideIndex(Sell),
		bidLevels: newLevelBook(),
		askLevels: newLevelBook(),
		orders:    make(map[OrderID]*indexEntry),
		stopCh:    make(chan struct{}),
	}
	// The pruner is exercised separately in pruner_test.go; unit tests here
	// never start it, so Close just closes stopCh with nothing to wait for.
	return e
}
