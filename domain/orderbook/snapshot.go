package orderbook

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Strategy selects the execution strategy for GetOrderInfos (spec §4.4.7).
// Encoding the strategy as a tagged enum dispatched at the call site avoids
// runtime polymorphism, matching the reference design's use of singleton
// strategy objects (spec §9).
type Strategy int

const (
	Sequential Strategy = iota
	TaskParallel
	PoolPartitioned
	PoolPerLevel
)

// LevelInfo is one aggregated price level in a depth snapshot.
type LevelInfo struct {
	Price Price
	Total Quantity
}

// Snapshot is the L2 depth view of spec §4.4.7: two ordered sequences,
// bids descending and asks ascending.
type Snapshot struct {
	Bids []LevelInfo
	Asks []LevelInfo
}

// GetOrderInfos produces a depth snapshot using strategy. Strategies
// PoolPartitioned and PoolPerLevel require a non-nil pool. All four
// strategies produce byte-identical results for a fixed book state
// (spec §8, "Snapshot equivalence").
func (e *Engine) GetOrderInfos(strategy Strategy, pool *WorkerPool) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch strategy {
	case TaskParallel:
		return e.snapshotTaskParallelLocked()
	case PoolPartitioned:
		return Snapshot{
			Bids: partitionedCollect(pool, e.bids, e.bidLevels),
			Asks: partitionedCollect(pool, e.asks, e.askLevels),
		}
	case PoolPerLevel:
		return Snapshot{
			Bids: perLevelCollect(pool, e.bids, e.bidLevels),
			Asks: perLevelCollect(pool, e.asks, e.askLevels),
		}
	default:
		return e.snapshotSequentialLocked()
	}
}

func (e *Engine) snapshotSequentialLocked() Snapshot {
	return Snapshot{
		Bids: collectOrdered(e.bids, e.bidLevels),
		Asks: collectOrdered(e.asks, e.askLevels),
	}
}

// snapshotTaskParallelLocked runs the bid and ask reductions on two
// concurrent goroutines, joined via errgroup — the idiomatic Go equivalent
// of the reference design's two std::async futures.
func (e *Engine) snapshotTaskParallelLocked() Snapshot {
	var g errgroup.Group
	var bids, asks []LevelInfo

	g.Go(func() error {
		bids = collectOrdered(e.bids, e.bidLevels)
		return nil
	})
	g.Go(func() error {
		asks = collectOrdered(e.asks, e.askLevels)
		return nil
	})
	_ = g.Wait()

	return Snapshot{Bids: bids, Asks: asks}
}

func collectOrdered(idx *sideIndex, levels *levelBook) []LevelInfo {
	out := make([]LevelInfo, 0, idx.len())
	idx.native(func(p Price, lvl *priceLevel) bool {
		out = append(out, LevelInfo{Price: p, Total: levels.totalAt(p)})
		return true
	})
	return out
}

func orderedPrices(idx *sideIndex) []Price {
	out := make([]Price, 0, idx.len())
	idx.native(func(p Price, lvl *priceLevel) bool {
		out = append(out, p)
		return true
	})
	return out
}

// partitionedCollect splits idx's natively-ordered prices into
// min(hardware_concurrency, level_count) contiguous shards, with the last
// shard absorbing any remainder, and dispatches each shard to the pool.
// Results are concatenated in shard order, which preserves price order
// because the partition is over an already-ordered sequence (spec §4.4.7
// strategy 3).
func partitionedCollect(pool *WorkerPool, idx *sideIndex, levels *levelBook) []LevelInfo {
	prices := orderedPrices(idx)
	n := len(prices)
	if n == 0 {
		return make([]LevelInfo, 0)
	}

	numShards := min(runtime.NumCPU(), n)
	shardSize := n / numShards

	futures := make([]*poolFuture[[]LevelInfo], 0, numShards)
	start := 0
	for s := 0; s < numShards; s++ {
		end := start + shardSize
		if s == numShards-1 {
			end = n
		}
		shard := prices[start:end]
		futures = append(futures, submitToPool(pool, func() []LevelInfo {
			out := make([]LevelInfo, len(shard))
			for i, p := range shard {
				out[i] = LevelInfo{Price: p, Total: levels.totalAt(p)}
			}
			return out
		}))
		start = end
	}

	out := make([]LevelInfo, 0, n)
	for _, f := range futures {
		out = append(out, f.get()...)
	}
	return out
}

// perLevelCollect dispatches one pool task per price level, collected in
// iteration order (spec §4.4.7 strategy 4).
func perLevelCollect(pool *WorkerPool, idx *sideIndex, levels *levelBook) []LevelInfo {
	prices := orderedPrices(idx)
	futures := make([]*poolFuture[LevelInfo], len(prices))
	for i, p := range prices {
		p := p
		futures[i] = submitToPool(pool, func() LevelInfo {
			return LevelInfo{Price: p, Total: levels.totalAt(p)}
		})
	}
	out := make([]LevelInfo, len(prices))
	for i, f := range futures {
		out[i] = f.get()
	}
	return out
}
