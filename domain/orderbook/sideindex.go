package orderbook

import "github.com/tidwall/btree"

// sideIndex is the C3 ordered map Price -> *priceLevel for one side of the
// book. It is backed by an ordered btree.Map keyed by the natural (ascending)
// price order; descending traversal for the bid side is obtained by
// iterating in reverse rather than by inverting the key, matching the
// pattern used across the retrieved reference sources for bid/ask maps.
type sideIndex struct {
	side Side
	tree *btree.Map[Price, *priceLevel]
}

func newSideIndex(side Side) *sideIndex {
	return &sideIndex{side: side, tree: btree.NewMap[Price, *priceLevel](32)}
}

// getOrCreate returns the level at price, creating an empty one if absent.
func (s *sideIndex) getOrCreate(price Price) *priceLevel {
	if lvl, ok := s.tree.Get(price); ok {
		return lvl
	}
	lvl := &priceLevel{price: price}
	s.tree.Set(price, lvl)
	return lvl
}

func (s *sideIndex) get(price Price) (*priceLevel, bool) {
	return s.tree.Get(price)
}

// eraseAt removes the level at price entirely. Callers must only call this
// once the level's queue is empty (spec §4.2).
func (s *sideIndex) eraseAt(price Price) {
	s.tree.Delete(price)
}

func (s *sideIndex) len() int {
	return s.tree.Len()
}

// bestPrice returns the best price on this side: the highest for bids, the
// lowest for asks.
func (s *sideIndex) bestPrice() (Price, bool) {
	if s.side == Buy {
		p, _, ok := s.tree.Max()
		return p, ok
	}
	p, _, ok := s.tree.Min()
	return p, ok
}

// worstPrice returns the worst price on this side: the lowest for bids, the
// highest for asks.
func (s *sideIndex) worstPrice() (Price, bool) {
	if s.side == Buy {
		p, _, ok := s.tree.Min()
		return p, ok
	}
	p, _, ok := s.tree.Max()
	return p, ok
}

// best returns the level at bestPrice, if any.
func (s *sideIndex) best() (*priceLevel, bool) {
	price, ok := s.bestPrice()
	if !ok {
		return nil, false
	}
	return s.tree.Get(price)
}

// ascend visits levels in ascending price order, stopping early if fn
// returns false.
func (s *sideIndex) ascend(fn func(price Price, lvl *priceLevel) bool) {
	s.tree.Scan(fn)
}

// descend visits levels in descending price order, stopping early if fn
// returns false.
func (s *sideIndex) descend(fn func(price Price, lvl *priceLevel) bool) {
	s.tree.Reverse(fn)
}

// native visits levels in this side's natural (best-to-worst) order:
// descending for bids, ascending for asks.
func (s *sideIndex) native(fn func(price Price, lvl *priceLevel) bool) {
	if s.side == Buy {
		s.descend(fn)
		return
	}
	s.ascend(fn)
}
