package orderbook

// TradeSide is one participant's record in an emitted trade.
type TradeSide struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade records a single match between the head of the best bid queue and
// the head of the best ask queue. The two participants are recorded
// symmetrically; neither is privileged (spec §4.4.2).
type Trade struct {
	Bid TradeSide
	Ask TradeSide
}
