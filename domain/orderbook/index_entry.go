package orderbook

// indexEntry is the C4 record: an order, the stable handle into its price
// level's queue, and the side it rests on. Exactly one entry exists per live
// order id.
type indexEntry struct {
	order *Order
	node  *orderNode
	side  Side
}
