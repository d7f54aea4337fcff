// Command loadgen submits a configurable number of random orders to an
// in-process engine as fast as it can and reports throughput. It is a benchmark harness external to the matching
// engine's core contract (spec §1); only the in-process API it calls is
// part of that contract.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"limitbook/domain/orderbook"
)

func main() {
	orders := flag.Int("orders", 200_000, "number of orders to submit")
	priceLevels := flag.Int("price-levels", 50, "number of distinct price levels at and above the base price")
	tick := flag.Uint64("tick", 1, "tick size in scaled price units")
	basePrice := flag.Uint64("base-price", 1_000_00000000, "base price in scaled ticks")
	maxQty := flag.Uint64("max-qty", 100, "maximum order quantity")
	marketRatio := flag.Float64("market-ratio", 0.05, "fraction of orders submitted as Market")
	seed := flag.Int64("seed", 1, "PRNG seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	eng := orderbook.NewEngine()
	defer eng.Close()

	start := time.Now()
	totalTrades := 0

	for i := 0; i < *orders; i++ {
		o := nextRandomOrder(rng, uint64(i)+1, *priceLevels, *tick, *basePrice, *maxQty, *marketRatio)
		trades := eng.AddOrder(o)
		totalTrades += len(trades)
	}

	elapsed := time.Since(start)
	fmt.Printf("submitted %d orders in %s (%.0f orders/sec)\n", *orders, elapsed, float64(*orders)/elapsed.Seconds())
	fmt.Printf("produced %d trades (%.0f trades/sec)\n", totalTrades, float64(totalTrades)/elapsed.Seconds())
	fmt.Printf("final book size: %d\n", eng.Size())
}

func nextRandomOrder(rng *rand.Rand, id uint64, priceLevels int, tick, basePrice, maxQty uint64, marketRatio float64) *orderbook.Order {
	side := orderbook.Buy
	if rng.Intn(2) == 1 {
		side = orderbook.Sell
	}

	if rng.Float64() < marketRatio {
		qty := orderbook.Quantity(1 + rng.Uint64()%maxQty)
		return orderbook.NewOrder(orderbook.OrderID(id), side, orderbook.Market, 0, qty)
	}

	offset := uint64(rng.Intn(priceLevels)) * tick
	price := orderbook.Price(basePrice + offset)
	qty := orderbook.Quantity(1 + rng.Uint64()%maxQty)

	otype := orderbook.GoodTillCancel
	switch rng.Intn(10) {
	case 0:
		otype = orderbook.FillAndKill
	case 1:
		otype = orderbook.FillOrKill
	case 2:
		otype = orderbook.GoodForDay
	}

	return orderbook.NewOrder(orderbook.OrderID(id), side, otype, price, qty)
}
