// Package feed implements the external venue adapter collaborator of
// spec §6: it fetches L2 depth from a remote venue, parses decimal price and
// quantity strings exactly, rounds them to integer ticks once at ingress,
// and issues sequential AddOrder calls against the engine with monotonic
// ids. It is outside the core contract; the engine only requires that it
// submit well-formed orders with unique ids.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"limitbook/domain/orderbook"
	"limitbook/internal/idgen"
)

// ScaleFactor converts decimal venue quotes into integer ticks. The engine
// never sees floating point; this is the one place scaling happens.
const ScaleFactor = 100_000_000 // 10^8

// depthResponse is the shape of a venue L2 depth response.
type depthResponse struct {
	LastUpdateID uint64     `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// Engine is the subset of orderbook.Engine the adapter depends on.
type Engine interface {
	AddOrder(o *orderbook.Order) []orderbook.Trade
}

// Adapter polls a venue depth endpoint and replays it into an Engine.
type Adapter struct {
	client *http.Client
	url    string
	ids    *idgen.Sequencer
}

// NewAdapter constructs an adapter against url (a full depth-endpoint URL,
// e.g. ".../depth?symbol=BTCUSDT&limit=1000"), assigning order ids starting
// above idFloor.
func NewAdapter(url string, idFloor uint64) *Adapter {
	return &Adapter{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		ids:    idgen.New(idFloor),
	}
}

// FetchOnce performs a single fetch-and-replay cycle against eng, returning
// the number of orders submitted. Venue HTTP/JSON failures are surfaced as
// errors; the engine is never invoked for those orders (spec §7).
func (a *Adapter) FetchOnce(ctx context.Context, eng Engine) (int, error) {
	correlationID := uuid.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return 0, fmt.Errorf("feed[%s]: build request: %w", correlationID, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("feed[%s]: fetch depth: %w", correlationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed[%s]: venue returned status %d", correlationID, resp.StatusCode)
	}

	var depth depthResponse
	if err := json.NewDecoder(resp.Body).Decode(&depth); err != nil {
		return 0, fmt.Errorf("feed[%s]: decode depth: %w", correlationID, err)
	}

	submitted := 0

	for _, row := range depth.Bids {
		o, err := rowToOrder(row, orderbook.Buy, a.ids)
		if err != nil {
			log.Printf("feed[%s]: skipping malformed bid row %v: %v", correlationID, row, err)
			continue
		}
		eng.AddOrder(o)
		submitted++
	}

	// Asks must use Side: Sell. A prior implementation of this adapter
	// inserted ask rows with Side: Buy; that is fixed here.
	for _, row := range depth.Asks {
		o, err := rowToOrder(row, orderbook.Sell, a.ids)
		if err != nil {
			log.Printf("feed[%s]: skipping malformed ask row %v: %v", correlationID, row, err)
			continue
		}
		eng.AddOrder(o)
		submitted++
	}

	return submitted, nil
}

// Poll runs FetchOnce every interval until ctx is cancelled.
func (a *Adapter) Poll(ctx context.Context, eng Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := a.FetchOnce(ctx, eng); err != nil {
				log.Printf("feed: fetch failed: %v", err)
			} else {
				log.Printf("feed: submitted %d orders", n)
			}
		}
	}
}

// rowToOrder parses a [price_str, qty_str] venue row into a resting
// GoodTillCancel order at the given side, scaling the decimal price to
// integer ticks via round(value * 10^8).
func rowToOrder(row []string, side orderbook.Side, ids *idgen.Sequencer) (*orderbook.Order, error) {
	if len(row) != 2 {
		return nil, fmt.Errorf("expected [price, qty], got %d fields", len(row))
	}

	price, err := decimal.NewFromString(row[0])
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", row[0], err)
	}
	qty, err := decimal.NewFromString(row[1])
	if err != nil {
		return nil, fmt.Errorf("parse quantity %q: %w", row[1], err)
	}

	ticks := price.Mul(decimal.NewFromInt(ScaleFactor)).Round(0)
	scaledQty := qty.Mul(decimal.NewFromInt(ScaleFactor)).Round(0)

	if ticks.Sign() <= 0 || scaledQty.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive price or quantity")
	}

	return orderbook.NewOrder(
		ids.Next(),
		side,
		orderbook.GoodTillCancel,
		orderbook.Price(ticks.IntPart()),
		orderbook.Quantity(scaledQty.IntPart()),
	), nil
}
