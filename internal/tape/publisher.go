// Package tape publishes emitted trades to a downstream kafka topic. It is
// a distribution collaborator outside the matching engine's core contract;
// the engine never imports this package (spec §1, "out of scope").
package tape

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"limitbook/domain/orderbook"
)

// Publisher writes one JSON message per trade to a kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher configures a writer for topic on brokers. No connection is
// made here; the writer connects on its first write.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// tradeEvent is the wire shape published for each trade.
type tradeEvent struct {
	BidOrderID OrderID `json:"bidOrderId"`
	BidPrice   uint64  `json:"bidPrice"`
	AskOrderID OrderID `json:"askOrderId"`
	AskPrice   uint64  `json:"askPrice"`
	Quantity   uint64  `json:"quantity"`
}

// OrderID is an alias of orderbook.OrderID; the wire struct uses the domain
// id type itself, which encodes as a JSON number.
type OrderID = orderbook.OrderID

// PublishTrades publishes every trade in trades, returning the first error
// encountered (if any); it still attempts the remaining trades.
func (p *Publisher) PublishTrades(ctx context.Context, trades []orderbook.Trade) error {
	var firstErr error
	for _, t := range trades {
		ev := tradeEvent{
			BidOrderID: t.Bid.OrderID,
			BidPrice:   uint64(t.Bid.Price),
			AskOrderID: t.Ask.OrderID,
			AskPrice:   uint64(t.Ask.Price),
			Quantity:   uint64(t.Bid.Quantity),
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := p.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close releases the underlying writer's connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
