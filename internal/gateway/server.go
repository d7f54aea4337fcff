// Package gateway is a thin HTTP+WebSocket collaborator over the in-process
// API (spec §6). It never touches the engine's internals directly: every
// handler is a JSON-decoding wrapper around AddOrder/CancelOrder/
// ModifyOrder/Size/GetOrderInfos.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"limitbook/domain/orderbook"
)

// Engine is the subset of orderbook.Engine the gateway depends on.
type Engine interface {
	AddOrder(o *orderbook.Order) []orderbook.Trade
	CancelOrder(id orderbook.OrderID)
	ModifyOrder(req orderbook.ModifyRequest) []orderbook.Trade
	Size() uint64
	GetOrderInfos(strategy orderbook.Strategy, pool *orderbook.WorkerPool) orderbook.Snapshot
}

// Server exposes Engine over HTTP and broadcasts trades over WebSocket.
type Server struct {
	engine   Engine
	pool     *orderbook.WorkerPool
	upgrader websocket.Upgrader
	trades   *hub[orderbook.Trade]
}

// NewServer wraps engine. pool is used for the pool-backed snapshot
// strategies; it may be nil if only Sequential/TaskParallel snapshots are
// requested.
func NewServer(engine Engine, pool *orderbook.WorkerPool) *Server {
	return &Server{
		engine: engine,
		pool:   pool,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		trades: newHub[orderbook.Trade](),
	}
}

// PublishTrades feeds trades produced by AddOrder/ModifyOrder into the
// WebSocket broadcast hub. The server's order and modify handlers call it
// with the trades they produce; trades from engine calls made elsewhere
// reach subscribers only if that caller passes them here.
func (s *Server) PublishTrades(trades []orderbook.Trade) {
	for _, t := range trades {
		s.trades.Broadcast(t)
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", s.handleOrders)
	mux.HandleFunc("/orders/cancel", s.handleCancel)
	mux.HandleFunc("/orders/modify", s.handleModify)
	mux.HandleFunc("/size", s.handleSize)
	mux.HandleFunc("/depth", s.handleDepth)
	mux.HandleFunc("/ws/trades", s.handleTradesWS)
	return mux
}

type orderRequest struct {
	ID       uint64 `json:"id"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type tradeResponse struct {
	BidOrderID uint64 `json:"bidOrderId"`
	BidPrice   uint64 `json:"bidPrice"`
	AskOrderID uint64 `json:"askOrderId"`
	AskPrice   uint64 `json:"askPrice"`
	Quantity   uint64 `json:"quantity"`
}

func toTradeResponses(trades []orderbook.Trade) []tradeResponse {
	out := make([]tradeResponse, len(trades))
	for i, t := range trades {
		out[i] = tradeResponse{
			BidOrderID: uint64(t.Bid.OrderID),
			BidPrice:   uint64(t.Bid.Price),
			AskOrderID: uint64(t.Ask.OrderID),
			AskPrice:   uint64(t.Ask.Price),
			Quantity:   uint64(t.Bid.Quantity),
		}
	}
	return out
}

func parseSide(s string) (orderbook.Side, bool) {
	switch s {
	case "buy", "Buy":
		return orderbook.Buy, true
	case "sell", "Sell":
		return orderbook.Sell, true
	default:
		return 0, false
	}
}

func parseType(s string) (orderbook.Type, bool) {
	switch s {
	case "GTC", "GoodTillCancel":
		return orderbook.GoodTillCancel, true
	case "GFD", "GoodForDay":
		return orderbook.GoodForDay, true
	case "FAK", "FillAndKill", "IOC":
		return orderbook.FillAndKill, true
	case "FOK", "FillOrKill":
		return orderbook.FillOrKill, true
	case "Market":
		return orderbook.Market, true
	default:
		return 0, false
	}
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	side, ok := parseSide(req.Side)
	if !ok {
		http.Error(w, "invalid side", http.StatusBadRequest)
		return
	}
	otype, ok := parseType(req.Type)
	if !ok {
		http.Error(w, "invalid type", http.StatusBadRequest)
		return
	}

	o := orderbook.NewOrder(orderbook.OrderID(req.ID), side, otype, orderbook.Price(req.Price), orderbook.Quantity(req.Quantity))
	trades := s.engine.AddOrder(o)
	s.PublishTrades(trades)

	writeJSON(w, toTradeResponses(trades))
}

type cancelRequest struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.engine.CancelOrder(orderbook.OrderID(req.ID))
	w.WriteHeader(http.StatusNoContent)
}

type modifyRequest struct {
	ID       uint64 `json:"id"`
	Side     string `json:"side"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	side, ok := parseSide(req.Side)
	if !ok {
		http.Error(w, "invalid side", http.StatusBadRequest)
		return
	}

	trades := s.engine.ModifyOrder(orderbook.ModifyRequest{
		ID:       orderbook.OrderID(req.ID),
		Side:     side,
		Price:    orderbook.Price(req.Price),
		Quantity: orderbook.Quantity(req.Quantity),
	})
	s.PublishTrades(trades)

	writeJSON(w, toTradeResponses(trades))
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]uint64{"size": s.engine.Size()})
}

type levelResponse struct {
	Price Price  `json:"price"`
	Total uint64 `json:"total"`
}

// Price mirrors orderbook.Price for the response wire shape.
type Price = uint64

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	strategy := orderbook.Sequential
	switch r.URL.Query().Get("strategy") {
	case "task-parallel":
		strategy = orderbook.TaskParallel
	case "pool-partitioned":
		strategy = orderbook.PoolPartitioned
	case "pool-per-level":
		strategy = orderbook.PoolPerLevel
	}
	if s.pool == nil && (strategy == orderbook.PoolPartitioned || strategy == orderbook.PoolPerLevel) {
		strategy = orderbook.Sequential
	}

	snap := s.engine.GetOrderInfos(strategy, s.pool)
	writeJSON(w, struct {
		Bids []levelResponse `json:"bids"`
		Asks []levelResponse `json:"asks"`
	}{
		Bids: toLevelResponses(snap.Bids),
		Asks: toLevelResponses(snap.Asks),
	})
}

func toLevelResponses(levels []orderbook.LevelInfo) []levelResponse {
	out := make([]levelResponse, len(levels))
	for i, l := range levels {
		out[i] = levelResponse{Price: uint64(l.Price), Total: uint64(l.Total)}
	}
	return out
}

func (s *Server) handleTradesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := s.trades.Subscribe(32)
	defer s.trades.Unsubscribe(sub)

	for t := range sub.ch {
		if err := conn.WriteJSON(toTradeResponses([]orderbook.Trade{t})[0]); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
