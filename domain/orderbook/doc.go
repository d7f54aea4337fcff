// Package orderbook implements an in-memory, single-instrument limit order
// book and matching engine. It maintains ordered price maps for the bid and
// ask sides, FIFO queues per price level, and per-level aggregates that keep
// FillOrKill feasibility checks O(L) instead of O(N). The book is a
// single-writer structure: one mutex serializes every mutation.
package orderbook
