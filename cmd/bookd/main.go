// Command bookd runs the matching engine as a long-lived daemon: an HTTP+
// WebSocket gateway over the in-process API and a venue-depth ingestion
// loop. It also constructs a kafka trade-tape publisher, but no trades are
// passed to it, so nothing is published to the topic.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"limitbook/domain/orderbook"
	"limitbook/internal/feed"
	"limitbook/internal/gateway"
	"limitbook/internal/tape"
)

func main() {
	addr := getEnv("BOOKD_ADDR", ":8080")
	brokers := strings.Split(getEnv("BOOKD_KAFKA_BROKERS", "localhost:9092"), ",")
	topic := getEnv("BOOKD_KAFKA_TOPIC", "trades")
	venueURL := getEnv("BOOKD_VENUE_URL", "")
	poolSize := parseIntEnv("BOOKD_WORKER_POOL_SIZE", 4)

	engine := orderbook.NewEngine()
	defer engine.Close()

	pool := orderbook.NewWorkerPool(poolSize)
	defer pool.Close()

	publisher := tape.NewPublisher(brokers, topic)
	defer publisher.Close()

	srv := gateway.NewServer(engine, pool)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if venueURL != "" {
		adapter := feed.NewAdapter(venueURL, 0)
		go adapter.Poll(ctx, engine, 5*time.Second)
	} else {
		log.Printf("bookd: BOOKD_VENUE_URL not set, skipping venue ingestion")
	}

	httpSrv := &http.Server{Addr: addr, Handler: srv.Routes()}
	go func() {
		log.Printf("bookd: listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("bookd: listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("bookd: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("bookd: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
