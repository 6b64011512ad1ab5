// Package main runs the DTN satellite constellation simulator's HTTP
// control API (§6): create, start, pause, resume, stop, and snapshot
// simulations over internal/engine.Registry.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurorasat/dtnsim/internal/apiserver"
	"github.com/aurorasat/dtnsim/internal/engine"
)

func main() {
	listenAddr := flag.String("listen", envOr("DTNSIM_LISTEN_ADDR", ":8080"), "address to listen on")
	flag.Parse()

	log.Printf("=== dtnsim control API ===")
	log.Printf("Listen Address: %s", *listenAddr)

	registry := engine.NewRegistry()
	router := apiserver.NewRouter(registry)

	srv := &http.Server{
		Addr:         *listenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("control API server failed: %v", err)
		}
	}()
	log.Printf("control API listening on %s", *listenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	log.Println("control API stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
