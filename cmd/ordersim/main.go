// cmd/ordersim/main.go
//
// Local stand-in for the real order service: an HTTP server over the
// in-memory store, pre-seeded with a demo board so the TUI has something to
// show. Listens on localhost:8000 unless ATENDEJA_SIM_HOST/PORT say
// otherwise.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rodri-oliveira/atendeja/internal/stub"
)

func main() {
	store := stub.NewStore()
	store.SeedDemo()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	srv := stub.NewServer(stub.SettingsFromEnv(), store, stub.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting order simulator: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down: %v\n", err)
		os.Exit(1)
	}
}
