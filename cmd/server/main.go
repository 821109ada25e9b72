/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vesting query server. Handles configuration,
  dependency injection, and graceful shutdown. The server is a read-only
  window onto the deployed program's ledger state; it holds no keys and
  submits nothing.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Build the structured logger
  3. Connect the JSON-RPC ledger client
  4. Wire the domain service and API handler
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: 8080)
  -rpc         Ledger JSON-RPC endpoint (default: http://localhost:8899)
  -program     Deployed program id (default: the canonical deployment)
  -commitment  Read durability level: processed|confirmed|finalized
  -decimals    Token decimal precision for display amounts (default: 9)
  -debug       Verbose development logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

EXAMPLES:
  # Run against a local validator
  ./server -rpc=http://localhost:8899

  # Run against a public endpoint at confirmed durability
  ./server -rpc=https://api.devnet.solana.com -commitment=confirmed

SEE ALSO:
  - api/server.go: Router configuration
  - ledger/rpc.go: JSON-RPC client
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/vesting-engine/api"
	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/vesting"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	rpcURL := flag.String("rpc", "http://localhost:8899", "ledger JSON-RPC endpoint")
	programID := flag.String("program", vesting.DefaultProgramID.String(), "deployed program id")
	commitment := flag.String("commitment", "confirmed", "read durability level: processed|confirmed|finalized")
	decimals := flag.Uint("decimals", 9, "token decimal precision for display amounts")
	debug := flag.Bool("debug", false, "verbose development logging")
	flag.Parse()

	log, err := buildLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	program, err := ledger.ParsePublicKey(*programID)
	if err != nil {
		log.Fatal("invalid program id", zap.String("program", *programID), zap.Error(err))
	}

	// Ledger client
	client := ledger.NewRPCClient(*rpcURL, log)
	client.Commitment = ledger.Commitment(*commitment)

	// Domain service and handler
	service := vesting.NewService(client, program, log)
	handler := api.NewHandler(service, log)
	handler.TokenDecimals = uint8(*decimals)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting",
			zap.Int("port", *port),
			zap.String("rpc", *rpcURL),
			zap.String("program", program.String()),
			zap.String("commitment", *commitment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
