package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chitchat/auth"
	"chitchat/docstore"
	"chitchat/gateway"
	"chitchat/identity"
	"chitchat/internal/logs"
	"chitchat/objectstore"
	"chitchat/repositories"
	"chitchat/runtime"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: no .env file loaded")
	}
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Collaborators: document store, identity provider, object store
	store := docstore.New(log, db, config.BufferSize)
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	accounts := repositories.NewAccountRepository(db)
	provider := identity.NewProvider(log, accounts, store, tokens)
	blobs, err := objectstore.NewDisk(log, config.MediaDir, config.MediaBaseURL)
	if err != nil {
		return err
	}

	// 4. Supervision: the snapshot notifier runs under restart policy
	sup := runtime.NewSupervisor(log, config.RestartInterval)
	sup.Add(store.Notifier())

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 6. HTTP gateway
	server := gateway.NewServer(log, provider, store, blobs, tokens)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:           address,
		Handler:        server.Router(config.MediaDir),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gateway", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
