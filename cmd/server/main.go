/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the presence engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load YAML config
  2. Initialize SQLite store and seed the bootstrap admin
  3. Create API handler with dependencies
  4. Start the reminder cron job
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file path (optional; defaults apply when absent)
  -listen  Listen address, overrides config (e.g. ":8080")
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reminder scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with defaults
  ./server

  # Run with a config file
  ./server -config=./presence.yaml

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Config file format and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/warp/presence-engine/api"
	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/config"
	"github.com/warp/presence-engine/notify"
	"github.com/warp/presence-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file path")
	listen := flag.String("listen", "", "listen address override")
	dbPath := flag.String("db", "", "SQLite database path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed the bootstrap admin on an empty database.
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	if admin, err := store.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, hash); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	} else if admin != nil {
		log.Printf("Seeded admin account %s", admin.Email)
	}

	// Initialize handler and router
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL.Std())
	handler := api.NewHandler(store, tokens)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Reminder cron
	reminder := api.NewReminder(store, notify.LogNotifier{})
	if err := reminder.Start(cfg.ReminderCron); err != nil {
		log.Fatalf("Failed to start reminder job: %v", err)
	}

	// Create server
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost%s", cfg.Listen)
		log.Printf("📊 API available at http://localhost%s/api", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	reminder.Stop()

	log.Println("Server stopped")
}
