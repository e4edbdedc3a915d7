package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avolkov/mcp-registry/internal/api/handlers"
	"github.com/avolkov/mcp-registry/internal/api/middleware"
	"github.com/avolkov/mcp-registry/internal/config"
	"github.com/avolkov/mcp-registry/internal/logger"
	"github.com/avolkov/mcp-registry/internal/notionsync"
	"github.com/avolkov/mcp-registry/internal/registry"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	// Parse command-line flags
	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	// Initialize logger
	log := logger.New()
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	if cfg.NotionAPIKey == "" {
		log.Warn().Msg("No Notion API key configured - sync requests will fail until NOTION_API_KEY is set")
	}

	// Initialize registry store and sync connector
	store := registry.NewStore()
	connector := notionsync.NewConnector(cfg.NotionAPIKey, cfg.NotionDatabaseID, log)

	// Initialize handlers
	registryHandler := handlers.NewRegistryHandler(store, log)
	syncHandler := handlers.NewSyncHandler(store, connector, log)

	// Create router
	mux := http.NewServeMux()

	// Services endpoints
	mux.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			registryHandler.ListServices(w, r)
		case http.MethodPost:
			registryHandler.RegisterService(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/services/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract service ID from path
			serviceID := strings.TrimPrefix(r.URL.Path, "/api/services/")
			if serviceID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Service ID is required")
				return
			}
			registryHandler.GetService(w, r, serviceID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Sync endpoint
	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.TriggerSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting registry server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
