package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"

	"github.com/rahulxs/ping-chat/config"
	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/hub"
	"github.com/rahulxs/ping-chat/pkg/routes"
	"github.com/rahulxs/ping-chat/pkg/store"
)

func main() {
	// Set log output to stdout for Docker
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	log.Printf("Starting ping-chat server on port %s", cfg.Server.Port)
	log.Printf("Environment: %s", cfg.Server.Env)

	// 1. Initialize storage
	var messageStore chat.MessageStore
	var rdb *redis.Client

	if cfg.Server.DevMode {
		log.Println("DEV_MODE: using in-memory store, cross-instance sync disabled")
		messageStore = store.NewMemStore()
	} else {
		log.Println("Initializing storage...")
		storage, err := store.NewStore(ctx, cfg.Database.URL, cfg.Redis.URL, logger)
		if err != nil {
			log.Fatalf("Failed to connect to storage: %v", err)
		}
		defer storage.Close()

		if err := storage.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		messageStore = storage
		rdb = storage.RDB
	}

	// 2. Initialize WebSocket hub
	log.Println("Initializing WebSocket hub...")
	wsHub := hub.NewHub(rdb)
	go wsHub.Run()
	go wsHub.ListenEvents(ctx)

	// 3. Initialize chat service
	svc := chat.NewService(messageStore, wsHub, logger)

	// 4. Set up routes
	log.Println("Setting up routes...")
	router := routes.NewRouter(wsHub, svc,
		cfg.Server.AllowedOrigins,
		cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// 5. Start HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("ping-chat server starting on http://localhost:%s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
