package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config.LoadDotEnv()
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Storefront - Development Backend")
	log.Println("[API] ========================================")

	var docs store.DocumentStore
	if cfg.DatabaseURL == "" {
		docs = store.NewMemoryStore()
		log.Println("[API] Store: in-memory (data is lost on exit)")
	} else {
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		pg, err := store.NewPostgresStore(ctx, db)
		if err != nil {
			log.Fatalf("[API] Failed to prepare PostgreSQL schema: %v", err)
		}
		docs = pg
		log.Println("[API] Store: PostgreSQL (documents table)")
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenExpiry)
	server := api.NewServer(docs, jwtService, log.Default())

	if cfg.Seed {
		if err := server.Seed(ctx); err != nil {
			log.Fatalf("[API] Failed to seed demo data: %v", err)
		}
		log.Println("[API] Demo data seeded (admin/admin1234, shopper/shopper123)")
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewRouter(server),
	}

	go func() {
		log.Println("[API] ========================================")
		log.Printf("[API] Server started on %s", cfg.Addr)
		log.Println("[API] ========================================")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
