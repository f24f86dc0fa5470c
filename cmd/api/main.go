package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"studio/api/internal/app"
	"studio/api/internal/config"
	"studio/api/internal/hydra"
	"studio/api/internal/search"
	"studio/api/internal/session"
	"studio/api/internal/store"
	"studio/api/internal/userdir"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		go searchService.ReindexAllFromPG(ctx)
	}

	introspect := hydra.NewClient(cfg.HydraAdminURL, cfg.HydraTimeout)
	users := userdir.NewClient(cfg.UserDirURL, cfg.UserDirTimeout)

	var identityCache *session.Cache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		identityCache, err = session.NewCache(cfg.RedisURL, cfg.IdentityCacheTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer identityCache.Close()
		log.Printf("Caching token introspection in Redis")
	} else {
		log.Printf("Redis disabled, every request introspects its token")
	}

	service := app.New(cfg, dataStore, searchService, introspect, users, identityCache)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Studio API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
