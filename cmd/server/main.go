package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/lp2808/retail-pos/internal/adapter/handler"
	"github.com/lp2808/retail-pos/internal/adapter/storage"
	"github.com/lp2808/retail-pos/internal/auth"
	"github.com/lp2808/retail-pos/internal/config"
	"github.com/lp2808/retail-pos/internal/core/service"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisAdapter(rdb)

	// Initialize services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	saleService := service.NewSaleService(store, store, cache, cfg.SaleMaxRetries)
	catalogService := service.NewCatalogService(store)
	inventoryService := service.NewInventoryService(store, store, store)
	authService := service.NewAuthService(store, tokens, cfg.RefreshTokenTTL)

	// Initialize HTTP server
	guard := handler.NewMiddleware(tokens)
	httpHandler := handler.NewHTTPHandler(saleService, catalogService, inventoryService, authService, guard)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}
