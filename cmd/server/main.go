package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc"

	"github.com/rl1809/stock-ledger/internal/adapter/handler"
	"github.com/rl1809/stock-ledger/internal/adapter/repository"
	"github.com/rl1809/stock-ledger/internal/adapter/scan"
	"github.com/rl1809/stock-ledger/internal/adapter/storage"
	"github.com/rl1809/stock-ledger/internal/config"
	"github.com/rl1809/stock-ledger/internal/core/service"
	"github.com/rl1809/stock-ledger/internal/port"
)

const scanQuantity = 1

// kvBackend is a key-value store that can be health-checked and closed.
type kvBackend interface {
	port.KVStore
	handler.Pinger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	log.Printf("connected to %s", cfg.StoreBackend)

	// Initialize repositories and services
	keys := repository.NewKeys(cfg.KeyPrefix)
	products := repository.NewProductRepository(store, keys)
	ledger := repository.NewLedger(store, keys)
	backupStore := repository.NewBackupStore(store, keys)

	stockService := service.NewStockService(products, ledger)
	backupService := service.NewBackupService(products, ledger, backupStore, stockService.Locker())
	scanService := service.NewScanService(stockService, cfg.ScanQueueSize, scanQuantity)

	// Startup maintenance
	if removed, err := ledger.Cleanup(ctx, cfg.RetentionDays); err != nil {
		log.Printf("retention cleanup failed: %v", err)
	} else if removed > 0 {
		log.Printf("removed %d records older than %d days", removed, cfg.RetentionDays)
	}
	if _, err := stockService.ReconcileAll(ctx); err != nil {
		log.Printf("startup reconcile failed: %v", err)
	}

	var bg sync.WaitGroup
	bg.Add(1)
	go func() {
		defer bg.Done()
		backupService.Run(ctx, cfg.BackupCheckInterval)
	}()

	// Scan worker
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanService.Run()
	}()

	if cfg.ScanStdin {
		gate := scan.NewGate(scanService, cfg.ScanDedupeWindow)
		source := scan.NewReaderSource(os.Stdin)
		go func() {
			if err := source.Run(ctx, gate); err != nil && ctx.Err() == nil {
				log.Printf("scan source stopped: %v", err)
			}
		}()
		log.Println("reading barcodes from stdin")
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler(stockService)
	healthServer := handler.RegisterGRPC(grpcServer, grpcHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	// Initialize HTTP server
	gin.SetMode(gin.ReleaseMode)
	httpHandler := handler.NewHTTPHandler(stockService, backupService, products, ledger, store, cfg.RetentionDays)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(httpHandler),
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

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Stop gRPC server
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")

	// Stop backup scheduler and scan source
	cancel()
	bg.Wait()

	// Close scan queue and wait for the worker
	scanService.Close()
	wg.Wait()
	log.Println("workers stopped")

	closeStore()
	log.Println("connections closed")
}

func openStore(ctx context.Context, cfg config.Config) (kvBackend, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 20,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return storage.NewRedisAdapter(rdb), func() { rdb.Close() }, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return adapter, func() { db.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		adapter := storage.NewPostgresAdapter(pool)
		if err := adapter.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return adapter, pool.Close, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() { client.Disconnect(context.Background()) }
		return storage.NewMongoAdapter(client.Database(cfg.MongoDB)), closeFn, nil

	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
