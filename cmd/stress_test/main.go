package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-ledger/internal/adapter/repository"
	"github.com/rl1809/stock-ledger/internal/adapter/storage"
	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	keyPrefix     = "stress:"
	itemID        = "stress-item"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	store := storage.NewRedisAdapter(rdb)
	keys := repository.NewKeys(keyPrefix)

	// Clear previous test data
	for _, k := range keys.All() {
		store.Remove(ctx, k)
	}

	products := repository.NewProductRepository(store, keys)
	ledger := repository.NewLedger(store, keys)
	stockService := service.NewStockService(products, ledger)

	if _, err := stockService.RecordMovement(ctx, itemID, initialStock, domain.MovementIn, "initial"); err != nil {
		log.Fatalf("failed to set stock: %v", err)
	}

	// Counters
	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var errorCount atomic.Int32

	// Spawn concurrent stock-outs
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			_, err := stockService.RecordMovement(ctx, itemID, 1, domain.MovementOut, fmt.Sprintf("order-%d", n))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("request %d: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold out:         %d\n", soldOut)
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == initialStock && soldOut == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d outs succeeded, %d sold out\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, soldOut)
	}

	// Ledger and cached quantity must agree
	ledgerStock, err := stockService.GetStock(ctx, itemID)
	if err != nil {
		log.Fatalf("failed to fold ledger: %v", err)
	}
	product, err := products.Get(ctx, itemID)
	if err != nil {
		log.Fatalf("failed to load product: %v", err)
	}
	fmt.Printf("Ledger Stock: %d, Cached Quantity: %d\n", ledgerStock, product.Quantity)

	if ledgerStock == 0 && product.Quantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got ledger=%d cache=%d\n", ledgerStock, product.Quantity)
	}
}
