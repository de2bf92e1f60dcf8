package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/provly/provenance/internal/adapter/payment"
	"github.com/provly/provenance/internal/adapter/storage"
	"github.com/provly/provenance/internal/core/ledger"
	"github.com/provly/provenance/internal/core/service"
)

const (
	redisAddr   = "localhost:6379"
	totalBuyers = 50
	salePrice   = 10_000
	buyerFunds  = 20_000
	queueSize   = 100
)

// Races totalBuyers concurrent purchases of a single listed item. Exactly one
// must succeed; everyone else must be rejected on the for-sale precondition.
func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	cache := storage.NewRedisAdapter(rdb)
	wallet := payment.NewWallet()
	book := ledger.New("admin", "platform")
	market := service.NewMarketplace(book, cache, wallet, cache, nil, service.Policy{
		FeeBps:              250,
		RequireRegistration: true,
	}, queueSize)
	defer market.Close()

	// Drain the archive queue; durability is not under test here.
	go func() {
		for range market.Records() {
		}
	}()

	if err := market.RegisterParticipant(ctx, "seller"); err != nil {
		log.Fatalf("register seller: %v", err)
	}
	itemID, err := market.RegisterItem(ctx, "seller", service.RegisterItemInput{
		Name:   "vintage watch",
		Serial: fmt.Sprintf("stress-%d", time.Now().UnixNano()),
	})
	if err != nil {
		log.Fatalf("register item: %v", err)
	}
	if err := market.ListItemForSale(ctx, "seller", itemID, salePrice); err != nil {
		log.Fatalf("list item: %v", err)
	}

	for i := 0; i < totalBuyers; i++ {
		buyer := fmt.Sprintf("buyer-%d", i)
		if err := market.RegisterParticipant(ctx, buyer); err != nil {
			log.Fatalf("register %s: %v", buyer, err)
		}
		wallet.Deposit(buyer, buyerFunds)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalBuyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buyer := fmt.Sprintf("buyer-%d", i)
			requestID := fmt.Sprintf("stress-%d-%d", time.Now().UnixNano(), i)
			_, err := market.PurchaseItem(ctx, requestID, buyer, itemID, salePrice)
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	item, err := market.GetItem(itemID)
	if err != nil {
		log.Fatalf("get item: %v", err)
	}

	fmt.Printf("buyers: %d, elapsed: %v\n", totalBuyers, elapsed)
	fmt.Printf("success: %d, failed: %d\n", successCount.Load(), failCount.Load())
	fmt.Printf("owner: %s, seller balance: %d, platform balance: %d\n",
		item.Owner, wallet.Balance("seller"), wallet.Balance("platform"))

	if successCount.Load() != 1 {
		log.Fatalf("expected exactly 1 successful purchase, got %d", successCount.Load())
	}
	log.Println("stress test passed")
}
