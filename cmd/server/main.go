package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/provly/provenance/internal/adapter/handler"
	"github.com/provly/provenance/internal/adapter/payment"
	"github.com/provly/provenance/internal/adapter/storage"
	"github.com/provly/provenance/internal/config"
	"github.com/provly/provenance/internal/core/domain"
	"github.com/provly/provenance/internal/core/ledger"
	"github.com/provly/provenance/internal/core/service"
	"github.com/provly/provenance/internal/metrics"
	"github.com/provly/provenance/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.FromEnv()

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
	redisAdapter := storage.NewRedisAdapter(rdb)
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	wallet := payment.NewWallet()

	// Initialize the ledger and engine
	book := ledger.New(cfg.AdminID, cfg.PlatformWallet)
	m := metrics.New()
	market := service.NewMarketplace(book, redisAdapter, wallet, redisAdapter, m, service.Policy{
		FeeBps:              cfg.FeeBps,
		RequireRegistration: cfg.RequireRegistration,
	}, cfg.QueueSize)
	log.Printf("ledger initialized: admin=%s platform=%s fee=%dbps gated=%v",
		cfg.AdminID, cfg.PlatformWallet, cfg.FeeBps, cfg.RequireRegistration)

	// Start archive workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, market.Records(), mysqlAdapter)
		}(i)
	}
	log.Printf("started %d archive workers", cfg.WorkerCount)

	// Initialize gRPC server with the standard health service
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

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
	httpHandler := handler.NewHTTPHandler(market, wallet)
	mux := http.NewServeMux()
	httpHandler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
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

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")

	// Close the record queue and wait for the mirror to drain
	market.Close()
	wg.Wait()
	log.Println("archive workers stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func workerLoop(id int, queue <-chan domain.Record, archive port.ArchiveRepository) {
	for rec := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := archive.Save(ctx, rec); err != nil {
			// The in-memory ledger stays authoritative; a failed mirror write
			// loses durability, not correctness.
			log.Printf("worker %d: CRITICAL failed to archive item %d: %v", id, rec.Item.ID, err)
		}

		cancel()
	}
}
