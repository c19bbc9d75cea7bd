package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"auction-market/config"
	bidding "auction-market/internal/biddingService"
	"auction-market/internal/clock"
	"auction-market/internal/closer"
	"auction-market/internal/database"
	"auction-market/internal/events"
	model "auction-market/internal/models"
	"auction-market/internal/payment"
	"auction-market/internal/query"
	"auction-market/internal/repository"
	"auction-market/internal/server"
	"auction-market/internal/settlement"
	"auction-market/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	utils.SetLevel(cfg.Server.LogLevel)
	if err := cfg.Validate(); err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real{}
	retry := repository.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Store.MaxRetries

	store := newStore(cfg)
	publisher := newPublisher(cfg)
	defer publisher.Close()

	provider, err := payment.New(cfg.Settlement.Provider)
	if err != nil {
		utils.Fatal("failed to configure payment provider", map[string]any{"error": err.Error()})
	}
	catalog := query.NewStaticCatalog()

	biddingSvc := bidding.NewBiddingService(store, clk, publisher, retry)
	coordinator := settlement.NewCoordinator(store, clk, provider, publisher, retry, settlement.Config{
		MaxAttempts:    cfg.Settlement.MaxAttempts,
		Currency:       cfg.Settlement.Currency,
		PaymentTimeout: cfg.Settlement.PaymentTimeout,
	})
	reconciler := settlement.NewReconciler(store, clk, coordinator, provider, retry)
	auctionCloser := closer.NewCloser(store, clk, coordinator, publisher, newSweepLock(cfg), retry, closer.Config{
		BatchSize: cfg.Closer.BatchSize,
		Workers:   cfg.Closer.Workers,
	})
	facade := query.NewFacade(store, catalog, retry)

	if mem, ok := store.(*repository.MemoryRepo); ok && cfg.Store.SeedDemo {
		prepopulateProducts(mem, catalog, clk)
	}

	go auctionCloser.Run(ctx, cfg.Closer.Interval)
	go reconciler.Run(ctx, cfg.Settlement.ReconcileInterval)

	router := server.SetupRouter(server.Services{
		Bidding:    biddingSvc,
		Queries:    facade,
		Settlement: coordinator,
		Operations: server.Operations{Closer: auctionCloser, Reconciler: reconciler},
	}, server.AuthConfig{
		JWTSecret:     cfg.Auth.JWTSecret,
		Issuer:        cfg.Auth.Issuer,
		WebhookSecret: cfg.Auth.WebhookSecret,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		utils.Info("Starting auction server", map[string]any{"addr": srv.Addr, "store": cfg.Store.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("Failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("Shutting down auction server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("Graceful shutdown failed", map[string]any{"error": err.Error()})
	}
}

func newStore(cfg *config.Config) repository.LedgerStore {
	switch cfg.Store.Driver {
	case "memory":
		return repository.NewMemoryRepo()
	case "mysql":
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			utils.Fatal("Failed to connect to database", map[string]any{"error": err.Error()})
		}
		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				utils.Fatal("Failed to migrate database", map[string]any{"error": err.Error()})
			}
		}
		return repository.NewGormRepo(db, cfg.Store.QueryTimeout)
	default:
		utils.Fatal("Unknown store driver", map[string]any{"driver": cfg.Store.Driver})
		return nil
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher()
	}
	kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		utils.Warn("Kafka unavailable, logging events instead", map[string]any{"error": err.Error()})
		return events.NewLogPublisher()
	}
	return kp
}

func newSweepLock(cfg *config.Config) closer.SweepLock {
	if cfg.Redis.Addr == "" {
		return closer.NoopLock{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		utils.Fatal("Failed to connect to Redis", map[string]any{"error": err.Error()})
	}
	utils.Info("Redis connection established", map[string]any{"addr": cfg.Redis.Addr})
	return closer.NewRedisLock(rdb, "auction:sweep-lock", cfg.Closer.LockTTL)
}

// prepopulateProducts adds sample listings to the in-memory store
func prepopulateProducts(repo *repository.MemoryRepo, catalog *query.StaticCatalog, clk clock.Clock) {
	now := clk.Now()
	catalog.AddCategory(query.Category{ID: "cat-art", Name: "Art"})
	catalog.AddCategory(query.Category{ID: "cat-watches", Name: "Watches"})

	products := []model.Product{
		{ID: utils.GenerateID(), SellerID: "seller1", CategoryID: "cat-art", Title: "title1", Description: "description1",
			StartingPrice: decimal.NewFromInt(100), AuctionEndAt: now.Add(time.Hour)},
		{ID: utils.GenerateID(), SellerID: "seller1", CategoryID: "cat-watches", Title: "title2", Description: "Description2",
			StartingPrice: decimal.NewFromInt(200), AuctionEndAt: now.Add(2 * time.Hour)},
		{ID: utils.GenerateID(), SellerID: "seller2", CategoryID: "cat-art", Title: "title3", Description: "Description3",
			StartingPrice: decimal.NewFromInt(150), AuctionEndAt: now.Add(24 * time.Hour)},
	}

	for _, p := range products {
		p.MinIncrement = bidding.DefaultMinIncrement
		p.Status = model.ProductStatusActive
		p.CreatedAt = now
		repo.AddProduct(p)
		utils.Info("seeded product", map[string]any{"product_id": p.ID, "title": p.Title})
	}
}
