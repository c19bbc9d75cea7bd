package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-market/internal/biddingService"
	"auction-market/internal/clock"
	"auction-market/internal/closer"
	"auction-market/internal/events"
	"auction-market/internal/payment"
	"auction-market/internal/query"
	repository "auction-market/internal/repository"
	"auction-market/internal/settlement"

	"github.com/shopspring/decimal"
)

func newBenchService(repo *repository.MemoryRepo) *bidding.BiddingService {
	retry := repository.DefaultRetryPolicy()
	retry.MaxRetries = 50
	return bidding.NewBiddingService(repo, clock.NewFake(benchStart), events.NewLogPublisher(), retry)
}

// Benchmark 1: PlaceBid - Isolated Products (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := newBenchService(repo)
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		repo.AddProduct(benchProduct(fmt.Sprintf("product_%d", i), 50))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		userID := fmt.Sprintf("user_%d", i)
		productID := fmt.Sprintf("product_%d", i)
		bidAmount := decimal.NewFromInt(int64(51 + rand.Intn(100)))
		if _, err := svc.PlaceBid(ctx, productID, userID, bidAmount); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Product (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedProduct(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := newBenchService(repo)
	ctx := context.Background()

	product := benchProduct("shared_product_1", 50)
	repo.AddProduct(product)

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 50

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			userID := fmt.Sprintf("user_parallel_%d", rnd.Int())

			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			_, _ = svc.PlaceBid(ctx, product.ID, userID, decimal.NewFromInt(nextBid))
		}
	})
}

// Benchmark 3: ProductDetail - Single - Threaded (Low Contention)
func Benchmark_ProductDetail_SingleThreaded(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := newBenchService(repo)
	facade := query.NewFacade(repo, nil, repository.DefaultRetryPolicy())
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		product := benchProduct(fmt.Sprintf("product_%d", i), 50)
		repo.AddProduct(product)

		for j := 1; j <= 10; j++ {
			userID := fmt.Sprintf("user_%d_%d", i, j)
			_, _ = svc.PlaceBid(ctx, product.ID, userID, decimal.NewFromInt(int64(50+j*10)))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		productID := fmt.Sprintf("product_%d", i)
		if _, err := facade.ProductDetail(ctx, productID); err != nil {
			b.Fatalf("failed to load product detail: %v", err)
		}
	}
}

// Benchmark 4: ProductDetail - Concurrent (High Contention)
func Benchmark_ProductDetail_ConcurrentSharedProduct(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := newBenchService(repo)
	facade := query.NewFacade(repo, nil, repository.DefaultRetryPolicy())
	ctx := context.Background()

	product := benchProduct("shared_product_1", 50)
	repo.AddProduct(product)

	for j := 1; j <= 100; j++ {
		userID := fmt.Sprintf("user_%d", j)
		_, _ = svc.PlaceBid(ctx, product.ID, userID, decimal.NewFromInt(int64(50+j)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var counter int64

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := facade.ProductDetail(ctx, product.ID); err != nil {
				b.Errorf("failed to load product detail: %v", err)
				return
			}
			atomic.AddInt64(&counter, 1)
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedProduct(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := newBenchService(repo)
	facade := query.NewFacade(repo, nil, repository.DefaultRetryPolicy())
	ctx := context.Background()

	product := benchProduct("shared_product_1", 50)
	repo.AddProduct(product)

	for j := 1; j <= 50; j++ {
		userID := fmt.Sprintf("user_seed_%d", j)
		_, _ = svc.PlaceBid(ctx, product.ID, userID, decimal.NewFromInt(int64(50+j*2)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 150
	var counter int64

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			opType := rnd.Intn(10)
			switch {
			case opType < 3:
				// Writer: Place a new bid
				userID := fmt.Sprintf("user_writer_%d", rnd.Int())
				nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
				_, _ = svc.PlaceBid(ctx, product.ID, userID, decimal.NewFromInt(nextBid))
			default:
				// Reader: current auction state
				_, _ = facade.ProductDetail(ctx, product.ID)
			}
			atomic.AddInt64(&counter, 1)
		}
	})
}

// Benchmark 6: Sweep - closing many due auctions with orders
func Benchmark_Sweep_DueAuctions(b *testing.B) {
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		repo := repository.NewMemoryRepo()
		clk := clock.NewFake(benchStart)
		svc := bidding.NewBiddingService(repo, clk, events.NewLogPublisher(), repository.DefaultRetryPolicy())
		coordinator := settlement.NewCoordinator(repo, clk, payment.NewStubProvider(true), nil,
			repository.DefaultRetryPolicy(), settlement.Config{MaxAttempts: 3})
		c := closer.NewCloser(repo, clk, coordinator, nil, closer.NoopLock{}, repository.DefaultRetryPolicy(),
			closer.Config{BatchSize: 50, Workers: 8})

		for p := 0; p < 200; p++ {
			product := benchProduct(fmt.Sprintf("product_%d", p), 50)
			repo.AddProduct(product)
			if p%4 != 0 {
				_, _ = svc.PlaceBid(ctx, product.ID, "user_a", decimal.NewFromInt(60))
				_, _ = svc.PlaceBid(ctx, product.ID, "user_b", decimal.NewFromInt(70))
			}
		}
		clk.Advance(48 * time.Hour)
		b.StartTimer()

		res, err := c.Sweep(ctx)
		if err != nil {
			b.Fatalf("sweep failed: %v", err)
		}
		if res.Closed+res.Expired != 200 {
			b.Fatalf("unexpected sweep result: %+v", res)
		}
	}
}
