package closer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-market/internal/clock"
	"auction-market/internal/events"
	"auction-market/internal/metrics"
	model "auction-market/internal/models"
	"auction-market/internal/repository"
	"auction-market/internal/settlement"
	"auction-market/utils"

	"golang.org/x/sync/errgroup"
)

const (
	OutcomeClosed  = "closed"
	OutcomeExpired = "expired"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// OrderCreator creates the order for a freshly accepted bid within the
// closing transaction
type OrderCreator interface {
	CreateOrderTx(tx repository.LedgerTx, bidID string) (model.Order, error)
}

type Config struct {
	BatchSize int
	Workers   int
}

// SweepResult counts what a sweep did
type SweepResult struct {
	Closed  int `json:"closed"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (r *SweepResult) add(outcome string) {
	switch outcome {
	case OutcomeClosed:
		r.Closed++
	case OutcomeExpired:
		r.Expired++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// Closer ends auctions whose time has run out
type Closer struct {
	store     repository.LedgerStore
	clock     clock.Clock
	orders    OrderCreator
	publisher events.Publisher
	lock      SweepLock
	retry     repository.RetryPolicy
	cfg       Config
}

func NewCloser(store repository.LedgerStore, clk clock.Clock, orders OrderCreator, publisher events.Publisher,
	lock SweepLock, retry repository.RetryPolicy, cfg Config) *Closer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if lock == nil {
		lock = NoopLock{}
	}
	return &Closer{
		store:     store,
		clock:     clk,
		orders:    orders,
		publisher: publisher,
		lock:      lock,
		retry:     retry,
		cfg:       cfg,
	}
}

// Run sweeps every interval until ctx is done
func (c *Closer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := c.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				utils.Error("closer: sweep failed", map[string]any{"error": err.Error()})
				continue
			}
			if res != (SweepResult{}) {
				utils.Info("closer: sweep finished", map[string]any{
					"closed":  res.Closed,
					"expired": res.Expired,
					"skipped": res.Skipped,
					"failed":  res.Failed,
				})
			}
		}
	}
}

// Sweep closes every auction that is due. Each product is handled in its
// own transaction; a failure is counted and never blocks the others.
func (c *Closer) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	unlock, acquired, err := c.lock.TryLock(ctx)
	if err != nil {
		return res, err
	}
	if !acquired {
		return res, nil
	}
	defer unlock()

	start := time.Now()
	defer func() { metrics.ObserveSweep(time.Since(start)) }()

	// pages forward so products that keep failing do not hide the rest
	var cursor repository.DueCursor
	for {
		due, err := c.store.DueProducts(ctx, c.clock.Now(), cursor, c.cfg.BatchSize)
		if err != nil {
			return res, fmt.Errorf("closer: failed to list due products: %w", err)
		}
		if len(due) == 0 {
			return res, nil
		}

		batch := c.closeBatch(ctx, due)
		res.Closed += batch.Closed
		res.Expired += batch.Expired
		res.Skipped += batch.Skipped
		res.Failed += batch.Failed

		if len(due) < c.cfg.BatchSize || ctx.Err() != nil {
			return res, ctx.Err()
		}
		cursor = repository.CursorAt(due[len(due)-1])
	}
}

func (c *Closer) closeBatch(ctx context.Context, due []model.Product) SweepResult {
	var (
		mu  sync.Mutex
		res SweepResult
	)
	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Workers)

	for _, p := range due {
		g.Go(func() error {
			outcome, err := c.CloseProduct(ctx, p.ID)
			if err != nil {
				utils.Error("closer: failed to close auction", map[string]any{
					"product_id": p.ID,
					"error":      err.Error(),
				})
			}
			metrics.RecordAuctionClosed(outcome)

			mu.Lock()
			res.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// CloseProduct closes one auction if it is still ACTIVE and due. The winning
// bid is accepted, the other pending bids rejected and the order created in
// the same transaction. Running it again is a no-op.
func (c *Closer) CloseProduct(ctx context.Context, productID string) (string, error) {
	var (
		outcome string
		evts    []events.Event
	)
	err := repository.Retry(ctx, c.store, c.retry, func(tx repository.LedgerTx) error {
		outcome, evts = OutcomeSkipped, nil

		product, err := tx.GetProduct(productID)
		if err != nil {
			return fmt.Errorf("closer: failed to load product %s: %w", productID, err)
		}
		now := c.clock.Now()
		if !product.IsDueAt(now) {
			return nil
		}

		bids, err := tx.BidsByProduct(productID)
		if err != nil {
			return fmt.Errorf("closer: failed to load bids for product %s: %w", productID, err)
		}
		ranked := model.RankPending(bids)

		if len(ranked) == 0 {
			if err := product.Expire(); err != nil {
				return fmt.Errorf("closer: %w", err)
			}
			if err := tx.PutProduct(&product); err != nil {
				return fmt.Errorf("closer: failed to expire product %s: %w", productID, err)
			}
			outcome = OutcomeExpired
			evts = append(evts, events.New(events.AuctionExpired, productID, now))
			return nil
		}

		winner := ranked[0]
		if err := winner.Accept(); err != nil {
			return fmt.Errorf("closer: %w", err)
		}
		if err := tx.PutBid(&winner); err != nil {
			return fmt.Errorf("closer: failed to accept bid %s: %w", winner.ID, err)
		}
		for _, b := range ranked[1:] {
			if err := b.Reject(); err != nil {
				return fmt.Errorf("closer: %w", err)
			}
			if err := tx.PutBid(&b); err != nil {
				return fmt.Errorf("closer: failed to reject bid %s: %w", b.ID, err)
			}
		}

		if err := product.Close(winner.ID); err != nil {
			return fmt.Errorf("closer: %w", err)
		}
		if err := tx.PutProduct(&product); err != nil {
			return fmt.Errorf("closer: failed to close product %s: %w", productID, err)
		}

		order, err := c.orders.CreateOrderTx(tx, winner.ID)
		if err != nil {
			return fmt.Errorf("closer: failed to create order for product %s: %w", productID, err)
		}

		outcome = OutcomeClosed
		closed := events.New(events.AuctionClosed, productID, now)
		closed.BidID = winner.ID
		closed.UserID = winner.BidderID
		closed.Amount = winner.Amount.StringFixed(model.MoneyPlaces)
		evts = append(evts, closed, settlement.OrderCreatedEvent(order))
		return nil
	})
	if err != nil {
		return OutcomeFailed, err
	}
	if outcome == OutcomeSkipped {
		utils.Debug("closer: auction not due or already settled", map[string]any{"product_id": productID})
	}

	events.Emit(ctx, c.publisher, evts...)
	return outcome, nil
}
