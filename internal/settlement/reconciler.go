package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-market/internal/biddingerrors"
	"auction-market/internal/clock"
	"auction-market/internal/events"
	"auction-market/internal/metrics"
	model "auction-market/internal/models"
	"auction-market/internal/payment"
	"auction-market/internal/repository"
	"auction-market/utils"
)

// Report summarises one reconciliation pass
type Report struct {
	OrdersRepaired   int `json:"orders_repaired"`
	Violations       int `json:"violations"`
	PaymentsVerified int `json:"payments_verified"`
	OrdersCancelled  int `json:"orders_cancelled"`
	Errors           int `json:"errors"`
}

// Reconciler is the settlement safety net. It creates missing orders for
// settled auctions, flags products in any state whose bids break the auction
// invariants, and resolves unpaid orders past the coordinator's payment
// timeout.
type Reconciler struct {
	store       repository.LedgerStore
	clock       clock.Clock
	coordinator *Coordinator
	provider    payment.Provider
	retry       repository.RetryPolicy
}

func NewReconciler(store repository.LedgerStore, clk clock.Clock, coordinator *Coordinator,
	provider payment.Provider, retry repository.RetryPolicy) *Reconciler {
	return &Reconciler{
		store:       store,
		clock:       clk,
		coordinator: coordinator,
		provider:    provider,
		retry:       retry,
	}
}

// Run reconciles every interval until ctx is done
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := r.Reconcile(ctx)
			if err != nil && ctx.Err() == nil {
				utils.Error("reconciliation failed", map[string]any{"error": err.Error()})
				continue
			}
			if report != (Report{}) {
				utils.Info("reconciliation finished", map[string]any{
					"orders_repaired":   report.OrdersRepaired,
					"violations":        report.Violations,
					"payments_verified": report.PaymentsVerified,
					"orders_cancelled":  report.OrdersCancelled,
					"errors":            report.Errors,
				})
			}
		}
	}
}

// Reconcile performs a single pass
func (r *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	var report Report
	if err := r.reconcileProducts(ctx, &report); err != nil {
		return report, err
	}
	if err := r.reconcileOrders(ctx, &report); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reconciler) reconcileProducts(ctx context.Context, report *Report) error {
	var ids []string
	err := repository.Retry(ctx, r.store, r.retry, func(tx repository.LedgerTx) error {
		ids = ids[:0]
		for _, status := range []model.ProductStatus{
			model.ProductStatusActive,
			model.ProductStatusClosed,
			model.ProductStatusSold,
			model.ProductStatusExpired,
		} {
			products, err := tx.ProductsByStatus(status)
			if err != nil {
				return fmt.Errorf("reconciler: failed to list %s products: %w", status, err)
			}
			for _, p := range products {
				ids = append(ids, p.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.reconcileProduct(ctx, id, report); err != nil {
			report.Errors++
			utils.Error("reconciler: product check failed", map[string]any{"product_id": id, "error": err.Error()})
		}
	}
	return nil
}

func (r *Reconciler) reconcileProduct(ctx context.Context, productID string, report *Report) error {
	var (
		created   *model.Order
		violation error
	)
	err := repository.Retry(ctx, r.store, r.retry, func(tx repository.LedgerTx) error {
		created, violation = nil, nil

		product, err := tx.GetProduct(productID)
		if err != nil {
			return err
		}
		bids, err := tx.BidsByProduct(productID)
		if err != nil {
			return err
		}
		if err := model.CheckAuctionInvariants(product, bids); err != nil {
			violation = err
			return nil
		}
		if product.AcceptedBidID == "" {
			return nil
		}

		_, err = tx.OrderByBid(product.AcceptedBidID)
		if err == nil || !errors.Is(err, biddingerrors.ErrNotFound) {
			return err
		}
		order, err := r.coordinator.CreateOrderTx(tx, product.AcceptedBidID)
		if err != nil {
			return err
		}
		created = &order
		return nil
	})
	if err != nil {
		return err
	}

	if violation != nil {
		report.Violations++
		metrics.RecordReconcileFinding("invariant_violation")
		utils.Error("reconciler: auction invariant violated", map[string]any{
			"product_id": productID,
			"error":      violation.Error(),
		})
	}
	if created != nil {
		report.OrdersRepaired++
		metrics.RecordReconcileFinding("missing_order")
		utils.Warn("reconciler: created missing order", map[string]any{
			"product_id": productID,
			"order_id":   created.ID,
			"bid_id":     created.BidID,
		})
		events.Emit(ctx, r.coordinator.publisher, OrderCreatedEvent(*created))
	}
	return nil
}

type staleOrder struct {
	orderID  string
	inFlight []model.Payment
}

func (r *Reconciler) reconcileOrders(ctx context.Context, report *Report) error {
	timeout := r.coordinator.cfg.PaymentTimeout
	if timeout <= 0 {
		return nil
	}
	cutoff := r.clock.Now().Add(-timeout)

	var stale []staleOrder
	err := repository.Retry(ctx, r.store, r.retry, func(tx repository.LedgerTx) error {
		stale = stale[:0]
		orders, err := tx.OrdersByStatus(model.OrderStatusAwaitingPayment)
		if err != nil {
			return fmt.Errorf("reconciler: failed to list unpaid orders: %w", err)
		}
		for _, o := range orders {
			if o.CreatedAt.After(cutoff) {
				continue
			}
			payments, err := tx.PaymentsByOrder(o.ID)
			if err != nil {
				return fmt.Errorf("reconciler: failed to load payments for order %s: %w", o.ID, err)
			}
			s := staleOrder{orderID: o.ID}
			for _, p := range payments {
				if p.Status == model.PaymentStatusInitiated {
					s.inFlight = append(s.inFlight, p)
				}
			}
			stale = append(stale, s)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, s := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(s.inFlight) > 0 {
			r.verifyInFlight(ctx, s, report)
			continue
		}
		cancelled, err := r.coordinator.CancelStaleOrder(ctx, s.orderID, cutoff)
		if err != nil {
			report.Errors++
			utils.Error("reconciler: failed to cancel stale order", map[string]any{"order_id": s.orderID, "error": err.Error()})
			continue
		}
		if cancelled {
			report.OrdersCancelled++
			metrics.RecordReconcileFinding("stale_order")
		}
	}
	return nil
}

// verifyInFlight asks the provider about payments of a stale order that
// never received a notification
func (r *Reconciler) verifyInFlight(ctx context.Context, s staleOrder, report *Report) {
	for _, p := range s.inFlight {
		if p.Reference == "" {
			continue
		}
		paid, err := r.provider.VerifyPayment(ctx, p.Reference)
		if err != nil {
			report.Errors++
			utils.Warn("reconciler: payment verification failed", map[string]any{
				"payment_id": p.ID,
				"reference":  p.Reference,
				"error":      err.Error(),
			})
			continue
		}
		if !paid {
			continue
		}
		if _, err := r.coordinator.CompletePayment(ctx, p.ID, ProviderResult{Success: true, Reference: p.Reference}); err != nil {
			report.Errors++
			utils.Error("reconciler: failed to apply verified payment", map[string]any{"payment_id": p.ID, "error": err.Error()})
			continue
		}
		report.PaymentsVerified++
		metrics.RecordReconcileFinding("verified_payment")
	}
}
