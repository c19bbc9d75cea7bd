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

type Config struct {
	// MaxAttempts is the number of failed payments after which the order
	// is cancelled
	MaxAttempts int
	Currency    string
	// PaymentTimeout is how long an order may wait for payment before the
	// reconciler resolves it. Zero disables the check.
	PaymentTimeout time.Duration
}

// ProviderResult is the final outcome of a payment attempt
type ProviderResult struct {
	Success       bool
	Reference     string
	FailureReason string
}

// Coordinator turns accepted bids into orders and drives their payments
type Coordinator struct {
	store     repository.LedgerStore
	clock     clock.Clock
	provider  payment.Provider
	publisher events.Publisher
	retry     repository.RetryPolicy
	cfg       Config
}

func NewCoordinator(store repository.LedgerStore, clk clock.Clock, provider payment.Provider,
	publisher events.Publisher, retry repository.RetryPolicy, cfg Config) *Coordinator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Coordinator{
		store:     store,
		clock:     clk,
		provider:  provider,
		publisher: publisher,
		retry:     retry,
		cfg:       cfg,
	}
}

// CreateOrderTx creates the order for an accepted bid inside tx. It fails
// with ErrDuplicateSettlement when the bid already has an order.
func (c *Coordinator) CreateOrderTx(tx repository.LedgerTx, bidID string) (model.Order, error) {
	bid, err := tx.GetBid(bidID)
	if err != nil {
		return model.Order{}, fmt.Errorf("settlement: failed to load bid %s: %w", bidID, err)
	}
	if bid.Status != model.BidStatusAccepted {
		return model.Order{}, fmt.Errorf("settlement: %w - bid %s is %s", biddingerrors.ErrInvalidTransition, bidID, bid.Status)
	}
	product, err := tx.GetProduct(bid.ProductID)
	if err != nil {
		return model.Order{}, fmt.Errorf("settlement: failed to load product %s: %w", bid.ProductID, err)
	}
	if product.AcceptedBidID != bid.ID {
		return model.Order{}, fmt.Errorf("settlement: %w - product %s accepted %q, not bid %s",
			biddingerrors.ErrInvariantViolated, product.ID, product.AcceptedBidID, bid.ID)
	}

	existing, err := tx.OrderByBid(bidID)
	switch {
	case err == nil:
		return existing, fmt.Errorf("settlement: %w - bid %s has order %s", biddingerrors.ErrDuplicateSettlement, bidID, existing.ID)
	case !errors.Is(err, biddingerrors.ErrNotFound):
		return model.Order{}, fmt.Errorf("settlement: failed to look up order for bid %s: %w", bidID, err)
	}

	order := model.Order{
		ID:          utils.GenerateID(),
		ProductID:   product.ID,
		BuyerID:     bid.BidderID,
		SellerID:    product.SellerID,
		BidID:       bid.ID,
		TotalAmount: bid.Amount,
		Status:      model.OrderStatusAwaitingPayment,
		CreatedAt:   c.clock.Now(),
	}
	if err := tx.PutOrder(&order); err != nil {
		return model.Order{}, fmt.Errorf("settlement: failed to create order for bid %s: %w", bidID, err)
	}
	return order, nil
}

// CreateOrderForAcceptedBid creates the order for an accepted bid in its own
// transaction
func (c *Coordinator) CreateOrderForAcceptedBid(ctx context.Context, bidID string) (model.Order, error) {
	var order model.Order
	err := repository.Retry(ctx, c.store, c.retry, func(tx repository.LedgerTx) error {
		var err error
		order, err = c.CreateOrderTx(tx, bidID)
		return err
	})
	if err != nil {
		return order, err
	}

	events.Emit(ctx, c.publisher, OrderCreatedEvent(order))
	return order, nil
}

// OrderCreatedEvent describes a freshly created order
func OrderCreatedEvent(o model.Order) events.Event {
	e := events.New(events.OrderCreated, o.ProductID, o.CreatedAt)
	e.OrderID = o.ID
	e.BidID = o.BidID
	e.UserID = o.BuyerID
	e.Amount = o.TotalAmount.StringFixed(model.MoneyPlaces)
	return e
}

// InitiatePayment starts a payment attempt for the buyer's order. The
// provider is called outside any transaction; its answer is recorded in a
// second transaction.
func (c *Coordinator) InitiatePayment(ctx context.Context, orderID, buyerID string) (model.Payment, error) {
	if orderID == "" || buyerID == "" {
		return model.Payment{}, fmt.Errorf("settlement: %w - missing orderID or buyerID", biddingerrors.ErrInvalidInput)
	}

	var (
		pay   model.Payment
		order model.Order
	)
	err := repository.Retry(ctx, c.store, c.retry, func(tx repository.LedgerTx) error {
		var err error
		order, err = tx.GetOrder(orderID)
		if err != nil {
			return fmt.Errorf("settlement: failed to load order %s: %w", orderID, err)
		}
		if order.BuyerID != buyerID {
			return fmt.Errorf("settlement: %w - order %s", biddingerrors.ErrNotOwner, orderID)
		}
		if order.Status != model.OrderStatusAwaitingPayment {
			return fmt.Errorf("settlement: %w - order %s is %s", biddingerrors.ErrOrderNotPayable, orderID, order.Status)
		}

		payments, err := tx.PaymentsByOrder(orderID)
		if err != nil {
			return fmt.Errorf("settlement: failed to load payments for order %s: %w", orderID, err)
		}
		for _, p := range payments {
			if p.IsActive() {
				return fmt.Errorf("settlement: %w - order %s has payment %s", biddingerrors.ErrPaymentInProgress, orderID, p.ID)
			}
		}

		pay = model.Payment{
			ID:        utils.GenerateID(),
			OrderID:   orderID,
			Provider:  c.provider.Name(),
			Status:    model.PaymentStatusInitiated,
			CreatedAt: c.clock.Now(),
		}
		if err := tx.PutPayment(&pay); err != nil {
			return fmt.Errorf("settlement: failed to create payment for order %s: %w", orderID, err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}

	resp, provErr := c.provider.InitiatePayment(ctx, payment.PaymentRequest{
		PaymentID:      pay.ID,
		OrderID:        orderID,
		BuyerID:        buyerID,
		Amount:         order.TotalAmount,
		Currency:       c.cfg.Currency,
		IdempotencyKey: pay.ID,
		Description:    "auction order " + orderID,
	})
	if provErr == nil && resp == nil {
		provErr = errors.New("empty provider response")
	}

	// the provider has been contacted; record its answer even if the caller left
	recordCtx := context.WithoutCancel(ctx)

	switch {
	case provErr != nil:
		failed, err := c.CompletePayment(recordCtx, pay.ID, ProviderResult{FailureReason: provErr.Error()})
		if err != nil {
			return pay, fmt.Errorf("settlement: failed to record provider error for payment %s: %w", pay.ID, err)
		}
		return failed, fmt.Errorf("settlement: %w - %v", biddingerrors.ErrProviderFailure, provErr)

	case resp.Status == payment.StatusFailed:
		failed, err := c.CompletePayment(recordCtx, pay.ID, ProviderResult{Reference: resp.Reference, FailureReason: resp.FailureReason})
		if err != nil {
			return pay, err
		}
		return failed, fmt.Errorf("settlement: %w - declined: %s", biddingerrors.ErrProviderFailure, resp.FailureReason)

	case resp.Status == payment.StatusSucceeded:
		return c.CompletePayment(recordCtx, pay.ID, ProviderResult{Success: true, Reference: resp.Reference})
	}

	err = repository.Retry(recordCtx, c.store, c.retry, func(tx repository.LedgerTx) error {
		var err error
		pay, err = tx.GetPayment(pay.ID)
		if err != nil {
			return fmt.Errorf("settlement: failed to reload payment: %w", err)
		}
		if pay.Status != model.PaymentStatusInitiated || pay.Reference != "" {
			// a notification got here first
			return nil
		}
		pay.Reference = resp.Reference
		return tx.PutPayment(&pay)
	})
	if err != nil {
		return pay, err
	}

	utils.Info("payment initiated", map[string]any{
		"payment_id": pay.ID,
		"order_id":   orderID,
		"provider":   pay.Provider,
		"reference":  pay.Reference,
	})
	return pay, nil
}

// CompletePayment applies the provider's final answer. Success marks the
// order PAID and the product SOLD; failure releases the order for another
// attempt or cancels it once the attempt limit is reached. Repeating an
// outcome that is already recorded is a no-op.
func (c *Coordinator) CompletePayment(ctx context.Context, paymentID string, result ProviderResult) (model.Payment, error) {
	var (
		pay       model.Payment
		order     model.Order
		changed   bool
		cancelled bool
	)
	err := repository.Retry(ctx, c.store, c.retry, func(tx repository.LedgerTx) error {
		changed, cancelled = false, false

		var err error
		pay, err = tx.GetPayment(paymentID)
		if err != nil {
			return fmt.Errorf("settlement: failed to load payment %s: %w", paymentID, err)
		}
		order, err = tx.GetOrder(pay.OrderID)
		if err != nil {
			return fmt.Errorf("settlement: failed to load order %s: %w", pay.OrderID, err)
		}

		if result.Success {
			if pay.Status == model.PaymentStatusSuccess {
				return nil
			}
			changed = true
			return c.applySuccess(tx, &pay, &order, result)
		}

		if pay.Status == model.PaymentStatusFailed {
			return nil
		}
		changed = true
		cancelled, err = c.applyFailure(tx, &pay, &order, result)
		return err
	})
	if err != nil {
		return model.Payment{}, err
	}
	if !changed {
		return pay, nil
	}

	now := c.clock.Now()
	if result.Success {
		metrics.RecordPayment(string(model.PaymentStatusSuccess))
		e := events.New(events.PaymentSucceeded, order.ProductID, now)
		e.OrderID = order.ID
		e.PaymentID = pay.ID
		e.UserID = order.BuyerID
		e.Amount = order.TotalAmount.StringFixed(model.MoneyPlaces)
		events.Emit(ctx, c.publisher, e)
		utils.Info("payment succeeded", map[string]any{"payment_id": pay.ID, "order_id": order.ID})
		return pay, nil
	}

	metrics.RecordPayment(string(model.PaymentStatusFailed))
	evts := []events.Event{events.New(events.PaymentFailed, order.ProductID, now)}
	evts[0].OrderID = order.ID
	evts[0].PaymentID = pay.ID
	if cancelled {
		e := events.New(events.OrderCancelled, order.ProductID, now)
		e.OrderID = order.ID
		evts = append(evts, e)
	}
	events.Emit(ctx, c.publisher, evts...)
	utils.Warn("payment failed", map[string]any{
		"payment_id":      pay.ID,
		"order_id":        order.ID,
		"reason":          pay.FailureReason,
		"order_cancelled": cancelled,
	})
	return pay, nil
}

func (c *Coordinator) applySuccess(tx repository.LedgerTx, pay *model.Payment, order *model.Order, result ProviderResult) error {
	if err := pay.Succeed(c.clock.Now()); err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	if pay.Reference == "" {
		pay.Reference = result.Reference
	}
	if err := order.MarkPaid(); err != nil {
		return fmt.Errorf("settlement: %w", err)
	}

	product, err := tx.GetProduct(order.ProductID)
	if err != nil {
		return fmt.Errorf("settlement: failed to load product %s: %w", order.ProductID, err)
	}
	if product.Status == model.ProductStatusClosed {
		if err := product.MarkSold(); err != nil {
			return fmt.Errorf("settlement: %w", err)
		}
		if err := tx.PutProduct(&product); err != nil {
			return fmt.Errorf("settlement: failed to mark product %s sold: %w", product.ID, err)
		}
	}

	if err := tx.PutPayment(pay); err != nil {
		return fmt.Errorf("settlement: failed to store payment %s: %w", pay.ID, err)
	}
	if err := tx.PutOrder(order); err != nil {
		return fmt.Errorf("settlement: failed to store order %s: %w", order.ID, err)
	}
	return nil
}

func (c *Coordinator) applyFailure(tx repository.LedgerTx, pay *model.Payment, order *model.Order, result ProviderResult) (bool, error) {
	reason := result.FailureReason
	if reason == "" {
		reason = "declined by provider"
	}
	if err := pay.Fail(reason); err != nil {
		return false, fmt.Errorf("settlement: %w", err)
	}
	if pay.Reference == "" {
		pay.Reference = result.Reference
	}
	if err := tx.PutPayment(pay); err != nil {
		return false, fmt.Errorf("settlement: failed to store payment %s: %w", pay.ID, err)
	}

	if order.Status != model.OrderStatusAwaitingPayment {
		return false, nil
	}
	payments, err := tx.PaymentsByOrder(order.ID)
	if err != nil {
		return false, fmt.Errorf("settlement: failed to load payments for order %s: %w", order.ID, err)
	}
	failed := 0
	for _, p := range payments {
		if p.Status == model.PaymentStatusFailed {
			failed++
		}
	}
	if failed < c.cfg.MaxAttempts {
		return false, nil
	}

	if err := order.Cancel(); err != nil {
		return false, fmt.Errorf("settlement: %w", err)
	}
	if err := tx.PutOrder(order); err != nil {
		return false, fmt.Errorf("settlement: failed to cancel order %s: %w", order.ID, err)
	}
	return true, nil
}

// Notification is a provider callback about a payment reference
type Notification struct {
	Reference     string
	Status        payment.Status
	FailureReason string
}

// HandleNotification resolves the payment behind a provider reference and
// applies the reported outcome. Pending notifications are acknowledged
// without changes.
func (c *Coordinator) HandleNotification(ctx context.Context, n Notification) (model.Payment, error) {
	if n.Reference == "" {
		return model.Payment{}, fmt.Errorf("settlement: %w - missing reference", biddingerrors.ErrInvalidInput)
	}

	var pay model.Payment
	err := repository.Retry(ctx, c.store, c.retry, func(tx repository.LedgerTx) error {
		var err error
		pay, err = tx.PaymentByReference(n.Reference)
		if err != nil {
			return fmt.Errorf("settlement: failed to resolve reference %s: %w", n.Reference, err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}

	switch n.Status {
	case payment.StatusSucceeded:
		return c.CompletePayment(ctx, pay.ID, ProviderResult{Success: true, Reference: n.Reference})
	case payment.StatusFailed:
		return c.CompletePayment(ctx, pay.ID, ProviderResult{Reference: n.Reference, FailureReason: n.FailureReason})
	case payment.StatusPending:
		return pay, nil
	default:
		return model.Payment{}, fmt.Errorf("settlement: %w - unknown payment status %q", biddingerrors.ErrInvalidInput, n.Status)
	}
}

// CancelStaleOrder cancels an unpaid order created before cutoff that has no
// payment in flight. It reports whether the order was cancelled.
func (c *Coordinator) CancelStaleOrder(ctx context.Context, orderID string, cutoff time.Time) (bool, error) {
	var (
		order     model.Order
		cancelled bool
	)
	err := repository.Retry(ctx, c.store, c.retry, func(tx repository.LedgerTx) error {
		cancelled = false

		var err error
		order, err = tx.GetOrder(orderID)
		if err != nil {
			return fmt.Errorf("settlement: failed to load order %s: %w", orderID, err)
		}
		if order.Status != model.OrderStatusAwaitingPayment || order.CreatedAt.After(cutoff) {
			return nil
		}
		payments, err := tx.PaymentsByOrder(orderID)
		if err != nil {
			return fmt.Errorf("settlement: failed to load payments for order %s: %w", orderID, err)
		}
		for _, p := range payments {
			if p.IsActive() {
				return nil
			}
		}

		if err := order.Cancel(); err != nil {
			return fmt.Errorf("settlement: %w", err)
		}
		cancelled = true
		return tx.PutOrder(&order)
	})
	if err != nil || !cancelled {
		return false, err
	}

	e := events.New(events.OrderCancelled, order.ProductID, c.clock.Now())
	e.OrderID = order.ID
	events.Emit(ctx, c.publisher, e)
	return true, nil
}
