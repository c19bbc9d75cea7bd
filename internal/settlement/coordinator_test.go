package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-market/internal/biddingerrors"
	"auction-market/internal/clock"
	"auction-market/internal/events"
	model "auction-market/internal/models"
	"auction-market/internal/payment"
	"auction-market/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	end   = start.Add(time.Hour)
)

func testPolicy() repository.RetryPolicy {
	return repository.RetryPolicy{MaxRetries: 50, InitialInterval: time.Microsecond, MaxInterval: time.Millisecond}
}

// seedClosedAuction stores a CLOSED product whose winning bid was accepted
// but has no order yet
func seedClosedAuction(t *testing.T, repo *repository.MemoryRepo, productID, bidID, buyer string, amount int64) {
	t.Helper()
	repo.AddProduct(model.Product{
		ID:            productID,
		SellerID:      "seller1",
		Title:         "title " + productID,
		StartingPrice: decimal.NewFromInt(100),
		MinIncrement:  decimal.NewFromInt(5),
		AuctionEndAt:  end,
		Status:        model.ProductStatusClosed,
		AcceptedBidID: bidID,
		CreatedAt:     start,
	})
	require.NoError(t, repo.WithTransaction(context.Background(), func(tx repository.LedgerTx) error {
		b := model.Bid{
			ID:        bidID,
			ProductID: productID,
			BidderID:  buyer,
			Amount:    decimal.NewFromInt(amount),
			Status:    model.BidStatusAccepted,
			CreatedAt: start,
		}
		return tx.PutBid(&b)
	}))
}

func newTestCoordinator(repo *repository.MemoryRepo, clk clock.Clock, provider payment.Provider, maxAttempts int) *Coordinator {
	return NewCoordinator(repo, clk, provider, events.NewLogPublisher(), testPolicy(), Config{
		MaxAttempts:    maxAttempts,
		Currency:       "USD",
		PaymentTimeout: 48 * time.Hour,
	})
}

func loadState(t *testing.T, repo *repository.MemoryRepo, orderID string) (model.Order, model.Product, []model.Payment) {
	t.Helper()
	var (
		order    model.Order
		product  model.Product
		payments []model.Payment
	)
	require.NoError(t, repo.WithTransaction(context.Background(), func(tx repository.LedgerTx) error {
		var err error
		if order, err = tx.GetOrder(orderID); err != nil {
			return err
		}
		if product, err = tx.GetProduct(order.ProductID); err != nil {
			return err
		}
		payments, err = tx.PaymentsByOrder(orderID)
		return err
	}))
	return order, product, payments
}

func TestCreateOrderForAcceptedBid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	c := newTestCoordinator(repo, clock.NewFake(end), payment.NewStubProvider(false), 3)

	order, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "u1", order.BuyerID)
	require.Equal(t, "seller1", order.SellerID)
	require.Equal(t, "p1", order.ProductID)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(110)))
	require.Equal(t, model.OrderStatusAwaitingPayment, order.Status)

	again, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.ErrorIs(t, err, biddingerrors.ErrDuplicateSettlement)
	require.Equal(t, order.ID, again.ID)
}

func TestCreateOrderTx_Rejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	c := newTestCoordinator(repo, clock.NewFake(end), payment.NewStubProvider(false), 3)

	require.NoError(t, repo.WithTransaction(ctx, func(tx repository.LedgerTx) error {
		b := model.Bid{ID: "b-pending", ProductID: "p1", BidderID: "u2", Amount: decimal.NewFromInt(105), Status: model.BidStatusPending, CreatedAt: start}
		if err := tx.PutBid(&b); err != nil {
			return err
		}
		stray := model.Bid{ID: "b-stray", ProductID: "p1", BidderID: "u3", Amount: decimal.NewFromInt(105), Status: model.BidStatusAccepted, CreatedAt: start}
		return tx.PutBid(&stray)
	}))

	tests := []struct {
		name          string
		bidID         string
		expectedError error
	}{
		{name: "pending_bid", bidID: "b-pending", expectedError: biddingerrors.ErrInvalidTransition},
		{name: "not_the_products_accepted_bid", bidID: "b-stray", expectedError: biddingerrors.ErrInvariantViolated},
		{name: "unknown_bid", bidID: "nope", expectedError: biddingerrors.ErrNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.CreateOrderForAcceptedBid(ctx, tc.bidID)
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

func TestCreateOrder_ConcurrentCallersCreateOneOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	c := newTestCoordinator(repo, clock.NewFake(end), payment.NewStubProvider(false), 3)

	const callers = 16
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		dupes  int
		others []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CreateOrderForAcceptedBid(ctx, "b1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, biddingerrors.ErrDuplicateSettlement):
				dupes++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	require.Equal(t, 1, ok)
	require.Equal(t, callers-1, dupes)

	require.NoError(t, repo.WithTransaction(ctx, func(tx repository.LedgerTx) error {
		orders, err := tx.OrdersByBuyer("u1")
		require.NoError(t, err)
		require.Len(t, orders, 1)
		return nil
	}))
}

func TestInitiatePayment_FailureThenSuccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	provider := payment.NewMockProvider(ctrl)
	provider.EXPECT().Name().Return("MOCK").AnyTimes()
	c := newTestCoordinator(repo, clock.NewFake(end), provider, 3)

	order, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)

	gomock.InOrder(
		provider.EXPECT().InitiatePayment(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("gateway timeout")),
		provider.EXPECT().InitiatePayment(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.PaymentRequest) (*payment.PaymentResponse, error) {
				require.Equal(t, order.ID, req.OrderID)
				require.Equal(t, req.PaymentID, req.IdempotencyKey)
				require.True(t, req.Amount.Equal(decimal.NewFromInt(110)))
				require.Equal(t, "USD", req.Currency)
				return &payment.PaymentResponse{Reference: "ref-2", Status: payment.StatusSucceeded}, nil
			}),
	)

	failed, err := c.InitiatePayment(ctx, order.ID, "u1")
	require.ErrorIs(t, err, biddingerrors.ErrProviderFailure)
	require.Equal(t, model.PaymentStatusFailed, failed.Status)

	stored, product, _ := loadState(t, repo, order.ID)
	require.Equal(t, model.OrderStatusAwaitingPayment, stored.Status)
	require.Equal(t, model.ProductStatusClosed, product.Status)

	paid, err := c.InitiatePayment(ctx, order.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusSuccess, paid.Status)
	require.Equal(t, "ref-2", paid.Reference)
	require.NotNil(t, paid.PaidAt)

	stored, product, payments := loadState(t, repo, order.ID)
	require.Equal(t, model.OrderStatusPaid, stored.Status)
	require.Equal(t, model.ProductStatusSold, product.Status)
	require.Len(t, payments, 2)

	_, err = c.InitiatePayment(ctx, order.ID, "u1")
	require.ErrorIs(t, err, biddingerrors.ErrOrderNotPayable)
}

func TestInitiatePayment_CancelsAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	provider := payment.NewMockProvider(ctrl)
	provider.EXPECT().Name().Return("MOCK").AnyTimes()
	provider.EXPECT().InitiatePayment(gomock.Any(), gomock.Any()).
		Return(&payment.PaymentResponse{Reference: "ref", Status: payment.StatusFailed, FailureReason: "card declined"}, nil).
		Times(2)

	var published []events.Type
	publisher := events.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, evts ...events.Event) error {
		for _, e := range evts {
			published = append(published, e.Type)
		}
		return nil
	}).AnyTimes()

	c := NewCoordinator(repo, clock.NewFake(end), provider, publisher, testPolicy(), Config{MaxAttempts: 2})
	order, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)

	first, err := c.InitiatePayment(ctx, order.ID, "u1")
	require.ErrorIs(t, err, biddingerrors.ErrProviderFailure)
	require.Equal(t, "card declined", first.FailureReason)

	_, err = c.InitiatePayment(ctx, order.ID, "u1")
	require.ErrorIs(t, err, biddingerrors.ErrProviderFailure)

	require.Equal(t, []events.Type{
		events.OrderCreated,
		events.PaymentFailed,
		events.PaymentFailed, events.OrderCancelled,
	}, published)

	stored, product, _ := loadState(t, repo, order.ID)
	require.Equal(t, model.OrderStatusCancelled, stored.Status)
	require.Equal(t, model.ProductStatusClosed, product.Status)

	_, err = c.InitiatePayment(ctx, order.ID, "u1")
	require.ErrorIs(t, err, biddingerrors.ErrOrderNotPayable)
}

func TestInitiatePayment_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	c := newTestCoordinator(repo, clock.NewFake(end), payment.NewStubProvider(false), 3)

	order, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)

	_, err = c.InitiatePayment(ctx, order.ID, "u2")
	require.ErrorIs(t, err, biddingerrors.ErrNotOwner)

	_, err = c.InitiatePayment(ctx, "missing", "u1")
	require.ErrorIs(t, err, biddingerrors.ErrNotFound)

	_, err = c.InitiatePayment(ctx, "", "u1")
	require.ErrorIs(t, err, biddingerrors.ErrInvalidInput)

	pending, err := c.InitiatePayment(ctx, order.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusInitiated, pending.Status)
	require.NotEmpty(t, pending.Reference)

	_, err = c.InitiatePayment(ctx, order.ID, "u1")
	require.ErrorIs(t, err, biddingerrors.ErrPaymentInProgress)
}

func TestHandleNotification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	c := newTestCoordinator(repo, clock.NewFake(end), payment.NewStubProvider(false), 3)

	order, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)
	pending, err := c.InitiatePayment(ctx, order.ID, "u1")
	require.NoError(t, err)

	same, err := c.HandleNotification(ctx, Notification{Reference: pending.Reference, Status: payment.StatusPending})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusInitiated, same.Status)

	paid, err := c.HandleNotification(ctx, Notification{Reference: pending.Reference, Status: payment.StatusSucceeded})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusSuccess, paid.Status)

	// duplicate delivery is a no-op
	again, err := c.HandleNotification(ctx, Notification{Reference: pending.Reference, Status: payment.StatusSucceeded})
	require.NoError(t, err)
	require.Equal(t, paid.Version, again.Version)

	_, err = c.HandleNotification(ctx, Notification{Reference: pending.Reference, Status: payment.StatusFailed})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidTransition)

	_, err = c.HandleNotification(ctx, Notification{Reference: "unknown", Status: payment.StatusSucceeded})
	require.ErrorIs(t, err, biddingerrors.ErrNotFound)

	_, err = c.HandleNotification(ctx, Notification{Reference: pending.Reference, Status: "REFUNDED"})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidInput)

	stored, product, _ := loadState(t, repo, order.ID)
	require.Equal(t, model.OrderStatusPaid, stored.Status)
	require.Equal(t, model.ProductStatusSold, product.Status)
}

func TestCompletePayment_LateSuccessAfterFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	c := newTestCoordinator(repo, clock.NewFake(end), payment.NewStubProvider(false), 3)

	order, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)
	pending, err := c.InitiatePayment(ctx, order.ID, "u1")
	require.NoError(t, err)

	_, err = c.CompletePayment(ctx, pending.ID, ProviderResult{FailureReason: "expired"})
	require.NoError(t, err)

	_, err = c.CompletePayment(ctx, pending.ID, ProviderResult{Success: true})
	require.ErrorIs(t, err, biddingerrors.ErrInvalidTransition)

	stored, _, _ := loadState(t, repo, order.ID)
	require.Equal(t, model.OrderStatusAwaitingPayment, stored.Status)
}

func TestCancelStaleOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seedClosedAuction(t, repo, "p1", "b1", "u1", 110)
	seedClosedAuction(t, repo, "p2", "b2", "u1", 110)
	clk := clock.NewFake(end)
	c := newTestCoordinator(repo, clk, payment.NewStubProvider(false), 3)

	idle, err := c.CreateOrderForAcceptedBid(ctx, "b1")
	require.NoError(t, err)
	busy, err := c.CreateOrderForAcceptedBid(ctx, "b2")
	require.NoError(t, err)
	_, err = c.InitiatePayment(ctx, busy.ID, "u1")
	require.NoError(t, err)

	cancelled, err := c.CancelStaleOrder(ctx, idle.ID, end.Add(-time.Minute))
	require.NoError(t, err)
	require.False(t, cancelled, "order is newer than the cutoff")

	cancelled, err = c.CancelStaleOrder(ctx, idle.ID, end.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, cancelled)

	cancelled, err = c.CancelStaleOrder(ctx, busy.ID, end.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, cancelled, "payment in flight")

	stored, _, _ := loadState(t, repo, idle.ID)
	require.Equal(t, model.OrderStatusCancelled, stored.Status)
}
