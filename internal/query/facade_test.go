package query

import (
	"context"
	"testing"
	"time"

	"auction-market/internal/biddingerrors"
	model "auction-market/internal/models"
	"auction-market/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) *repository.MemoryRepo {
	t.Helper()
	repo := repository.NewMemoryRepo()
	for _, id := range []string{"p1", "p2"} {
		repo.AddProduct(model.Product{
			ID:            id,
			SellerID:      "seller1",
			CategoryID:    "cat-art",
			Title:         "title " + id,
			StartingPrice: decimal.NewFromInt(100),
			MinIncrement:  decimal.NewFromInt(5),
			AuctionEndAt:  start.Add(time.Hour),
			Status:        model.ProductStatusActive,
			CreatedAt:     start,
		})
	}

	require.NoError(t, repo.WithTransaction(context.Background(), func(tx repository.LedgerTx) error {
		bids := []model.Bid{
			{ID: "b1", ProductID: "p1", BidderID: "u1", Amount: decimal.NewFromInt(105), Status: model.BidStatusOutbid, CreatedAt: start.Add(time.Minute)},
			{ID: "b2", ProductID: "p1", BidderID: "u2", Amount: decimal.NewFromInt(110), Status: model.BidStatusPending, CreatedAt: start.Add(2 * time.Minute)},
			{ID: "b3", ProductID: "p2", BidderID: "u1", Amount: decimal.NewFromInt(120), Status: model.BidStatusAccepted, CreatedAt: start.Add(3 * time.Minute)},
		}
		for i := range bids {
			if err := tx.PutBid(&bids[i]); err != nil {
				return err
			}
		}

		orders := []model.Order{
			{ID: "o-old", ProductID: "p2", BuyerID: "u1", SellerID: "seller1", BidID: "b3", TotalAmount: decimal.NewFromInt(120),
				Status: model.OrderStatusAwaitingPayment, CreatedAt: start.Add(time.Hour)},
			{ID: "o-new", ProductID: "p1", BuyerID: "u1", SellerID: "seller1", BidID: "bx", TotalAmount: decimal.NewFromInt(90),
				Status: model.OrderStatusAwaitingPayment, CreatedAt: start.Add(2 * time.Hour)},
		}
		for i := range orders {
			if err := tx.PutOrder(&orders[i]); err != nil {
				return err
			}
		}

		failed := model.Payment{ID: "pay1", OrderID: "o-old", Provider: "MOCK", Status: model.PaymentStatusFailed,
			FailureReason: "declined", CreatedAt: start.Add(61 * time.Minute)}
		if err := tx.PutPayment(&failed); err != nil {
			return err
		}
		retry := model.Payment{ID: "pay2", OrderID: "o-old", Provider: "MOCK", Status: model.PaymentStatusInitiated,
			CreatedAt: start.Add(62 * time.Minute)}
		return tx.PutPayment(&retry)
	}))
	return repo
}

func TestFacade_ProductDetail(t *testing.T) {
	t.Parallel()
	catalog := NewStaticCatalog()
	catalog.AddCategory(Category{ID: "cat-art", Name: "Art"})
	catalog.AddImage("p1", Image{ID: "img2", URL: "https://cdn.example/2.jpg", Position: 2})
	catalog.AddImage("p1", Image{ID: "img1", URL: "https://cdn.example/1.jpg", Position: 1})

	f := NewFacade(seed(t), catalog, repository.DefaultRetryPolicy())

	detail, err := f.ProductDetail(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 2, detail.BidCount)
	require.NotNil(t, detail.HighBid)
	require.Equal(t, "b2", detail.HighBid.ID)
	require.NotNil(t, detail.Category)
	require.Equal(t, "Art", detail.Category.Name)
	require.Len(t, detail.Images, 2)
	require.Equal(t, "img1", detail.Images[0].ID)

	_, err = f.ProductDetail(context.Background(), "missing")
	require.ErrorIs(t, err, biddingerrors.ErrNotFound)
}

func TestFacade_ProductDetailWithoutCatalog(t *testing.T) {
	t.Parallel()
	f := NewFacade(seed(t), nil, repository.DefaultRetryPolicy())

	detail, err := f.ProductDetail(context.Background(), "p2")
	require.NoError(t, err)
	require.Nil(t, detail.Category)
	require.NotNil(t, detail.Images)
	require.Empty(t, detail.Images)
	require.Equal(t, "b3", detail.HighBid.ID)
}

func TestFacade_BidderHistory(t *testing.T) {
	t.Parallel()
	f := NewFacade(seed(t), NewStaticCatalog(), repository.DefaultRetryPolicy())

	entries, err := f.BidderHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "b3", entries[0].Bid.ID)
	require.Equal(t, "title p2", entries[0].ProductTitle)
	require.Equal(t, "b1", entries[1].Bid.ID)
	require.Equal(t, model.ProductStatusActive, entries[1].ProductStatus)

	none, err := f.BidderHistory(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestFacade_Orders(t *testing.T) {
	t.Parallel()
	f := NewFacade(seed(t), NewStaticCatalog(), repository.DefaultRetryPolicy())

	tests := []struct {
		name string
		list func(ctx context.Context) ([]OrderView, error)
	}{
		{name: "buyer", list: func(ctx context.Context) ([]OrderView, error) { return f.BuyerOrders(ctx, "u1") }},
		{name: "seller", list: func(ctx context.Context) ([]OrderView, error) { return f.SellerOrders(ctx, "seller1") }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			views, err := tc.list(context.Background())
			require.NoError(t, err)
			require.Len(t, views, 2)

			require.Equal(t, "o-new", views[0].Order.ID)
			require.Nil(t, views[0].LatestPayment)
			require.Equal(t, "title p1", views[0].ProductTitle)

			require.Equal(t, "o-old", views[1].Order.ID)
			require.NotNil(t, views[1].LatestPayment)
			require.Equal(t, "pay2", views[1].LatestPayment.ID)
		})
	}
}
