package query

import (
	"context"
	"fmt"
	"sort"

	model "auction-market/internal/models"
	"auction-market/internal/repository"
	"auction-market/utils"
)

// ProductDetail is a listing with its live auction state
type ProductDetail struct {
	Product  model.Product `json:"product"`
	HighBid  *model.Bid    `json:"high_bid,omitempty"`
	BidCount int           `json:"bid_count"`
	Category *Category     `json:"category,omitempty"`
	Images   []Image       `json:"images"`
}

// BidHistoryEntry is one of a bidder's bids with its product summary
type BidHistoryEntry struct {
	Bid           model.Bid           `json:"bid"`
	ProductTitle  string              `json:"product_title"`
	ProductStatus model.ProductStatus `json:"product_status"`
}

// OrderView is an order with its most recent payment attempt
type OrderView struct {
	Order         model.Order    `json:"order"`
	ProductTitle  string         `json:"product_title"`
	LatestPayment *model.Payment `json:"latest_payment,omitempty"`
}

// Facade serves read-only projections. Every projection is read inside one
// transaction so it never mixes states from before and after a commit.
type Facade struct {
	store   repository.LedgerStore
	catalog Catalog
	retry   repository.RetryPolicy
}

func NewFacade(store repository.LedgerStore, catalog Catalog, retry repository.RetryPolicy) *Facade {
	return &Facade{store: store, catalog: catalog, retry: retry}
}

// ProductDetail returns the listing, its current high bid and catalog data
func (f *Facade) ProductDetail(ctx context.Context, productID string) (ProductDetail, error) {
	var detail ProductDetail
	err := repository.Retry(ctx, f.store, f.retry, func(tx repository.LedgerTx) error {
		product, err := tx.GetProduct(productID)
		if err != nil {
			return fmt.Errorf("query: failed to load product %s: %w", productID, err)
		}
		bids, err := tx.BidsByProduct(productID)
		if err != nil {
			return fmt.Errorf("query: failed to load bids for product %s: %w", productID, err)
		}

		detail = ProductDetail{Product: product, BidCount: len(bids)}
		if leader, ok := model.LeaderBid(bids, ""); ok {
			detail.HighBid = &leader
		}
		return nil
	})
	if err != nil {
		return ProductDetail{}, err
	}

	f.attachCatalog(ctx, &detail)
	return detail, nil
}

func (f *Facade) attachCatalog(ctx context.Context, detail *ProductDetail) {
	detail.Images = []Image{}
	if f.catalog == nil {
		return
	}
	if detail.Product.CategoryID != "" {
		c, ok, err := f.catalog.Category(ctx, detail.Product.CategoryID)
		if err != nil {
			utils.Warn("query: catalog category lookup failed", map[string]any{
				"product_id": detail.Product.ID, "error": err.Error(),
			})
		} else if ok {
			detail.Category = &c
		}
	}
	imgs, err := f.catalog.Images(ctx, detail.Product.ID)
	if err != nil {
		utils.Warn("query: catalog image lookup failed", map[string]any{
			"product_id": detail.Product.ID, "error": err.Error(),
		})
		return
	}
	detail.Images = imgs
}

// BidderHistory lists a bidder's bids, newest first
func (f *Facade) BidderHistory(ctx context.Context, bidderID string) ([]BidHistoryEntry, error) {
	var entries []BidHistoryEntry
	err := repository.Retry(ctx, f.store, f.retry, func(tx repository.LedgerTx) error {
		bids, err := tx.BidsByBidder(bidderID)
		if err != nil {
			return fmt.Errorf("query: failed to load bids for bidder %s: %w", bidderID, err)
		}

		entries = make([]BidHistoryEntry, 0, len(bids))
		products := make(map[string]model.Product)
		for _, b := range bids {
			p, ok := products[b.ProductID]
			if !ok {
				p, err = tx.GetProduct(b.ProductID)
				if err != nil {
					return fmt.Errorf("query: failed to load product %s: %w", b.ProductID, err)
				}
				products[b.ProductID] = p
			}
			entries = append(entries, BidHistoryEntry{Bid: b, ProductTitle: p.Title, ProductStatus: p.Status})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Bid.CreatedAt.After(entries[j].Bid.CreatedAt)
	})
	return entries, nil
}

// SellerOrders lists orders for the seller's products, newest first
func (f *Facade) SellerOrders(ctx context.Context, sellerID string) ([]OrderView, error) {
	return f.orderViews(ctx, func(tx repository.LedgerTx) ([]model.Order, error) {
		return tx.OrdersBySeller(sellerID)
	})
}

// BuyerOrders lists orders won by the buyer, newest first
func (f *Facade) BuyerOrders(ctx context.Context, buyerID string) ([]OrderView, error) {
	return f.orderViews(ctx, func(tx repository.LedgerTx) ([]model.Order, error) {
		return tx.OrdersByBuyer(buyerID)
	})
}

func (f *Facade) orderViews(ctx context.Context, list func(repository.LedgerTx) ([]model.Order, error)) ([]OrderView, error) {
	var views []OrderView
	err := repository.Retry(ctx, f.store, f.retry, func(tx repository.LedgerTx) error {
		orders, err := list(tx)
		if err != nil {
			return fmt.Errorf("query: failed to load orders: %w", err)
		}

		views = make([]OrderView, 0, len(orders))
		for _, o := range orders {
			view := OrderView{Order: o}
			if p, err := tx.GetProduct(o.ProductID); err == nil {
				view.ProductTitle = p.Title
			}
			payments, err := tx.PaymentsByOrder(o.ID)
			if err != nil {
				return fmt.Errorf("query: failed to load payments for order %s: %w", o.ID, err)
			}
			if n := len(payments); n > 0 {
				latest := payments[n-1]
				view.LatestPayment = &latest
			}
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Order.CreatedAt.After(views[j].Order.CreatedAt)
	})
	return views, nil
}
