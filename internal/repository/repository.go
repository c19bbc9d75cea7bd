package repository

import (
	"context"
	"time"

	model "auction-market/internal/models"
)

// LedgerStore is the transactional storage for auction state. Every unit of
// work touching products, bids, orders and payments runs inside
// WithTransaction with serializable isolation.
type LedgerStore interface {
	// WithTransaction runs fn and commits its writes atomically. Any error
	// returned by fn aborts the transaction with no effect.
	WithTransaction(ctx context.Context, fn func(tx LedgerTx) error) error

	// DueProducts lists ACTIVE products whose auction end is at or before now,
	// ordered by (auction end, id) and strictly after the cursor. The result
	// is a snapshot and must be re-read in a transaction before acting on it.
	DueProducts(ctx context.Context, now time.Time, after DueCursor, limit int) ([]model.Product, error)
}

// DueCursor is a position in the (auction end, id) order of due products.
// The zero value starts at the beginning.
type DueCursor struct {
	EndAt time.Time
	ID    string
}

// CursorAt returns the position of p
func CursorAt(p model.Product) DueCursor {
	return DueCursor{EndAt: p.AuctionEndAt, ID: p.ID}
}

// IsZero reports whether the cursor is at the beginning
func (c DueCursor) IsZero() bool {
	return c.EndAt.IsZero() && c.ID == ""
}

// Precedes reports whether p comes after the cursor
func (c DueCursor) Precedes(p model.Product) bool {
	if c.IsZero() {
		return true
	}
	if !p.AuctionEndAt.Equal(c.EndAt) {
		return p.AuctionEndAt.After(c.EndAt)
	}
	return p.ID > c.ID
}

// LedgerTx is the view of the store inside a single transaction
type LedgerTx interface {
	GetProduct(id string) (model.Product, error)
	GetBid(id string) (model.Bid, error)
	GetOrder(id string) (model.Order, error)
	GetPayment(id string) (model.Payment, error)

	BidsByProduct(productID string) ([]model.Bid, error)
	BidsByBidder(bidderID string) ([]model.Bid, error)
	OrderByBid(bidID string) (model.Order, error)
	OrdersBySeller(sellerID string) ([]model.Order, error)
	OrdersByBuyer(buyerID string) ([]model.Order, error)
	OrdersByStatus(status model.OrderStatus) ([]model.Order, error)
	PaymentsByOrder(orderID string) ([]model.Payment, error)
	PaymentByReference(reference string) (model.Payment, error)
	ProductsByStatus(status model.ProductStatus) ([]model.Product, error)

	// Put methods insert when Version is zero and otherwise compare-and-swap
	// on Version. On success the passed entity carries its new Version.
	PutProduct(p *model.Product) error
	PutBid(b *model.Bid) error
	PutOrder(o *model.Order) error
	PutPayment(p *model.Payment) error

	// DeleteProduct removes a listing that has no bids
	DeleteProduct(id string) error
}
