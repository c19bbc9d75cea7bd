package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits stored for amounts
const MoneyPlaces = 2

// Product represents a seller-owned auction listing
type Product struct {
	ID            string          `gorm:"type:char(36);primaryKey" json:"id"`
	SellerID      string          `gorm:"type:char(36);not null;index" json:"seller_id"`
	CategoryID    string          `gorm:"type:char(36);not null;index" json:"category_id"`
	Title         string          `gorm:"size:255;not null;index" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	StartingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"starting_price"`
	MinIncrement  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"min_increment"`
	AuctionEndAt  time.Time       `gorm:"not null;index;index:ix_products_status_auction_end,priority:2" json:"auction_end_at"`
	Status        ProductStatus   `gorm:"size:16;not null;index;index:ix_products_status_auction_end,priority:1" json:"status"`
	AcceptedBidID string          `gorm:"type:char(36)" json:"accepted_bid_id,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	Version       int64           `gorm:"not null;default:0" json:"-"`
}

func (Product) TableName() string { return "products" }

// Bid represents a buyer's offer on a product
type Bid struct {
	ID        string          `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID string          `gorm:"type:char(36);not null;index;index:ix_bids_product_amount,priority:1;index:ix_bids_product_bidder_created,priority:1" json:"product_id"`
	BidderID  string          `gorm:"type:char(36);not null;index;index:ix_bids_product_bidder_created,priority:2" json:"bidder_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null;index:ix_bids_product_amount,priority:2" json:"amount"`
	Status    BidStatus       `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time       `gorm:"not null;index:ix_bids_product_bidder_created,priority:3" json:"created_at"`
	Version   int64           `gorm:"not null;default:0" json:"-"`
}

func (Bid) TableName() string { return "bids" }

// Order is created from exactly one accepted bid
type Order struct {
	ID          string          `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID   string          `gorm:"type:char(36);not null;index" json:"product_id"`
	BuyerID     string          `gorm:"type:char(36);not null;index" json:"buyer_id"`
	SellerID    string          `gorm:"type:char(36);not null;index" json:"seller_id"`
	BidID       string          `gorm:"type:char(36);not null;uniqueIndex" json:"bid_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      OrderStatus     `gorm:"size:24;not null;index" json:"status"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	Version     int64           `gorm:"not null;default:0" json:"-"`
}

func (Order) TableName() string { return "orders" }

// Payment is one settlement attempt for an order
type Payment struct {
	ID            string        `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID       string        `gorm:"type:char(36);not null;index" json:"order_id"`
	Provider      string        `gorm:"size:50;not null" json:"provider"`
	Reference     string        `gorm:"size:255;index" json:"reference,omitempty"`
	Status        PaymentStatus `gorm:"size:16;not null" json:"status"`
	FailureReason string        `gorm:"size:255" json:"failure_reason,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	Version       int64         `gorm:"not null;default:0" json:"-"`

	// ActiveOrderID mirrors OrderID while the payment is not FAILED so a
	// unique index allows a single live attempt per order.
	ActiveOrderID *string `gorm:"type:char(36);uniqueIndex" json:"-"`
}

func (Payment) TableName() string { return "payments" }

// IsActive reports whether the payment still blocks new attempts for its order
func (p Payment) IsActive() bool {
	return p.Status != PaymentStatusFailed
}

// SyncActiveOrder refreshes ActiveOrderID from the current status
func (p *Payment) SyncActiveOrder() {
	if p.IsActive() {
		id := p.OrderID
		p.ActiveOrderID = &id
		return
	}
	p.ActiveOrderID = nil
}
