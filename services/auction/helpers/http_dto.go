package helpers

import (
	"time"

	model "auction-market/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type CreateListingRequest struct {
	CategoryID    string          `json:"category_id"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	MinIncrement  decimal.Decimal `json:"min_increment"`
	AuctionEndAt  time.Time       `json:"auction_end_at" binding:"required"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type PaymentNotificationRequest struct {
	Reference     string `json:"reference" binding:"required"`
	Status        string `json:"status" binding:"required,oneof=PENDING SUCCEEDED FAILED"`
	FailureReason string `json:"failure_reason"`
}

type ProductResponse struct {
	ProductID     string `json:"product_id"`
	SellerID      string `json:"seller_id"`
	CategoryID    string `json:"category_id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	StartingPrice string `json:"starting_price"`
	MinIncrement  string `json:"min_increment"`
	AuctionEndAt  string `json:"auction_end_at"`
	Status        string `json:"status"`
	AcceptedBidID string `json:"accepted_bid_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	ProductID string `json:"product_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type OrderResponse struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	BuyerID     string `json:"buyer_id"`
	SellerID    string `json:"seller_id"`
	BidID       string `json:"bid_id"`
	TotalAmount string `json:"total_amount"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type PaymentResponse struct {
	PaymentID     string `json:"payment_id"`
	OrderID       string `json:"order_id"`
	Provider      string `json:"provider"`
	Reference     string `json:"reference,omitempty"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(model.MoneyPlaces)
}

func NewProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ProductID:     p.ID,
		SellerID:      p.SellerID,
		CategoryID:    p.CategoryID,
		Title:         p.Title,
		Description:   p.Description,
		StartingPrice: money(p.StartingPrice),
		MinIncrement:  money(p.MinIncrement),
		AuctionEndAt:  formatTime(p.AuctionEndAt),
		Status:        string(p.Status),
		AcceptedBidID: p.AcceptedBidID,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID,
		ProductID: b.ProductID,
		BidderID:  b.BidderID,
		Amount:    money(b.Amount),
		Status:    string(b.Status),
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func NewOrderResponse(o model.Order) OrderResponse {
	return OrderResponse{
		OrderID:     o.ID,
		ProductID:   o.ProductID,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		BidID:       o.BidID,
		TotalAmount: money(o.TotalAmount),
		Status:      string(o.Status),
		CreatedAt:   formatTime(o.CreatedAt),
	}
}

func NewPaymentResponse(p model.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Provider:      p.Provider,
		Reference:     p.Reference,
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		CreatedAt:     formatTime(p.CreatedAt),
	}
	if p.PaidAt != nil {
		resp.PaidAt = formatTime(*p.PaidAt)
	}
	return resp
}

type ProductDetailResponse struct {
	Product  ProductResponse `json:"product"`
	HighBid  *BidResponse    `json:"high_bid,omitempty"`
	BidCount int             `json:"bid_count"`
	Category any             `json:"category,omitempty"`
	Images   any             `json:"images"`
}

type BidHistoryResponse struct {
	BidResponse
	ProductTitle  string `json:"product_title"`
	ProductStatus string `json:"product_status"`
}

type OrderViewResponse struct {
	OrderResponse
	ProductTitle  string           `json:"product_title,omitempty"`
	LatestPayment *PaymentResponse `json:"latest_payment,omitempty"`
}
