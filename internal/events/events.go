package events

import (
	"context"
	"time"

	"auction-market/utils"
)

// Type names a domain event
type Type string

const (
	BidPlaced        Type = "bid_placed"
	BidWithdrawn     Type = "bid_withdrawn"
	AuctionClosed    Type = "auction_closed"
	AuctionExpired   Type = "auction_expired"
	OrderCreated     Type = "order_created"
	OrderCancelled   Type = "order_cancelled"
	PaymentSucceeded Type = "payment_succeeded"
	PaymentFailed    Type = "payment_failed"
)

// Event describes a committed state change. It is published after the
// transaction that caused it and carries only identifiers and amounts.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ProductID  string    `json:"product_id"`
	BidID      string    `json:"bid_id,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	PaymentID  string    `json:"payment_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh id
func New(t Type, productID string, at time.Time) Event {
	return Event{
		ID:         utils.GenerateID(),
		Type:       t,
		ProductID:  productID,
		OccurredAt: at,
	}
}

// Publisher delivers events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Emit publishes events and logs a delivery failure. Committed state never
// depends on delivery.
func Emit(ctx context.Context, p Publisher, events ...Event) {
	if p == nil || len(events) == 0 {
		return
	}
	if err := p.Publish(ctx, events...); err != nil {
		utils.Warn("event publish failed", map[string]any{
			"event_type": string(events[0].Type),
			"product_id": events[0].ProductID,
			"count":      len(events),
			"error":      err.Error(),
		})
	}
}
