package events

import (
	"context"

	"auction-market/utils"
)

// LogPublisher writes events to the application log
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

func (LogPublisher) Publish(_ context.Context, events ...Event) error {
	for _, e := range events {
		fields := map[string]any{
			"event_id":   e.ID,
			"event_type": string(e.Type),
			"product_id": e.ProductID,
		}
		if e.BidID != "" {
			fields["bid_id"] = e.BidID
		}
		if e.OrderID != "" {
			fields["order_id"] = e.OrderID
		}
		if e.PaymentID != "" {
			fields["payment_id"] = e.PaymentID
		}
		if e.Amount != "" {
			fields["amount"] = e.Amount
		}
		utils.Info("domain event", fields)
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
