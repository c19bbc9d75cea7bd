package models

import (
	"fmt"
	"time"

	"auction-market/internal/biddingerrors"
)

// ProductStatus is the lifecycle state of a listing
type ProductStatus string

const (
	ProductStatusActive  ProductStatus = "ACTIVE"
	ProductStatusClosed  ProductStatus = "CLOSED"
	ProductStatusSold    ProductStatus = "SOLD"
	ProductStatusExpired ProductStatus = "EXPIRED"
)

// BidStatus is the lifecycle state of a bid
type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusOutbid    BidStatus = "OUTBID"
	BidStatusWithdrawn BidStatus = "WITHDRAWN"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// PaymentStatus is the lifecycle state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

var productTransitions = map[ProductStatus][]ProductStatus{
	ProductStatusActive: {ProductStatusClosed, ProductStatusExpired},
	ProductStatusClosed: {ProductStatusSold},
}

var bidTransitions = map[BidStatus][]BidStatus{
	BidStatusPending: {BidStatusAccepted, BidStatusRejected, BidStatusOutbid, BidStatusWithdrawn},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingPayment: {OrderStatusPaid, OrderStatusCancelled},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusInitiated: {PaymentStatusSuccess, PaymentStatusFailed},
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the product may move to the given status
func (s ProductStatus) CanTransitionTo(to ProductStatus) bool { return allowed(productTransitions, s, to) }

// CanTransitionTo reports whether the bid may move to the given status
func (s BidStatus) CanTransitionTo(to BidStatus) bool { return allowed(bidTransitions, s, to) }

// CanTransitionTo reports whether the order may move to the given status
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool { return allowed(orderTransitions, s, to) }

// CanTransitionTo reports whether the payment may move to the given status
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool { return allowed(paymentTransitions, s, to) }

func transitionErr(entity, id string, from, to any) error {
	return fmt.Errorf("%s %s: %w - %v -> %v", entity, id, biddingerrors.ErrInvalidTransition, from, to)
}

func (p *Product) moveTo(to ProductStatus) error {
	if !p.Status.CanTransitionTo(to) {
		return transitionErr("product", p.ID, p.Status, to)
	}
	p.Status = to
	return nil
}

// Close ends an auction with a winning bid
func (p *Product) Close(acceptedBidID string) error {
	if acceptedBidID == "" {
		return fmt.Errorf("product %s: %w - empty accepted bid", p.ID, biddingerrors.ErrInvalidTransition)
	}
	if err := p.moveTo(ProductStatusClosed); err != nil {
		return err
	}
	p.AcceptedBidID = acceptedBidID
	return nil
}

// Expire ends an auction that received no eligible bids
func (p *Product) Expire() error {
	return p.moveTo(ProductStatusExpired)
}

// MarkSold records that the winning order has been paid
func (p *Product) MarkSold() error {
	return p.moveTo(ProductStatusSold)
}

// IsOpenAt reports whether bids are still allowed at the given instant
func (p Product) IsOpenAt(now time.Time) bool {
	return p.Status == ProductStatusActive && p.AuctionEndAt.After(now)
}

// IsDueAt reports whether the closer should process the product
func (p Product) IsDueAt(now time.Time) bool {
	return p.Status == ProductStatusActive && !p.AuctionEndAt.After(now)
}

func (b *Bid) moveTo(to BidStatus) error {
	if !b.Status.CanTransitionTo(to) {
		return transitionErr("bid", b.ID, b.Status, to)
	}
	b.Status = to
	return nil
}

func (b *Bid) Accept() error   { return b.moveTo(BidStatusAccepted) }
func (b *Bid) Reject() error   { return b.moveTo(BidStatusRejected) }
func (b *Bid) Outbid() error   { return b.moveTo(BidStatusOutbid) }
func (b *Bid) Withdraw() error { return b.moveTo(BidStatusWithdrawn) }

// IsLive reports whether the bid competes for the leader position
func (b Bid) IsLive() bool {
	return b.Status == BidStatusPending || b.Status == BidStatusAccepted
}

func (o *Order) moveTo(to OrderStatus) error {
	if !o.Status.CanTransitionTo(to) {
		return transitionErr("order", o.ID, o.Status, to)
	}
	o.Status = to
	return nil
}

func (o *Order) MarkPaid() error { return o.moveTo(OrderStatusPaid) }
func (o *Order) Cancel() error   { return o.moveTo(OrderStatusCancelled) }

func (p *Payment) moveTo(to PaymentStatus) error {
	if !p.Status.CanTransitionTo(to) {
		return transitionErr("payment", p.ID, p.Status, to)
	}
	p.Status = to
	p.SyncActiveOrder()
	return nil
}

// Succeed marks the payment as settled at the given time
func (p *Payment) Succeed(at time.Time) error {
	if err := p.moveTo(PaymentStatusSuccess); err != nil {
		return err
	}
	paid := at
	p.PaidAt = &paid
	return nil
}

// Fail marks the payment as failed and releases the order for a retry
func (p *Payment) Fail(reason string) error {
	if err := p.moveTo(PaymentStatusFailed); err != nil {
		return err
	}
	p.FailureReason = reason
	return nil
}
