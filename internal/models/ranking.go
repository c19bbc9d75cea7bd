package models

import (
	"fmt"
	"sort"

	"auction-market/internal/biddingerrors"
)

// LeaderBid returns the highest live bid, skipping bids by excludeBidder.
// Equal amounts resolve to the earliest bid.
func LeaderBid(bids []Bid, excludeBidder string) (Bid, bool) {
	var leader Bid
	found := false
	for _, b := range bids {
		if !b.IsLive() || (excludeBidder != "" && b.BidderID == excludeBidder) {
			continue
		}
		if !found || outranks(b, leader) {
			leader = b
			found = true
		}
	}
	return leader, found
}

// RankPending returns the PENDING bids ordered by amount descending, ties
// broken by earliest creation time.
func RankPending(bids []Bid) []Bid {
	ranked := make([]Bid, 0, len(bids))
	for _, b := range bids {
		if b.Status == BidStatusPending {
			ranked = append(ranked, b)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return outranks(ranked[i], ranked[j])
	})
	return ranked
}

func outranks(a, b Bid) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// CheckAuctionInvariants verifies the product/bid relationship: at most one
// ACCEPTED bid, referenced by the product iff the product is CLOSED or SOLD.
func CheckAuctionInvariants(p Product, bids []Bid) error {
	var accepted []Bid
	for _, b := range bids {
		if b.ProductID != p.ID {
			return fmt.Errorf("product %s: %w - bid %s belongs to product %s", p.ID, biddingerrors.ErrInvariantViolated, b.ID, b.ProductID)
		}
		if b.Amount.Sign() <= 0 {
			return fmt.Errorf("product %s: %w - bid %s has non-positive amount", p.ID, biddingerrors.ErrInvariantViolated, b.ID)
		}
		if b.Status == BidStatusAccepted {
			accepted = append(accepted, b)
		}
	}

	settled := p.Status == ProductStatusClosed || p.Status == ProductStatusSold
	switch {
	case len(accepted) > 1:
		return fmt.Errorf("product %s: %w - %d accepted bids", p.ID, biddingerrors.ErrInvariantViolated, len(accepted))
	case settled && p.AcceptedBidID == "":
		return fmt.Errorf("product %s: %w - %s without accepted bid", p.ID, biddingerrors.ErrInvariantViolated, p.Status)
	case !settled && p.AcceptedBidID != "":
		return fmt.Errorf("product %s: %w - %s with accepted bid %s", p.ID, biddingerrors.ErrInvariantViolated, p.Status, p.AcceptedBidID)
	case settled && (len(accepted) != 1 || accepted[0].ID != p.AcceptedBidID):
		return fmt.Errorf("product %s: %w - accepted bid %s does not match bid records", p.ID, biddingerrors.ErrInvariantViolated, p.AcceptedBidID)
	case !settled && len(accepted) != 0:
		return fmt.Errorf("product %s: %w - bid %s accepted on %s product", p.ID, biddingerrors.ErrInvariantViolated, accepted[0].ID, p.Status)
	}
	return nil
}
