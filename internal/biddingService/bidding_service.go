package bidding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-market/internal/biddingerrors"
	"auction-market/internal/clock"
	"auction-market/internal/events"
	"auction-market/internal/metrics"
	model "auction-market/internal/models"
	"auction-market/internal/repository"
	"auction-market/utils"

	"github.com/shopspring/decimal"
)

// DefaultMinIncrement applies when a listing does not set one
var DefaultMinIncrement = decimal.RequireFromString("1.00")

// BiddingService defines the business logic for listings and bids
type BiddingService struct {
	store     repository.LedgerStore
	clock     clock.Clock
	publisher events.Publisher
	retry     repository.RetryPolicy
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(store repository.LedgerStore, clk clock.Clock, publisher events.Publisher, retry repository.RetryPolicy) *BiddingService {
	return &BiddingService{
		store:     store,
		clock:     clk,
		publisher: publisher,
		retry:     retry,
	}
}

// ListingInput carries the seller-provided fields of a new listing
type ListingInput struct {
	SellerID      string
	CategoryID    string
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	MinIncrement  decimal.Decimal
	AuctionEndAt  time.Time
}

// PlaceBid records a bid if it beats every other bidder by the product's
// minimum increment, and marks all lower pending bids as outbid.
func (s *BiddingService) PlaceBid(ctx context.Context, productID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(bidderID) == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing productID or bidderID", biddingerrors.ErrInvalidInput)
	}
	if err := validateMoney(amount, "bid amount"); err != nil {
		metrics.RecordBid(string(biddingerrors.KindValidation))
		return model.Bid{}, err
	}

	var (
		bid    model.Bid
		outbid []model.Bid
	)
	err := repository.Retry(ctx, s.store, s.retry, func(tx repository.LedgerTx) error {
		outbid = nil

		product, err := tx.GetProduct(productID)
		if err != nil {
			return fmt.Errorf("service: failed to load product %s: %w", productID, err)
		}

		now := s.clock.Now()
		if !product.IsOpenAt(now) {
			return fmt.Errorf("service: %w - product %s is %s, ends at %s", biddingerrors.ErrAuctionClosed,
				productID, product.Status, product.AuctionEndAt.Format(time.RFC3339))
		}
		if product.SellerID == bidderID {
			return fmt.Errorf("service: %w - product %s", biddingerrors.ErrSelfBid, productID)
		}

		bids, err := tx.BidsByProduct(productID)
		if err != nil {
			return fmt.Errorf("service: failed to load bids for product %s: %w", productID, err)
		}
		if err := checkBidAmount(product, bids, bidderID, amount); err != nil {
			return err
		}

		bid = model.Bid{
			ID:        utils.GenerateID(),
			ProductID: productID,
			BidderID:  bidderID,
			Amount:    amount,
			Status:    model.BidStatusPending,
			CreatedAt: now,
		}

		for _, b := range bids {
			if b.Status != model.BidStatusPending || !b.Amount.LessThan(amount) {
				continue
			}
			if err := b.Outbid(); err != nil {
				return fmt.Errorf("service: %w", err)
			}
			if err := tx.PutBid(&b); err != nil {
				return fmt.Errorf("service: failed to outbid %s: %w", b.ID, err)
			}
			outbid = append(outbid, b)
		}

		if err := tx.PutBid(&bid); err != nil {
			return fmt.Errorf("service: failed to record bid for product %s by bidder %s: %w", productID, bidderID, err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordBid(string(biddingerrors.KindOf(err)))
		return model.Bid{}, err
	}

	metrics.RecordBid("accepted")
	placed := events.New(events.BidPlaced, productID, bid.CreatedAt)
	placed.BidID = bid.ID
	placed.UserID = bidderID
	placed.Amount = bid.Amount.StringFixed(model.MoneyPlaces)
	events.Emit(ctx, s.publisher, placed)

	utils.Info("bid placed", map[string]any{
		"bid_id":     bid.ID,
		"product_id": productID,
		"bidder_id":  bidderID,
		"amount":     bid.Amount.StringFixed(model.MoneyPlaces),
		"outbid":     len(outbid),
	})
	return bid, nil
}

// checkBidAmount enforces the increment rule against the other bidders'
// leader and requires a bidder to raise their own pending bid.
func checkBidAmount(product model.Product, bids []model.Bid, bidderID string, amount decimal.Decimal) error {
	base := product.StartingPrice
	if leader, ok := model.LeaderBid(bids, bidderID); ok {
		base = leader.Amount
	}
	threshold := base.Add(product.MinIncrement)
	if amount.LessThan(threshold) {
		return fmt.Errorf("service: %w - minimum acceptable bid is %s", biddingerrors.ErrBidTooLow, threshold.StringFixed(model.MoneyPlaces))
	}

	for _, b := range bids {
		if b.BidderID == bidderID && b.Status == model.BidStatusPending && !amount.GreaterThan(b.Amount) {
			return fmt.Errorf("service: %w - own pending bid is %s", biddingerrors.ErrBidTooLow, b.Amount.StringFixed(model.MoneyPlaces))
		}
	}
	return nil
}

// WithdrawBid retracts a pending bid while its auction is still open
func (s *BiddingService) WithdrawBid(ctx context.Context, bidID, bidderID string) (model.Bid, error) {
	if bidID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing bidID or bidderID", biddingerrors.ErrInvalidInput)
	}

	var bid model.Bid
	err := repository.Retry(ctx, s.store, s.retry, func(tx repository.LedgerTx) error {
		var err error
		bid, err = tx.GetBid(bidID)
		if err != nil {
			return fmt.Errorf("service: failed to load bid %s: %w", bidID, err)
		}
		if bid.BidderID != bidderID {
			return fmt.Errorf("service: %w - bid %s", biddingerrors.ErrNotOwner, bidID)
		}

		product, err := tx.GetProduct(bid.ProductID)
		if err != nil {
			return fmt.Errorf("service: failed to load product %s: %w", bid.ProductID, err)
		}
		if bid.Status != model.BidStatusPending || !product.IsOpenAt(s.clock.Now()) {
			return fmt.Errorf("service: %w - bid %s is %s, product is %s", biddingerrors.ErrTooLateToWithdraw,
				bidID, bid.Status, product.Status)
		}

		if err := bid.Withdraw(); err != nil {
			return fmt.Errorf("service: %w", err)
		}
		return tx.PutBid(&bid)
	})
	if err != nil {
		return model.Bid{}, err
	}

	withdrawn := events.New(events.BidWithdrawn, bid.ProductID, s.clock.Now())
	withdrawn.BidID = bid.ID
	withdrawn.UserID = bidderID
	events.Emit(ctx, s.publisher, withdrawn)
	return bid, nil
}

// CreateListing opens a new auction for the seller
func (s *BiddingService) CreateListing(ctx context.Context, in ListingInput) (model.Product, error) {
	if strings.TrimSpace(in.SellerID) == "" || strings.TrimSpace(in.Title) == "" {
		return model.Product{}, fmt.Errorf("service: %w - missing sellerID or title", biddingerrors.ErrInvalidInput)
	}
	if err := validateMoney(in.StartingPrice, "starting price"); err != nil {
		return model.Product{}, err
	}
	increment := in.MinIncrement
	if increment.IsZero() {
		increment = DefaultMinIncrement
	}
	if err := validateMoney(increment, "minimum increment"); err != nil {
		return model.Product{}, err
	}

	now := s.clock.Now()
	if !in.AuctionEndAt.After(now) {
		return model.Product{}, fmt.Errorf("service: %w - auction end %s is not in the future", biddingerrors.ErrInvalidInput,
			in.AuctionEndAt.Format(time.RFC3339))
	}

	product := model.Product{
		ID:            utils.GenerateID(),
		SellerID:      in.SellerID,
		CategoryID:    in.CategoryID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		StartingPrice: in.StartingPrice,
		MinIncrement:  increment,
		AuctionEndAt:  in.AuctionEndAt.UTC(),
		Status:        model.ProductStatusActive,
		CreatedAt:     now,
	}
	err := repository.Retry(ctx, s.store, s.retry, func(tx repository.LedgerTx) error {
		product.Version = 0
		if err := tx.PutProduct(&product); err != nil {
			return fmt.Errorf("service: failed to create listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return product, nil
}

// DeleteListing removes a listing that has never received a bid
func (s *BiddingService) DeleteListing(ctx context.Context, productID, sellerID string) error {
	if productID == "" || sellerID == "" {
		return fmt.Errorf("service: %w - missing productID or sellerID", biddingerrors.ErrInvalidInput)
	}

	return repository.Retry(ctx, s.store, s.retry, func(tx repository.LedgerTx) error {
		product, err := tx.GetProduct(productID)
		if err != nil {
			return fmt.Errorf("service: failed to load product %s: %w", productID, err)
		}
		if product.SellerID != sellerID {
			return fmt.Errorf("service: %w - product %s", biddingerrors.ErrNotOwner, productID)
		}
		if err := tx.DeleteProduct(productID); err != nil {
			return fmt.Errorf("service: failed to delete product %s: %w", productID, err)
		}
		return nil
	})
}

// validateMoney requires a positive amount with at most two decimals
func validateMoney(amount decimal.Decimal, what string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("service: %w - non-positive %s", biddingerrors.ErrInvalidAmount, what)
	}
	if !amount.Equal(amount.Round(model.MoneyPlaces)) {
		return fmt.Errorf("service: %w - %s %s has more than %d decimals", biddingerrors.ErrInvalidAmount, what, amount, model.MoneyPlaces)
	}
	return nil
}
