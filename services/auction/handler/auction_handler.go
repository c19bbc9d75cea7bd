package handler

import (
	"context"
	"net/http"

	bidding "auction-market/internal/biddingService"
	model "auction-market/internal/models"
	"auction-market/internal/query"
	"auction-market/services/auction/helpers"
	"auction-market/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, productID, bidderID string, amount decimal.Decimal) (model.Bid, error)
	WithdrawBid(ctx context.Context, bidID, bidderID string) (model.Bid, error)
	CreateListing(ctx context.Context, in bidding.ListingInput) (model.Product, error)
	DeleteListing(ctx context.Context, productID, sellerID string) error
}

type QueryServiceInterface interface {
	ProductDetail(ctx context.Context, productID string) (query.ProductDetail, error)
	BidderHistory(ctx context.Context, bidderID string) ([]query.BidHistoryEntry, error)
	SellerOrders(ctx context.Context, sellerID string) ([]query.OrderView, error)
	BuyerOrders(ctx context.Context, buyerID string) ([]query.OrderView, error)
}

type AuctionHandler struct {
	service BiddingServiceInterface
	queries QueryServiceInterface
}

func NewAuctionHandler(service BiddingServiceInterface, queries QueryServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service, queries: queries}
}

// CreateListingHandler handles POST /products
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}
	sellerID := helpers.CurrentUserID(c)

	product, err := h.service.CreateListing(c.Request.Context(), bidding.ListingInput{
		SellerID:      sellerID,
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		MinIncrement:  req.MinIncrement,
		AuctionEndAt:  req.AuctionEndAt,
	})
	if err != nil {
		helpers.HandleServiceError(c, "CreateListingHandler", err, map[string]any{"seller_id": sellerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewProductResponse(product), "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"product_id": product.ID,
		"seller_id":  sellerID,
	})
}

// DeleteListingHandler handles DELETE /products/:product_id
func (h *AuctionHandler) DeleteListingHandler(c *gin.Context) {
	productID := c.Param("product_id")
	sellerID := helpers.CurrentUserID(c)

	if err := h.service.DeleteListing(c.Request.Context(), productID, sellerID); err != nil {
		helpers.HandleServiceError(c, "DeleteListingHandler", err, map[string]any{
			"product_id": productID,
			"seller_id":  sellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"product_id": productID}, "listing deleted successfully")
	helpers.LogSuccess("DeleteListingHandler", "listing deleted successfully", map[string]any{"product_id": productID})
}

// GetProductHandler handles GET /products/:product_id
func (h *AuctionHandler) GetProductHandler(c *gin.Context) {
	productID := c.Param("product_id")
	detail, err := h.queries.ProductDetail(c.Request.Context(), productID)
	if err != nil {
		helpers.HandleServiceError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	resp := helpers.ProductDetailResponse{
		Product:  helpers.NewProductResponse(detail.Product),
		BidCount: detail.BidCount,
		Images:   detail.Images,
	}
	if detail.HighBid != nil {
		high := helpers.NewBidResponse(*detail.HighBid)
		resp.HighBid = &high
	}
	if detail.Category != nil {
		resp.Category = detail.Category
	}

	utils.JSONResponse(c, http.StatusOK, resp, "product retrieved successfully")
}

// PlaceBidHandler handles POST /products/:product_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}
	productID := c.Param("product_id")
	bidderID := helpers.CurrentUserID(c)

	bid, err := h.service.PlaceBid(c.Request.Context(), productID, bidderID, req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"product_id": productID,
			"bidder_id":  bidderID,
			"amount":     req.Amount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.ID,
		"product_id": productID,
		"bidder_id":  bidderID,
	})
}

// WithdrawBidHandler handles DELETE /bids/:bid_id
func (h *AuctionHandler) WithdrawBidHandler(c *gin.Context) {
	bidID := c.Param("bid_id")
	bidderID := helpers.CurrentUserID(c)

	bid, err := h.service.WithdrawBid(c.Request.Context(), bidID, bidderID)
	if err != nil {
		helpers.HandleServiceError(c, "WithdrawBidHandler", err, map[string]any{
			"bid_id":    bidID,
			"bidder_id": bidderID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "bid withdrawn successfully")
	helpers.LogSuccess("WithdrawBidHandler", "bid withdrawn successfully", map[string]any{"bid_id": bidID})
}

// GetMyBidsHandler handles GET /me/bids
func (h *AuctionHandler) GetMyBidsHandler(c *gin.Context) {
	bidderID := helpers.CurrentUserID(c)
	entries, err := h.queries.BidderHistory(c.Request.Context(), bidderID)
	if err != nil {
		helpers.HandleServiceError(c, "GetMyBidsHandler", err, map[string]any{"bidder_id": bidderID})
		return
	}

	resp := make([]helpers.BidHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, helpers.BidHistoryResponse{
			BidResponse:   helpers.NewBidResponse(e.Bid),
			ProductTitle:  e.ProductTitle,
			ProductStatus: string(e.ProductStatus),
		})
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
}

// GetMySalesHandler handles GET /me/sales
func (h *AuctionHandler) GetMySalesHandler(c *gin.Context) {
	sellerID := helpers.CurrentUserID(c)
	views, err := h.queries.SellerOrders(c.Request.Context(), sellerID)
	if err != nil {
		helpers.HandleServiceError(c, "GetMySalesHandler", err, map[string]any{"seller_id": sellerID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, orderViews(views), "orders retrieved successfully")
}

// GetMyOrdersHandler handles GET /me/orders
func (h *AuctionHandler) GetMyOrdersHandler(c *gin.Context) {
	buyerID := helpers.CurrentUserID(c)
	views, err := h.queries.BuyerOrders(c.Request.Context(), buyerID)
	if err != nil {
		helpers.HandleServiceError(c, "GetMyOrdersHandler", err, map[string]any{"buyer_id": buyerID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, orderViews(views), "orders retrieved successfully")
}

func orderViews(views []query.OrderView) []helpers.OrderViewResponse {
	resp := make([]helpers.OrderViewResponse, 0, len(views))
	for _, v := range views {
		r := helpers.OrderViewResponse{
			OrderResponse: helpers.NewOrderResponse(v.Order),
			ProductTitle:  v.ProductTitle,
		}
		if v.LatestPayment != nil {
			p := helpers.NewPaymentResponse(*v.LatestPayment)
			r.LatestPayment = &p
		}
		resp = append(resp, r)
	}
	return resp
}
