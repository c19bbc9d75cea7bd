package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-market/internal/biddingerrors"
	model "auction-market/internal/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL server error numbers mapped onto the ledger taxonomy
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// GormRepo is the MySQL-backed LedgerStore. Transactions run at
// SERIALIZABLE and updates compare-and-swap on the version column.
type GormRepo struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormRepo wraps an opened gorm connection. timeout bounds every
// transaction and query; zero disables the bound.
func NewGormRepo(db *gorm.DB, timeout time.Duration) *GormRepo {
	return &GormRepo{db: db, timeout: timeout}
}

func (r *GormRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// WithTransaction runs fn inside a serializable database transaction
func (r *GormRepo) WithTransaction(ctx context.Context, fn func(tx LedgerTx) error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return mapDBError(ctx, err)
}

// DueProducts uses ix_products_status_auction_end
func (r *GormRepo) DueProducts(ctx context.Context, now time.Time, after DueCursor, limit int) ([]model.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var products []model.Product
	q := r.db.WithContext(ctx).
		Where("status = ? AND auction_end_at <= ?", model.ProductStatusActive, now)
	if !after.IsZero() {
		q = q.Where("(auction_end_at > ? OR (auction_end_at = ? AND id > ?))", after.EndAt, after.EndAt, after.ID)
	}
	q = q.Order("auction_end_at, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("due products: %w", mapDBError(ctx, err))
	}
	return products, nil
}

// mapDBError translates driver and gorm errors into ledger errors. Errors that
// already carry a ledger kind, and caller cancellations, pass through.
func mapDBError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if biddingerrors.KindOf(err) != biddingerrors.KindInternal {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", biddingerrors.ErrNotFound, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDeadlock, mysqlLockWaitTimeout, mysqlDuplicateEntry:
			return fmt.Errorf("%w: %v", biddingerrors.ErrConflict, err)
		}
	}

	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return err
	}

	// timeouts, dropped connections and any other backend failure
	return fmt.Errorf("%w: %v", biddingerrors.ErrStorageUnavailable, err)
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// gormTx implements LedgerTx on a gorm transaction handle
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) first(dest any, entity, id string) error {
	err := t.db.First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("get %s %s: %w", entity, id, biddingerrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s %s: %w", entity, id, mapDBError(t.db.Statement.Context, err))
	}
	return nil
}

func (t *gormTx) GetProduct(id string) (model.Product, error) {
	var p model.Product
	err := t.first(&p, "product", id)
	return p, err
}

func (t *gormTx) GetBid(id string) (model.Bid, error) {
	var b model.Bid
	err := t.first(&b, "bid", id)
	return b, err
}

func (t *gormTx) GetOrder(id string) (model.Order, error) {
	var o model.Order
	err := t.first(&o, "order", id)
	return o, err
}

func (t *gormTx) GetPayment(id string) (model.Payment, error) {
	var p model.Payment
	err := t.first(&p, "payment", id)
	return p, err
}

func (t *gormTx) find(dest any, what, order, query string, args ...any) error {
	if err := t.db.Where(query, args...).Order(order).Find(dest).Error; err != nil {
		return fmt.Errorf("list %s: %w", what, mapDBError(t.db.Statement.Context, err))
	}
	return nil
}

func (t *gormTx) BidsByProduct(productID string) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := t.find(&bids, "bids by product", "created_at, id", "product_id = ?", productID)
	return bids, err
}

func (t *gormTx) BidsByBidder(bidderID string) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := t.find(&bids, "bids by bidder", "created_at, id", "bidder_id = ?", bidderID)
	return bids, err
}

func (t *gormTx) OrderByBid(bidID string) (model.Order, error) {
	var o model.Order
	err := t.db.Where("bid_id = ?", bidID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, fmt.Errorf("get order for bid %s: %w", bidID, biddingerrors.ErrNotFound)
	}
	if err != nil {
		return o, fmt.Errorf("get order for bid %s: %w", bidID, mapDBError(t.db.Statement.Context, err))
	}
	return o, nil
}

func (t *gormTx) OrdersBySeller(sellerID string) ([]model.Order, error) {
	orders := []model.Order{}
	err := t.find(&orders, "orders by seller", "created_at, id", "seller_id = ?", sellerID)
	return orders, err
}

func (t *gormTx) OrdersByBuyer(buyerID string) ([]model.Order, error) {
	orders := []model.Order{}
	err := t.find(&orders, "orders by buyer", "created_at, id", "buyer_id = ?", buyerID)
	return orders, err
}

func (t *gormTx) OrdersByStatus(status model.OrderStatus) ([]model.Order, error) {
	orders := []model.Order{}
	err := t.find(&orders, "orders by status", "created_at, id", "status = ?", status)
	return orders, err
}

func (t *gormTx) PaymentsByOrder(orderID string) ([]model.Payment, error) {
	payments := []model.Payment{}
	err := t.find(&payments, "payments by order", "created_at, id", "order_id = ?", orderID)
	return payments, err
}

func (t *gormTx) PaymentByReference(reference string) (model.Payment, error) {
	var p model.Payment
	err := t.db.Where("reference = ? AND reference <> ''", reference).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, fmt.Errorf("get payment by reference %s: %w", reference, biddingerrors.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("get payment by reference %s: %w", reference, mapDBError(t.db.Statement.Context, err))
	}
	return p, nil
}

func (t *gormTx) ProductsByStatus(status model.ProductStatus) ([]model.Product, error) {
	products := []model.Product{}
	err := t.find(&products, "products by status", "auction_end_at, id", "status = ?", status)
	return products, err
}

// casUpdate applies updates only if the row still has the expected version
func (t *gormTx) casUpdate(table any, entity, id string, version *int64, updates map[string]any, onDuplicate error) error {
	updates["version"] = *version + 1
	res := t.db.Model(table).Where("id = ? AND version = ?", id, *version).Updates(updates)
	if res.Error != nil && isDuplicate(res.Error) {
		return fmt.Errorf("update %s %s: %w", entity, id, onDuplicate)
	}
	if res.Error != nil {
		return fmt.Errorf("update %s %s: %w", entity, id, mapDBError(t.db.Statement.Context, res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s %s: %w - version %d is stale", entity, id, biddingerrors.ErrConflict, *version)
	}
	*version++
	return nil
}

func (t *gormTx) insert(row any, entity, id string, version *int64, onDuplicate error) error {
	*version = 1
	if err := t.db.Create(row).Error; err != nil {
		*version = 0
		if isDuplicate(err) {
			return fmt.Errorf("insert %s %s: %w", entity, id, onDuplicate)
		}
		return fmt.Errorf("insert %s %s: %w", entity, id, mapDBError(t.db.Statement.Context, err))
	}
	return nil
}

func (t *gormTx) PutProduct(p *model.Product) error {
	if p.Version == 0 {
		return t.insert(p, "product", p.ID, &p.Version, biddingerrors.ErrConflict)
	}
	return t.casUpdate(&model.Product{}, "product", p.ID, &p.Version, map[string]any{
		"status":          p.Status,
		"accepted_bid_id": p.AcceptedBidID,
		"title":           p.Title,
		"description":     p.Description,
	}, biddingerrors.ErrConflict)
}

func (t *gormTx) PutBid(b *model.Bid) error {
	if b.Version == 0 {
		return t.insert(b, "bid", b.ID, &b.Version, biddingerrors.ErrConflict)
	}
	return t.casUpdate(&model.Bid{}, "bid", b.ID, &b.Version, map[string]any{
		"status": b.Status,
	}, biddingerrors.ErrConflict)
}

func (t *gormTx) PutOrder(o *model.Order) error {
	if o.Version == 0 {
		return t.insert(o, "order", o.ID, &o.Version, biddingerrors.ErrDuplicateSettlement)
	}
	return t.casUpdate(&model.Order{}, "order", o.ID, &o.Version, map[string]any{
		"status": o.Status,
	}, biddingerrors.ErrConflict)
}

func (t *gormTx) PutPayment(p *model.Payment) error {
	p.SyncActiveOrder()
	if p.Version == 0 {
		return t.insert(p, "payment", p.ID, &p.Version, biddingerrors.ErrPaymentInProgress)
	}
	return t.casUpdate(&model.Payment{}, "payment", p.ID, &p.Version, map[string]any{
		"status":          p.Status,
		"reference":       p.Reference,
		"failure_reason":  p.FailureReason,
		"paid_at":         p.PaidAt,
		"active_order_id": p.ActiveOrderID,
	}, biddingerrors.ErrPaymentInProgress)
}

func (t *gormTx) DeleteProduct(id string) error {
	var count int64
	if err := t.db.Model(&model.Bid{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("delete product %s: %w", id, mapDBError(t.db.Statement.Context, err))
	}
	if count > 0 {
		return fmt.Errorf("delete product %s: %w", id, biddingerrors.ErrListingHasBids)
	}

	res := t.db.Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete product %s: %w", id, mapDBError(t.db.Statement.Context, res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete product %s: %w", id, biddingerrors.ErrNotFound)
	}
	return nil
}
