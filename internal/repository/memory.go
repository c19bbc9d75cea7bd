package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-market/internal/biddingerrors"
	model "auction-market/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of LedgerStore.
//
// Transactions are optimistic: every row or index a transaction reads is
// recorded with the version observed, writes are buffered, and commit
// validates the read set under the write lock before applying anything.
// A transaction that observed stale data fails with ErrConflict.
type MemoryRepo struct {
	mu       sync.RWMutex
	products map[string]model.Product
	bids     map[string]model.Bid
	orders   map[string]model.Order
	payments map[string]model.Payment

	bidsByProduct   map[string][]string // key: productID -> value: bid ids
	bidsByBidder    map[string][]string // key: bidderID -> value: bid ids
	orderByBid      map[string]string   // key: bidID -> value: order id
	paymentsByOrder map[string][]string // key: orderID -> value: payment ids

	// versions holds the commit sequence that last touched a row or index key
	versions map[string]uint64
	seq      uint64
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		products:        make(map[string]model.Product),
		bids:            make(map[string]model.Bid),
		orders:          make(map[string]model.Order),
		payments:        make(map[string]model.Payment),
		bidsByProduct:   make(map[string][]string),
		bidsByBidder:    make(map[string][]string),
		orderByBid:      make(map[string]string),
		paymentsByOrder: make(map[string][]string),
		versions:        make(map[string]uint64),
	}
}

func productKey(id string) string       { return "product/" + id }
func bidKey(id string) string           { return "bid/" + id }
func orderKey(id string) string         { return "order/" + id }
func paymentKey(id string) string       { return "payment/" + id }
func bidsByProductKey(id string) string { return "bids.product/" + id }
func bidsByBidderKey(id string) string  { return "bids.bidder/" + id }
func orderByBidKey(id string) string    { return "orders.bid/" + id }
func ordersBySellerKey(id string) string {
	return "orders.seller/" + id
}
func ordersByBuyerKey(id string) string { return "orders.buyer/" + id }
func ordersByStatusKey(s model.OrderStatus) string {
	return "orders.status/" + string(s)
}
func paymentsByOrderKey(id string) string { return "payments.order/" + id }
func paymentByRefKey(ref string) string   { return "payments.ref/" + ref }
func productsByStatusKey(s model.ProductStatus) string {
	return "products.status/" + string(s)
}

// WithTransaction runs fn against a fresh optimistic transaction
func (r *MemoryRepo) WithTransaction(ctx context.Context, fn func(tx LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &memTx{
		repo:  r,
		reads: make(map[string]uint64),
		expect: expectations{
			products: make(map[string]int64),
			bids:     make(map[string]int64),
			orders:   make(map[string]int64),
			payments: make(map[string]int64),
		},
		products: make(map[string]*model.Product),
		bids:     make(map[string]model.Bid),
		orders:   make(map[string]model.Order),
		payments: make(map[string]model.Payment),
	}
	if err := fn(tx); err != nil {
		return err
	}

	// an abandoned request must not leave partial effects
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return r.commit(tx)
}

// DueProducts returns ACTIVE products whose auction has ended by now
func (r *MemoryRepo) DueProducts(ctx context.Context, now time.Time, after DueCursor, limit int) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("due products: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]model.Product, 0)
	for _, p := range r.products {
		if p.IsDueAt(now) && after.Precedes(p) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].AuctionEndAt.Equal(due[j].AuctionEndAt) {
			return due[i].AuctionEndAt.Before(due[j].AuctionEndAt)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// AddProduct stores a product outside any transaction. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddProduct(p model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if p.Version == 0 {
		p.Version = 1
	}
	old, existed := r.products[p.ID]
	r.products[p.ID] = p
	r.touch(productKey(p.ID), productsByStatusKey(p.Status))
	if existed {
		r.touch(productsByStatusKey(old.Status))
	}
}

func (r *MemoryRepo) touch(keys ...string) {
	for _, k := range keys {
		r.versions[k] = r.seq
	}
}

func (r *MemoryRepo) commit(tx *memTx) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, seen := range tx.reads {
		if r.versions[key] != seen {
			return fmt.Errorf("commit: %w - %s changed", biddingerrors.ErrConflict, key)
		}
	}
	if err := r.checkWriteVersions(tx); err != nil {
		return err
	}
	if err := r.checkConstraints(tx); err != nil {
		return err
	}

	r.seq++
	for id, p := range tx.products {
		r.applyProduct(id, p)
	}
	for _, b := range tx.bids {
		r.applyBid(b)
	}
	for _, o := range tx.orders {
		r.applyOrder(o)
	}
	for _, p := range tx.payments {
		r.applyPayment(p)
	}
	return nil
}

func (r *MemoryRepo) checkWriteVersions(tx *memTx) error {
	check := func(key string, want, got int64, exists bool) error {
		if want == 0 && exists {
			return fmt.Errorf("commit: %w - %s already exists", biddingerrors.ErrConflict, key)
		}
		if want != 0 && (!exists || got != want) {
			return fmt.Errorf("commit: %w - %s version mismatch", biddingerrors.ErrConflict, key)
		}
		return nil
	}

	for id, want := range tx.expect.products {
		p, ok := r.products[id]
		if err := check(productKey(id), want, p.Version, ok); err != nil {
			return err
		}
	}
	for id, want := range tx.expect.bids {
		b, ok := r.bids[id]
		if err := check(bidKey(id), want, b.Version, ok); err != nil {
			return err
		}
	}
	for id, want := range tx.expect.orders {
		o, ok := r.orders[id]
		if err := check(orderKey(id), want, o.Version, ok); err != nil {
			return err
		}
	}
	for id, want := range tx.expect.payments {
		p, ok := r.payments[id]
		if err := check(paymentKey(id), want, p.Version, ok); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryRepo) checkConstraints(tx *memTx) error {
	seenBids := make(map[string]string)
	for _, o := range tx.orders {
		if other, ok := seenBids[o.BidID]; ok && other != o.ID {
			return fmt.Errorf("commit: %w - bid %s", biddingerrors.ErrDuplicateSettlement, o.BidID)
		}
		seenBids[o.BidID] = o.ID
		if existing, ok := r.orderByBid[o.BidID]; ok && existing != o.ID {
			return fmt.Errorf("commit: %w - bid %s already has order %s", biddingerrors.ErrDuplicateSettlement, o.BidID, existing)
		}
	}

	for _, p := range tx.payments {
		if !p.IsActive() {
			continue
		}
		for _, id := range r.paymentsByOrder[p.OrderID] {
			if id == p.ID {
				continue
			}
			other := r.payments[id]
			if buffered, ok := tx.payments[id]; ok {
				other = buffered
			}
			if other.IsActive() {
				return fmt.Errorf("commit: %w - order %s has payment %s", biddingerrors.ErrPaymentInProgress, p.OrderID, id)
			}
		}
		for id, other := range tx.payments {
			if id != p.ID && other.OrderID == p.OrderID && other.IsActive() {
				return fmt.Errorf("commit: %w - order %s", biddingerrors.ErrPaymentInProgress, p.OrderID)
			}
		}
	}

	for id, p := range tx.products {
		if p != nil {
			continue
		}
		if len(r.bidsByProduct[id]) > 0 {
			return fmt.Errorf("commit: %w - product %s", biddingerrors.ErrListingHasBids, id)
		}
		for _, b := range tx.bids {
			if b.ProductID == id {
				return fmt.Errorf("commit: %w - product %s", biddingerrors.ErrListingHasBids, id)
			}
		}
	}
	return nil
}

func (r *MemoryRepo) applyProduct(id string, p *model.Product) {
	old, existed := r.products[id]
	if existed {
		r.touch(productsByStatusKey(old.Status))
	}
	r.touch(productKey(id))
	if p == nil {
		delete(r.products, id)
		return
	}
	r.products[id] = *p
	r.touch(productsByStatusKey(p.Status))
}

func (r *MemoryRepo) applyBid(b model.Bid) {
	if _, existed := r.bids[b.ID]; !existed {
		r.bidsByProduct[b.ProductID] = append(r.bidsByProduct[b.ProductID], b.ID)
		r.bidsByBidder[b.BidderID] = append(r.bidsByBidder[b.BidderID], b.ID)
	}
	r.bids[b.ID] = b
	r.touch(bidKey(b.ID), bidsByProductKey(b.ProductID), bidsByBidderKey(b.BidderID))
}

func (r *MemoryRepo) applyOrder(o model.Order) {
	if old, existed := r.orders[o.ID]; existed {
		r.touch(ordersByStatusKey(old.Status))
	}
	r.orders[o.ID] = o
	r.orderByBid[o.BidID] = o.ID
	r.touch(orderKey(o.ID), orderByBidKey(o.BidID), ordersBySellerKey(o.SellerID),
		ordersByBuyerKey(o.BuyerID), ordersByStatusKey(o.Status))
}

func (r *MemoryRepo) applyPayment(p model.Payment) {
	old, existed := r.payments[p.ID]
	if !existed {
		r.paymentsByOrder[p.OrderID] = append(r.paymentsByOrder[p.OrderID], p.ID)
	} else if old.Reference != "" {
		r.touch(paymentByRefKey(old.Reference))
	}
	r.payments[p.ID] = p
	r.touch(paymentKey(p.ID), paymentsByOrderKey(p.OrderID))
	if p.Reference != "" {
		r.touch(paymentByRefKey(p.Reference))
	}
}

// expectations hold the committed version each written row must still have
// at commit time, zero for inserts.
type expectations struct {
	products map[string]int64
	bids     map[string]int64
	orders   map[string]int64
	payments map[string]int64
}

// memTx buffers writes and records observed versions for commit validation
type memTx struct {
	repo   *MemoryRepo
	reads  map[string]uint64
	expect expectations

	products map[string]*model.Product // nil marks a deletion
	bids     map[string]model.Bid
	orders   map[string]model.Order
	payments map[string]model.Payment
}

// observe must be called with repo.mu held
func (t *memTx) observe(key string) {
	if _, ok := t.reads[key]; !ok {
		t.reads[key] = t.repo.versions[key]
	}
}

func (t *memTx) GetProduct(id string) (model.Product, error) {
	if p, ok := t.products[id]; ok {
		if p == nil {
			return model.Product{}, fmt.Errorf("get product %s: %w", id, biddingerrors.ErrNotFound)
		}
		return *p, nil
	}

	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	t.observe(productKey(id))
	p, ok := t.repo.products[id]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", id, biddingerrors.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) GetBid(id string) (model.Bid, error) {
	if b, ok := t.bids[id]; ok {
		return b, nil
	}

	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	t.observe(bidKey(id))
	b, ok := t.repo.bids[id]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", id, biddingerrors.ErrNotFound)
	}
	return b, nil
}

func (t *memTx) GetOrder(id string) (model.Order, error) {
	if o, ok := t.orders[id]; ok {
		return o, nil
	}

	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	t.observe(orderKey(id))
	o, ok := t.repo.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("get order %s: %w", id, biddingerrors.ErrNotFound)
	}
	return o, nil
}

func (t *memTx) GetPayment(id string) (model.Payment, error) {
	if p, ok := t.payments[id]; ok {
		return p, nil
	}

	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	t.observe(paymentKey(id))
	p, ok := t.repo.payments[id]
	if !ok {
		return model.Payment{}, fmt.Errorf("get payment %s: %w", id, biddingerrors.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) BidsByProduct(productID string) ([]model.Bid, error) {
	return t.bidsBy(bidsByProductKey(productID), func(r *MemoryRepo) []string {
		return r.bidsByProduct[productID]
	}, func(b model.Bid) bool { return b.ProductID == productID })
}

func (t *memTx) BidsByBidder(bidderID string) ([]model.Bid, error) {
	return t.bidsBy(bidsByBidderKey(bidderID), func(r *MemoryRepo) []string {
		return r.bidsByBidder[bidderID]
	}, func(b model.Bid) bool { return b.BidderID == bidderID })
}

func (t *memTx) bidsBy(key string, ids func(*MemoryRepo) []string, match func(model.Bid) bool) ([]model.Bid, error) {
	merged := make(map[string]model.Bid)

	t.repo.mu.RLock()
	t.observe(key)
	for _, id := range ids(t.repo) {
		merged[id] = t.repo.bids[id]
	}
	t.repo.mu.RUnlock()

	for id, b := range t.bids {
		if match(b) {
			merged[id] = b
		}
	}

	bids := make([]model.Bid, 0, len(merged))
	for _, b := range merged {
		bids = append(bids, b)
	}
	sort.Slice(bids, func(i, j int) bool {
		if !bids[i].CreatedAt.Equal(bids[j].CreatedAt) {
			return bids[i].CreatedAt.Before(bids[j].CreatedAt)
		}
		return bids[i].ID < bids[j].ID
	})
	return bids, nil
}

func (t *memTx) OrderByBid(bidID string) (model.Order, error) {
	for _, o := range t.orders {
		if o.BidID == bidID {
			return o, nil
		}
	}

	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	t.observe(orderByBidKey(bidID))
	id, ok := t.repo.orderByBid[bidID]
	if !ok {
		return model.Order{}, fmt.Errorf("get order for bid %s: %w", bidID, biddingerrors.ErrNotFound)
	}
	if o, buffered := t.orders[id]; buffered {
		return o, nil
	}
	return t.repo.orders[id], nil
}

func (t *memTx) OrdersBySeller(sellerID string) ([]model.Order, error) {
	return t.ordersWhere(ordersBySellerKey(sellerID), func(o model.Order) bool { return o.SellerID == sellerID })
}

func (t *memTx) OrdersByBuyer(buyerID string) ([]model.Order, error) {
	return t.ordersWhere(ordersByBuyerKey(buyerID), func(o model.Order) bool { return o.BuyerID == buyerID })
}

func (t *memTx) OrdersByStatus(status model.OrderStatus) ([]model.Order, error) {
	return t.ordersWhere(ordersByStatusKey(status), func(o model.Order) bool { return o.Status == status })
}

func (t *memTx) ordersWhere(key string, match func(model.Order) bool) ([]model.Order, error) {
	merged := make(map[string]model.Order)

	t.repo.mu.RLock()
	t.observe(key)
	for id, o := range t.repo.orders {
		if match(o) {
			merged[id] = o
		}
	}
	t.repo.mu.RUnlock()

	for id, o := range t.orders {
		if match(o) {
			merged[id] = o
		} else {
			delete(merged, id)
		}
	}

	orders := make([]model.Order, 0, len(merged))
	for _, o := range merged {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

func (t *memTx) PaymentsByOrder(orderID string) ([]model.Payment, error) {
	merged := make(map[string]model.Payment)

	t.repo.mu.RLock()
	t.observe(paymentsByOrderKey(orderID))
	for _, id := range t.repo.paymentsByOrder[orderID] {
		merged[id] = t.repo.payments[id]
	}
	t.repo.mu.RUnlock()

	for id, p := range t.payments {
		if p.OrderID == orderID {
			merged[id] = p
		}
	}

	payments := make([]model.Payment, 0, len(merged))
	for _, p := range merged {
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].CreatedAt.Before(payments[j].CreatedAt)
		}
		return payments[i].ID < payments[j].ID
	})
	return payments, nil
}

func (t *memTx) PaymentByReference(reference string) (model.Payment, error) {
	for _, p := range t.payments {
		if p.Reference == reference {
			return p, nil
		}
	}

	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	t.observe(paymentByRefKey(reference))
	for id, p := range t.repo.payments {
		if reference != "" && p.Reference == reference {
			if buffered, ok := t.payments[id]; ok {
				return buffered, nil
			}
			return p, nil
		}
	}
	return model.Payment{}, fmt.Errorf("get payment by reference %s: %w", reference, biddingerrors.ErrNotFound)
}

func (t *memTx) ProductsByStatus(status model.ProductStatus) ([]model.Product, error) {
	merged := make(map[string]model.Product)

	t.repo.mu.RLock()
	t.observe(productsByStatusKey(status))
	for id, p := range t.repo.products {
		if p.Status == status {
			merged[id] = p
		}
	}
	t.repo.mu.RUnlock()

	for id, p := range t.products {
		if p != nil && p.Status == status {
			merged[id] = *p
		} else {
			delete(merged, id)
		}
	}

	products := make([]model.Product, 0, len(merged))
	for _, p := range merged {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if !products[i].AuctionEndAt.Equal(products[j].AuctionEndAt) {
			return products[i].AuctionEndAt.Before(products[j].AuctionEndAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// stage records the expected committed version the first time a row is
// written and bumps the caller's copy.
func stage(expect map[string]int64, id, key string, version *int64, buffered bool, bufferedVersion int64) error {
	if buffered {
		if bufferedVersion != *version {
			return fmt.Errorf("put %s: %w - stale version %d", key, biddingerrors.ErrConflict, *version)
		}
	} else if _, ok := expect[id]; !ok {
		expect[id] = *version
	}
	*version++
	return nil
}

func (t *memTx) PutProduct(p *model.Product) error {
	buffered, ok := t.products[p.ID]
	if ok && buffered == nil {
		return fmt.Errorf("put product %s: %w", p.ID, biddingerrors.ErrNotFound)
	}
	var bv int64
	if ok {
		bv = buffered.Version
	}
	if err := stage(t.expect.products, p.ID, productKey(p.ID), &p.Version, ok, bv); err != nil {
		return err
	}
	cp := *p
	t.products[p.ID] = &cp
	return nil
}

func (t *memTx) PutBid(b *model.Bid) error {
	buffered, ok := t.bids[b.ID]
	if err := stage(t.expect.bids, b.ID, bidKey(b.ID), &b.Version, ok, buffered.Version); err != nil {
		return err
	}
	t.bids[b.ID] = *b
	return nil
}

func (t *memTx) PutOrder(o *model.Order) error {
	buffered, ok := t.orders[o.ID]
	if err := stage(t.expect.orders, o.ID, orderKey(o.ID), &o.Version, ok, buffered.Version); err != nil {
		return err
	}
	t.orders[o.ID] = *o
	return nil
}

func (t *memTx) PutPayment(p *model.Payment) error {
	p.SyncActiveOrder()
	buffered, ok := t.payments[p.ID]
	if err := stage(t.expect.payments, p.ID, paymentKey(p.ID), &p.Version, ok, buffered.Version); err != nil {
		return err
	}
	t.payments[p.ID] = *p
	return nil
}

func (t *memTx) DeleteProduct(id string) error {
	p, err := t.GetProduct(id)
	if err != nil {
		return err
	}
	bids, err := t.BidsByProduct(id)
	if err != nil {
		return err
	}
	if len(bids) > 0 {
		return fmt.Errorf("delete product %s: %w", id, biddingerrors.ErrListingHasBids)
	}
	if _, ok := t.expect.products[id]; !ok {
		t.expect.products[id] = p.Version
	}
	t.products[id] = nil
	return nil
}
