package service

import (
	"context"
	"time"

	"github.com/campusmart/campusmart-backend/internal/cache"
	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"gorm.io/gorm"
)

// The fakes below implement the repository interfaces over in-memory
// maps with the same guard semantics as the SQL implementations: a
// failed conditional update surfaces as gorm.ErrRecordNotFound. WithTx
// returns the fake itself, and the fake tx manager just runs the
// function, so service logic is exercised unchanged.

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	m.calls++
	return fn(nil)
}

func (m *fakeTxManager) SetDB(db *gorm.DB) {}

type fakeProductRepo struct {
	products map[uint64]*model.Product
	nextID   uint64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uint64]*model.Product{}, nextID: 1}
}

func (r *fakeProductRepo) add(p model.Product) *model.Product {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	cp := p
	r.products[cp.ID] = &cp
	return &cp
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	p.ID = r.nextID
	r.nextID++
	cp := *p
	r.products[cp.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Product, error) {
	out := make(map[uint64]*model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(ctx context.Context, campus string, limit, offset int) ([]model.Product, int64, error) {
	var list []model.Product
	for _, p := range r.products {
		if p.Disabled {
			continue
		}
		if campus != "" && p.Campus != campus {
			continue
		}
		list = append(list, *p)
	}
	return list, int64(len(list)), nil
}

func (r *fakeProductRepo) WithTx(tx *gorm.DB) repository.ProductRepository { return r }
func (r *fakeProductRepo) SetDB(db *gorm.DB)                              {}

type fakeCartRepo struct {
	carts      map[string]*model.Cart
	items      []model.CartItem
	nextCartID uint64
	nextItemID uint64
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]*model.Cart{}, nextCartID: 1, nextItemID: 1}
}

func (r *fakeCartRepo) FindOrCreate(ctx context.Context, buyerUID string) (*model.Cart, error) {
	if c, ok := r.carts[buyerUID]; ok {
		cp := *c
		return &cp, nil
	}
	c := &model.Cart{ID: r.nextCartID, BuyerUID: buyerUID}
	r.nextCartID++
	r.carts[buyerUID] = c
	cp := *c
	return &cp, nil
}

func (r *fakeCartRepo) ListItems(ctx context.Context, cartID uint64) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) UpsertItem(ctx context.Context, item *model.CartItem) error {
	for i := range r.items {
		if r.items[i].CartID == item.CartID && r.items[i].ProductID == item.ProductID {
			r.items[i].Quantity = item.Quantity
			item.ID = r.items[i].ID
			return nil
		}
	}
	item.ID = r.nextItemID
	r.nextItemID++
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeCartRepo) UpdateQuantity(ctx context.Context, cartID, productID uint64, quantity uint) error {
	for i := range r.items {
		if r.items[i].CartID == cartID && r.items[i].ProductID == productID {
			r.items[i].Quantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCartRepo) RemoveItem(ctx context.Context, cartID, productID uint64) error {
	out := r.items[:0]
	for _, it := range r.items {
		if !(it.CartID == cartID && it.ProductID == productID) {
			out = append(out, it)
		}
	}
	r.items = out
	return nil
}

func (r *fakeCartRepo) DeleteItems(ctx context.Context, cartID uint64, itemIDs []uint64) error {
	drop := make(map[uint64]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	out := r.items[:0]
	for _, it := range r.items {
		if !(it.CartID == cartID && drop[it.ID]) {
			out = append(out, it)
		}
	}
	r.items = out
	return nil
}

func (r *fakeCartRepo) WithTx(tx *gorm.DB) repository.CartRepository { return r }
func (r *fakeCartRepo) SetDB(db *gorm.DB)                            {}

type fakeWalletRepo struct {
	wallets map[string]*model.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: map[string]*model.Wallet{}}
}

func (r *fakeWalletRepo) set(uid string, balance int64) {
	r.wallets[uid] = &model.Wallet{UID: uid, Balance: balance}
}

func (r *fakeWalletRepo) get(uid string) *model.Wallet {
	return r.wallets[uid]
}

func (r *fakeWalletRepo) ensure(uid string) *model.Wallet {
	w, ok := r.wallets[uid]
	if !ok {
		w = &model.Wallet{UID: uid}
		r.wallets[uid] = w
	}
	return w
}

func (r *fakeWalletRepo) FindOrCreate(ctx context.Context, uid string) (*model.Wallet, error) {
	cp := *r.ensure(uid)
	return &cp, nil
}

func (r *fakeWalletRepo) FindForUpdate(ctx context.Context, uid string) (*model.Wallet, error) {
	cp := *r.ensure(uid)
	return &cp, nil
}

func (r *fakeWalletRepo) Debit(ctx context.Context, uid string, amount int64) error {
	w, ok := r.wallets[uid]
	if !ok || w.Frozen || w.Balance < amount {
		return gorm.ErrRecordNotFound
	}
	w.Balance -= amount
	w.TotalSpent += amount
	return nil
}

func (r *fakeWalletRepo) Credit(ctx context.Context, uid string, amount int64) error {
	if w, ok := r.wallets[uid]; ok && w.Frozen {
		return gorm.ErrRecordNotFound
	}
	w := r.ensure(uid)
	w.Balance += amount
	w.TotalEarned += amount
	return nil
}

func (r *fakeWalletRepo) Refund(ctx context.Context, uid string, amount int64) error {
	w, ok := r.wallets[uid]
	if !ok || w.Frozen {
		return gorm.ErrRecordNotFound
	}
	w.Balance += amount
	w.TotalSpent -= amount
	return nil
}

func (r *fakeWalletRepo) AddBalance(ctx context.Context, uid string, amount int64) error {
	r.ensure(uid).Balance += amount
	return nil
}

func (r *fakeWalletRepo) Hold(ctx context.Context, uid string, amount int64) error {
	w, ok := r.wallets[uid]
	if !ok || w.Frozen || w.Balance < amount {
		return gorm.ErrRecordNotFound
	}
	w.Balance -= amount
	w.PendingBalance += amount
	return nil
}

func (r *fakeWalletRepo) ClearPending(ctx context.Context, uid string, amount int64, at time.Time) error {
	w, ok := r.wallets[uid]
	if !ok || w.PendingBalance < amount {
		return gorm.ErrRecordNotFound
	}
	w.PendingBalance -= amount
	w.LastWithdrawalAt = &at
	return nil
}

func (r *fakeWalletRepo) ReturnPending(ctx context.Context, uid string, amount int64) error {
	w, ok := r.wallets[uid]
	if !ok || w.PendingBalance < amount {
		return gorm.ErrRecordNotFound
	}
	w.PendingBalance -= amount
	w.Balance += amount
	return nil
}

func (r *fakeWalletRepo) SetFrozen(ctx context.Context, uid string, frozen bool) error {
	r.ensure(uid).Frozen = frozen
	return nil
}

func (r *fakeWalletRepo) WithTx(tx *gorm.DB) repository.WalletRepository { return r }
func (r *fakeWalletRepo) SetDB(db *gorm.DB)                              {}

type fakeStatusCache struct {
	entries map[uint64]cache.StatusEntry
	hits    int
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{entries: map[uint64]cache.StatusEntry{}}
}

func (c *fakeStatusCache) Get(ctx context.Context, orderID uint64) (*cache.StatusEntry, bool) {
	e, ok := c.entries[orderID]
	if !ok {
		return nil, false
	}
	c.hits++
	cp := e
	return &cp, true
}

func (c *fakeStatusCache) Set(ctx context.Context, orderID uint64, e cache.StatusEntry) {
	c.entries[orderID] = e
}

func (c *fakeStatusCache) Invalidate(ctx context.Context, orderID uint64) {
	delete(c.entries, orderID)
}

type fakeOrderRepo struct {
	orders map[uint64]*model.Order
	nextID uint64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint64]*model.Order{}, nextID: 1}
}

func (r *fakeOrderRepo) add(o model.Order) *model.Order {
	if o.ID == 0 {
		o.ID = r.nextID
		r.nextID++
	} else if o.ID >= r.nextID {
		r.nextID = o.ID + 1
	}
	cp := o
	r.orders[cp.ID] = &cp
	return &cp
}

func (r *fakeOrderRepo) get(id uint64) *model.Order {
	return r.orders[id]
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *model.Order) error {
	o.ID = r.nextID
	r.nextID++
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	r.orders[cp.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *model.Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *o
	cp.Items = stored.Items
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.BuyerUID == buyerUID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.SellerUID == sellerUID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) WithTx(tx *gorm.DB) repository.OrderRepository { return r }
func (r *fakeOrderRepo) SetDB(db *gorm.DB)                             {}

type fakeTransactionRepo struct {
	txns   []*model.Transaction
	nextID uint64
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{nextID: 1}
}

func (r *fakeTransactionRepo) byType(t model.TransactionType) []*model.Transaction {
	var out []*model.Transaction
	for _, tx := range r.txns {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

func (r *fakeTransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	for _, existing := range r.txns {
		if existing.Reference == t.Reference {
			return gorm.ErrDuplicatedKey
		}
	}
	t.ID = r.nextID
	r.nextID++
	cp := *t
	r.txns = append(r.txns, &cp)
	return nil
}

func (r *fakeTransactionRepo) FindByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	for _, t := range r.txns {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTransactionRepo) ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range r.txns {
		if t.UserUID == uid {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) Settle(ctx context.Context, reference string, status model.TransactionStatus, at time.Time) (int64, error) {
	for _, t := range r.txns {
		if t.Reference == reference && t.Status == model.TransactionStatusPending {
			t.Status = status
			t.CompletedAt = &at
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeTransactionRepo) SumCompleted(ctx context.Context, uid string) (int64, int64, error) {
	var credits, debits int64
	for _, t := range r.txns {
		if t.UserUID != uid || t.Status != model.TransactionStatusCompleted {
			continue
		}
		switch t.Direction {
		case model.DirectionCredit:
			credits += t.Amount
		case model.DirectionDebit:
			debits += t.Amount
		}
	}
	return credits, debits, nil
}

func (r *fakeTransactionRepo) WithTx(tx *gorm.DB) repository.TransactionRepository { return r }
func (r *fakeTransactionRepo) SetDB(db *gorm.DB)                                   {}

type fakeFeeScheduleRepo struct {
	schedule *model.FeeSchedule
}

func (r *fakeFeeScheduleRepo) Active(ctx context.Context) (*model.FeeSchedule, error) {
	if r.schedule != nil {
		return r.schedule, nil
	}
	return model.DefaultFeeSchedule(), nil
}

func (r *fakeFeeScheduleRepo) Save(ctx context.Context, s *model.FeeSchedule) error {
	r.schedule = s
	return nil
}

func (r *fakeFeeScheduleRepo) WithTx(tx *gorm.DB) repository.FeeScheduleRepository { return r }
func (r *fakeFeeScheduleRepo) SetDB(db *gorm.DB)                                   {}

type fakeGigRepo struct {
	gigs      map[uint64]*model.Gig
	bids      map[uint64]*model.Bid
	nextGigID uint64
	nextBidID uint64
}

func newFakeGigRepo() *fakeGigRepo {
	return &fakeGigRepo{
		gigs:      map[uint64]*model.Gig{},
		bids:      map[uint64]*model.Bid{},
		nextGigID: 1,
		nextBidID: 1,
	}
}

func (r *fakeGigRepo) getGig(id uint64) *model.Gig { return r.gigs[id] }
func (r *fakeGigRepo) getBid(id uint64) *model.Bid { return r.bids[id] }

func (r *fakeGigRepo) CreateGig(ctx context.Context, g *model.Gig) error {
	g.ID = r.nextGigID
	r.nextGigID++
	cp := *g
	r.gigs[cp.ID] = &cp
	return nil
}

func (r *fakeGigRepo) FindGigByID(ctx context.Context, id uint64) (*model.Gig, error) {
	g, ok := r.gigs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGigRepo) FindGigForUpdate(ctx context.Context, id uint64) (*model.Gig, error) {
	return r.FindGigByID(ctx, id)
}

func (r *fakeGigRepo) UpdateGig(ctx context.Context, g *model.Gig) error {
	if _, ok := r.gigs[g.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *g
	r.gigs[g.ID] = &cp
	return nil
}

func (r *fakeGigRepo) ListGigsByPoster(ctx context.Context, posterUID string) ([]model.Gig, error) {
	var out []model.Gig
	for _, g := range r.gigs {
		if g.PosterUID == posterUID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGigRepo) CreateBid(ctx context.Context, b *model.Bid) error {
	b.ID = r.nextBidID
	r.nextBidID++
	cp := *b
	r.bids[cp.ID] = &cp
	return nil
}

func (r *fakeGigRepo) FindBidByID(ctx context.Context, id uint64) (*model.Bid, error) {
	b, ok := r.bids[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeGigRepo) ListBidsByGig(ctx context.Context, gigID uint64) ([]model.Bid, error) {
	var out []model.Bid
	for _, b := range r.bids {
		if b.GigID == gigID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeGigRepo) UpdateBid(ctx context.Context, b *model.Bid) error {
	if _, ok := r.bids[b.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *b
	r.bids[b.ID] = &cp
	return nil
}

func (r *fakeGigRepo) RejectOtherBids(ctx context.Context, gigID, acceptedBidID uint64) error {
	for _, b := range r.bids {
		if b.GigID == gigID && b.ID != acceptedBidID && b.Status == model.BidStatusPending {
			b.Status = model.BidStatusRejected
		}
	}
	return nil
}

func (r *fakeGigRepo) WithTx(tx *gorm.DB) repository.GigRepository { return r }
func (r *fakeGigRepo) SetDB(db *gorm.DB)                           {}
