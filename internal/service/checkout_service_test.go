package service

import (
	"context"
	"errors"
	"testing"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	txm      *fakeTxManager
	carts    *fakeCartRepo
	products *fakeProductRepo
	orders   *fakeOrderRepo
	wallets  *fakeWalletRepo
	txns     *fakeTransactionRepo
	fees     *fakeFeeScheduleRepo
	svc      CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		txm:      &fakeTxManager{},
		carts:    newFakeCartRepo(),
		products: newFakeProductRepo(),
		orders:   newFakeOrderRepo(),
		wallets:  newFakeWalletRepo(),
		txns:     newFakeTransactionRepo(),
		fees:     &fakeFeeScheduleRepo{},
	}
	f.svc = NewCheckoutService(f.txm, f.carts, f.products, f.orders, f.wallets, f.txns, f.fees, nil)
	return f
}

func (f *checkoutFixture) addToCart(t *testing.T, buyerUID string, p *model.Product, qty uint) {
	t.Helper()
	cart, err := f.carts.FindOrCreate(context.Background(), buyerUID)
	require.NoError(t, err)
	require.NoError(t, f.carts.UpsertItem(context.Background(), &model.CartItem{
		CartID:     cart.ID,
		ProductID:  p.ID,
		Quantity:   qty,
		PriceAtAdd: p.Price,
	}))
}

func TestCheckoutMultiSeller(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	pa := f.products.add(model.Product{SellerUID: "seller-a", Campus: "north", Title: "calculator", Price: 4000})
	pb := f.products.add(model.Product{SellerUID: "seller-b", Campus: "south", Title: "guitar", Price: 3000})
	f.addToCart(t, "buyer-1", pa, 1)
	f.addToCart(t, "buyer-1", pb, 1)
	f.wallets.set("buyer-1", 10000)

	orders, err := f.svc.Checkout(ctx, "buyer-1", "pickup", "")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// One order per seller, fees at the default 5% schedule.
	assert.Equal(t, "seller-a", orders[0].SellerUID)
	assert.Equal(t, int64(4000), orders[0].Subtotal)
	assert.Equal(t, int64(200), orders[0].PlatformFee)
	assert.Equal(t, int64(4200), orders[0].TotalAmount)
	assert.Equal(t, "seller-b", orders[1].SellerUID)
	assert.Equal(t, int64(3000), orders[1].Subtotal)
	assert.Equal(t, int64(150), orders[1].PlatformFee)
	assert.Equal(t, int64(3150), orders[1].TotalAmount)

	for _, o := range orders {
		assert.Equal(t, model.OrderStatusPending, o.Status)
		assert.Equal(t, model.DeliveryStatusPending, o.DeliveryStatus)
		assert.False(t, o.EscrowReleased)
		assert.NotEmpty(t, o.OrderNumber)
		require.Len(t, o.Items, 1)
		assert.Equal(t, model.ProductSnapshotSchemaVersion, o.Items[0].ProductSnapshot.SchemaVersion)
	}
	assert.NotEqual(t, orders[0].OrderNumber, orders[1].OrderNumber)

	// 10,000 - 4,200 - 3,150 = 2,650.
	w := f.wallets.get("buyer-1")
	assert.Equal(t, int64(2650), w.Balance)
	assert.Equal(t, int64(7350), w.TotalSpent)

	// One completed escrow debit per order, fee recorded on the row.
	escrows := f.txns.byType(model.TransactionTypeEscrow)
	require.Len(t, escrows, 2)
	for i, tx := range escrows {
		assert.Equal(t, "buyer-1", tx.UserUID)
		assert.Equal(t, model.DirectionDebit, tx.Direction)
		assert.Equal(t, model.TransactionStatusCompleted, tx.Status)
		assert.Equal(t, orders[i].TotalAmount, tx.Amount)
		assert.Equal(t, orders[i].PlatformFee, tx.Fee)
		require.NotNil(t, tx.OrderID)
		assert.Equal(t, orders[i].ID, *tx.OrderID)
		assert.NotNil(t, tx.CompletedAt)
	}

	// Cart is consumed.
	cart, err := f.carts.FindOrCreate(ctx, "buyer-1")
	require.NoError(t, err)
	items, err := f.carts.ListItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	pa := f.products.add(model.Product{SellerUID: "seller-a", Campus: "north", Price: 4000})
	pb := f.products.add(model.Product{SellerUID: "seller-b", Campus: "south", Price: 3000})
	f.addToCart(t, "buyer-1", pa, 1)
	f.addToCart(t, "buyer-1", pb, 1)
	// 5,000 covers one order but not the 7,350 grand total. Checkout is
	// all-or-nothing, so nothing is charged and nothing is created.
	f.wallets.set("buyer-1", 5000)

	orders, err := f.svc.Checkout(ctx, "buyer-1", "", "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Nil(t, orders)

	assert.Equal(t, int64(5000), f.wallets.get("buyer-1").Balance)
	assert.Empty(t, f.txns.txns)
	assert.Empty(t, f.orders.orders)

	cart, _ := f.carts.FindOrCreate(ctx, "buyer-1")
	items, _ := f.carts.ListItems(ctx, cart.ID)
	assert.Len(t, items, 2)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	f.wallets.set("buyer-1", 10000)

	_, err := f.svc.Checkout(context.Background(), "buyer-1", "", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutStaleItem(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	ok := f.products.add(model.Product{SellerUID: "seller-a", Campus: "north", Price: 2000})
	gone := f.products.add(model.Product{SellerUID: "seller-b", Campus: "south", Price: 1000, Disabled: true})
	f.addToCart(t, "buyer-1", ok, 1)
	f.addToCart(t, "buyer-1", gone, 1)
	f.wallets.set("buyer-1", 10000)

	_, err := f.svc.Checkout(ctx, "buyer-1", "", "")
	var stale *StaleCartItemError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, []uint64{gone.ID}, stale.ProductIDs)

	// No partial order for the still-valid line.
	assert.Empty(t, f.orders.orders)
	assert.Equal(t, int64(10000), f.wallets.get("buyer-1").Balance)
}

func TestCheckoutFrozenWallet(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	p := f.products.add(model.Product{SellerUID: "seller-a", Campus: "north", Price: 2000})
	f.addToCart(t, "buyer-1", p, 1)
	f.wallets.set("buyer-1", 10000)
	f.wallets.get("buyer-1").Frozen = true

	_, err := f.svc.Checkout(ctx, "buyer-1", "", "")
	assert.ErrorIs(t, err, ErrWalletFrozen)
	assert.Empty(t, f.orders.orders)
}

func TestCheckoutPreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	p := f.products.add(model.Product{SellerUID: "seller-a", Campus: "north", Price: 4000})
	f.addToCart(t, "buyer-1", p, 1)

	previews, err := f.svc.Preview(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, int64(4000), previews[0].Group.Subtotal)
	assert.Equal(t, int64(200), previews[0].PlatformFee)
	assert.Equal(t, int64(4200), previews[0].Total)

	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.txns.txns)
	cart, _ := f.carts.FindOrCreate(ctx, "buyer-1")
	items, _ := f.carts.ListItems(ctx, cart.ID)
	assert.Len(t, items, 1)
}

func TestCheckoutQuantityMultiplies(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	p := f.products.add(model.Product{SellerUID: "seller-a", Campus: "north", Price: 1500})
	f.addToCart(t, "buyer-1", p, 3)
	f.wallets.set("buyer-1", 10000)

	orders, err := f.svc.Checkout(ctx, "buyer-1", "", "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(4500), orders[0].Subtotal)
	assert.Equal(t, int64(225), orders[0].PlatformFee)
	assert.Equal(t, int64(4725), orders[0].TotalAmount)
}
