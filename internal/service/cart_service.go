package service

import (
	"context"
	"errors"
	"sort"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"gorm.io/gorm"
)

type GroupItem struct {
	CartItemID uint64
	ProductID  uint64
	Quantity   uint
	// Price is the cart line's price-at-add, never the live listing
	// price, so a seller edit cannot surprise-charge the buyer.
	Price   int64
	Product *model.Product
}

type SellerGroup struct {
	SellerUID string
	Campus    string
	Items     []GroupItem
	Subtotal  int64
}

type CartService interface {
	Get(ctx context.Context, buyerUID string) (*model.Cart, []model.CartItem, error)
	AddItem(ctx context.Context, buyerUID string, productID uint64, quantity uint) (*model.CartItem, error)
	UpdateItem(ctx context.Context, buyerUID string, productID uint64, quantity uint) error
	RemoveItem(ctx context.Context, buyerUID string, productID uint64) error
	Aggregate(ctx context.Context, buyerUID string) ([]SellerGroup, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) Get(ctx context.Context, buyerUID string) (*model.Cart, []model.CartItem, error) {
	cart, err := s.cartRepo.FindOrCreate(ctx, buyerUID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, nil, err
	}
	return cart, items, nil
}

func (s *cartService) AddItem(ctx context.Context, buyerUID string, productID uint64, quantity uint) (*model.CartItem, error) {
	if quantity == 0 {
		return nil, errors.New("quantity must be at least 1")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !product.Sellable() {
		return nil, &StaleCartItemError{ProductIDs: []uint64{productID}}
	}
	if product.SellerUID == buyerUID {
		return nil, errors.New("cannot buy your own listing")
	}
	cart, err := s.cartRepo.FindOrCreate(ctx, buyerUID)
	if err != nil {
		return nil, err
	}
	item := &model.CartItem{
		CartID:     cart.ID,
		ProductID:  productID,
		Quantity:   quantity,
		PriceAtAdd: product.Price,
	}
	if err := s.cartRepo.UpsertItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) UpdateItem(ctx context.Context, buyerUID string, productID uint64, quantity uint) error {
	if quantity == 0 {
		return errors.New("quantity must be at least 1")
	}
	cart, err := s.cartRepo.FindOrCreate(ctx, buyerUID)
	if err != nil {
		return err
	}
	if err := s.cartRepo.UpdateQuantity(ctx, cart.ID, productID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, buyerUID string, productID uint64) error {
	cart, err := s.cartRepo.FindOrCreate(ctx, buyerUID)
	if err != nil {
		return err
	}
	return s.cartRepo.RemoveItem(ctx, cart.ID, productID)
}

func (s *cartService) Aggregate(ctx context.Context, buyerUID string) ([]SellerGroup, error) {
	cart, err := s.cartRepo.FindOrCreate(ctx, buyerUID)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return GroupCartItems(items, products)
}

// GroupCartItems splits cart lines into per-seller groups with
// subtotals over the stored price-at-add. All referenced products must
// still be sellable; otherwise the whole aggregation fails so the buyer
// can fix the cart rather than silently checking out a subset.
func GroupCartItems(items []model.CartItem, products map[uint64]*model.Product) ([]SellerGroup, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	var stale []uint64
	bySeller := make(map[string]*SellerGroup)
	for _, it := range items {
		p := products[it.ProductID]
		if !p.Sellable() {
			stale = append(stale, it.ProductID)
			continue
		}
		g, ok := bySeller[p.SellerUID]
		if !ok {
			g = &SellerGroup{SellerUID: p.SellerUID, Campus: p.Campus}
			bySeller[p.SellerUID] = g
		}
		g.Items = append(g.Items, GroupItem{
			CartItemID: it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			Price:      it.PriceAtAdd,
			Product:    p,
		})
		g.Subtotal += it.PriceAtAdd * int64(it.Quantity)
	}
	if len(stale) > 0 {
		return nil, &StaleCartItemError{ProductIDs: stale}
	}
	groups := make([]SellerGroup, 0, len(bySeller))
	for _, g := range bySeller {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].SellerUID < groups[j].SellerUID })
	return groups, nil
}
