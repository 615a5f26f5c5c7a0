package repository

import (
	"context"

	"github.com/campusmart/campusmart-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindOrCreate(ctx context.Context, buyerUID string) (*model.Cart, error)
	ListItems(ctx context.Context, cartID uint64) ([]model.CartItem, error)
	UpsertItem(ctx context.Context, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, cartID, productID uint64, quantity uint) error
	RemoveItem(ctx context.Context, cartID, productID uint64) error
	DeleteItems(ctx context.Context, cartID uint64, itemIDs []uint64) error
	WithTx(tx *gorm.DB) CartRepository
	SetDB(db *gorm.DB)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindOrCreate(ctx context.Context, buyerUID string) (*model.Cart, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cart model.Cart
	if err := r.db.WithContext(ctx).
		Where("buyer_uid = ?", buyerUID).
		FirstOrCreate(&cart, &model.Cart{BuyerUID: buyerUID}).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) ListItems(ctx context.Context, cartID uint64) ([]model.CartItem, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertItem inserts the line or, when the product is already in the
// cart, replaces its quantity. PriceAtAdd is only written on insert.
func (r *cartRepository) UpsertItem(ctx context.Context, item *model.CartItem) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": item.Quantity}),
	}).Create(item).Error
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, cartID, productID uint64, quantity uint) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepository) DeleteItems(ctx context.Context, cartID uint64, itemIDs []uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &cartRepository{db: tx}
}

func (r *cartRepository) SetDB(db *gorm.DB) {
	r.db = db
}
