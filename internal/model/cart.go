package model

import "time"

type Cart struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	BuyerUID  string    `gorm:"column:buyer_uid;size:128;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem stores the price at the moment the item was added, so later
// listing edits never change what a pending cart will be charged.
type CartItem struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	CartID     uint64    `gorm:"column:cart_id;uniqueIndex:uq_cart_product;not null"`
	ProductID  uint64    `gorm:"column:product_id;uniqueIndex:uq_cart_product;not null"`
	Quantity   uint      `gorm:"not null"`
	PriceAtAdd int64     `gorm:"column:price_at_add;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
