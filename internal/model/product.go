package model

import "time"

type Product struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SellerUID   string    `gorm:"column:seller_uid;size:128;index;not null"`
	Campus      string    `gorm:"size:64;index;not null"`
	Title       string    `gorm:"size:120;not null"`
	Description string    `gorm:"type:text;not null"`
	Price       int64     `gorm:"not null"`
	Disabled    bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// Sellable reports whether the listing can still be checked out.
func (p *Product) Sellable() bool {
	return p != nil && !p.Disabled
}
