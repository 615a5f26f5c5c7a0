package model

import "time"

// FeeSchedule is admin-configured and read-only to this service. The
// schedule in effect at checkout time decides the fee that gets
// persisted on the order; later edits never touch existing orders.
type FeeSchedule struct {
	ID              uint64             `gorm:"primaryKey;autoIncrement"`
	BasePercentage  float64            `gorm:"column:base_percentage;not null"`
	MinimumFee      int64              `gorm:"column:minimum_fee;not null"`
	MaximumFee      int64              `gorm:"column:maximum_fee;not null"`
	FreeThreshold   int64              `gorm:"column:free_threshold;not null;default:0"`
	CampusDiscounts map[string]float64 `gorm:"column:campus_discounts;type:json;serializer:json"`
	Active          bool               `gorm:"not null;default:true"`
	CreatedAt       time.Time          `gorm:"autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime"`
}

func (FeeSchedule) TableName() string {
	return "fee_schedules"
}

// DefaultFeeSchedule is used until an admin has configured one.
func DefaultFeeSchedule() *FeeSchedule {
	return &FeeSchedule{
		BasePercentage: 5,
		MinimumFee:     50,
		MaximumFee:     1000,
		FreeThreshold:  0,
		Active:         true,
	}
}
