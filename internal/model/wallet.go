package model

import "time"

// Wallet balances are integers in the smallest currency unit. Balance is
// never allowed below zero; every change goes through a Transaction row.
type Wallet struct {
	UID              string     `gorm:"column:uid;primaryKey;size:128"`
	Balance          int64      `gorm:"not null;default:0"`
	PendingBalance   int64      `gorm:"column:pending_balance;not null;default:0"`
	TotalEarned      int64      `gorm:"column:total_earned;not null;default:0"`
	TotalSpent       int64      `gorm:"column:total_spent;not null;default:0"`
	Frozen           bool       `gorm:"not null;default:false"`
	LastWithdrawalAt *time.Time `gorm:"column:last_withdrawal_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}
