package model

import "time"

type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "deposit"
	TransactionTypeWithdrawal    TransactionType = "withdrawal"
	TransactionTypeEscrow        TransactionType = "escrow"
	TransactionTypeRelease       TransactionType = "release"
	TransactionTypeRefund        TransactionType = "refund"
	TransactionTypeFee           TransactionType = "fee"
	TransactionTypeWithdrawalFee TransactionType = "withdrawal_fee"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "credit"
	DirectionDebit  TransactionDirection = "debit"
)

// Transaction is append-only. A row moves out of pending exactly once;
// corrections are new compensating rows, never edits.
type Transaction struct {
	ID          uint64               `gorm:"primaryKey;autoIncrement"`
	Reference   string               `gorm:"size:64;uniqueIndex;not null"`
	UserUID     string               `gorm:"column:user_uid;size:128;index;not null"`
	Type        TransactionType      `gorm:"column:type;size:32;not null"`
	Direction   TransactionDirection `gorm:"column:direction;size:16;not null"`
	Amount      int64                `gorm:"not null"`
	Fee         int64                `gorm:"not null;default:0"`
	Status      TransactionStatus    `gorm:"column:status;size:32;not null"`
	OrderID     *uint64              `gorm:"column:order_id;index"`
	GigID       *uint64              `gorm:"column:gig_id;index"`
	Description string               `gorm:"type:text"`
	CreatedAt   time.Time            `gorm:"autoCreateTime"`
	CompletedAt *time.Time           `gorm:"column:completed_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
