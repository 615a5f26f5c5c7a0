package model

import "time"

type GigStatus string

const (
	GigStatusOpen      GigStatus = "open"
	GigStatusAssigned  GigStatus = "assigned"
	GigStatusCompleted GigStatus = "completed"
	GigStatusCancelled GigStatus = "cancelled"
)

// GigPaymentStatus mirrors Order.EscrowReleased one-to-one: in_escrow
// corresponds to a funded unreleased order, released and refunded are
// the two terminal settlement outcomes.
type GigPaymentStatus string

const (
	GigPaymentPending  GigPaymentStatus = "pending"
	GigPaymentInEscrow GigPaymentStatus = "in_escrow"
	GigPaymentReleased GigPaymentStatus = "released"
	GigPaymentRefunded GigPaymentStatus = "refunded"
)

type Gig struct {
	ID               uint64           `gorm:"primaryKey;autoIncrement"`
	PosterUID        string           `gorm:"column:poster_uid;size:128;index;not null"`
	Campus           string           `gorm:"size:64;index;not null"`
	Title            string           `gorm:"size:120;not null"`
	Description      string           `gorm:"type:text;not null"`
	Budget           int64            `gorm:"not null"`
	Status           GigStatus        `gorm:"column:status;size:32;not null"`
	PaymentStatus    GigPaymentStatus `gorm:"column:payment_status;size:32;not null"`
	AcceptedBidID    *uint64          `gorm:"column:accepted_bid_id"`
	EscrowAmount     int64            `gorm:"column:escrow_amount;not null;default:0"`
	PlatformFee      int64            `gorm:"column:platform_fee;not null;default:0"`
	EscrowReleasedAt *time.Time       `gorm:"column:escrow_released_at"`
	CancelReason     string           `gorm:"column:cancel_reason;type:text"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime"`
}

func (Gig) TableName() string {
	return "gigs"
}

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

type Bid struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	GigID         uint64    `gorm:"column:gig_id;index;not null"`
	FreelancerUID string    `gorm:"column:freelancer_uid;size:128;index;not null"`
	Amount        int64     `gorm:"not null"`
	Message       string    `gorm:"type:text"`
	Status        BidStatus `gorm:"column:status;size:32;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Bid) TableName() string {
	return "bids"
}
