package event

import (
	"encoding/json"
	"time"
)

// Event types published after state transitions. Downstream consumers
// (push/email notification workers) subscribe to these; delivery is
// fire-and-forget and never affects the financial state.
const (
	TypeOrderCreated          = "OrderCreated"
	TypeDeliveryStatusChanged = "DeliveryStatusChanged"
	TypeEscrowReleased        = "EscrowReleased"
	TypeOrderCancelled        = "OrderCancelled"
	TypeOrderDisputed         = "OrderDisputed"
	TypeWithdrawalSettled     = "WithdrawalSettled"
	TypeGigEscrowed           = "GigEscrowed"
	TypeGigReleased           = "GigReleased"
	TypeGigRefunded           = "GigRefunded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     uint64 `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerUID    string `json:"buyer_uid"`
	SellerUID   string `json:"seller_uid"`
	TotalAmount int64  `json:"total_amount"`
}

type DeliveryStatusChangedPayload struct {
	OrderID        uint64 `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	DeliveryStatus string `json:"delivery_status"`
}

type EscrowReleasedPayload struct {
	OrderID     uint64 `json:"order_id"`
	OrderNumber string `json:"order_number"`
	SellerUID   string `json:"seller_uid"`
	Amount      int64  `json:"amount"`
	PlatformFee int64  `json:"platform_fee"`
}

type OrderCancelledPayload struct {
	OrderID     uint64 `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerUID    string `json:"buyer_uid"`
	Refunded    int64  `json:"refunded"`
	Reason      string `json:"reason"`
}

type WithdrawalSettledPayload struct {
	Reference string `json:"reference"`
	UserUID   string `json:"user_uid"`
	Amount    int64  `json:"amount"`
	Outcome   string `json:"outcome"`
}

type GigSettlementPayload struct {
	GigID         uint64 `json:"gig_id"`
	PosterUID     string `json:"poster_uid"`
	FreelancerUID string `json:"freelancer_uid,omitempty"`
	Amount        int64  `json:"amount"`
	PaymentStatus string `json:"payment_status"`
}
