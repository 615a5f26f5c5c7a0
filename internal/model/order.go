package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDisputed  OrderStatus = "disputed"
)

type DeliveryStatus string

const (
	DeliveryStatusPending          DeliveryStatus = "pending"
	DeliveryStatusPreparing        DeliveryStatus = "preparing"
	DeliveryStatusReadyForPickup   DeliveryStatus = "ready_for_pickup"
	DeliveryStatusInTransit        DeliveryStatus = "in_transit"
	DeliveryStatusDelivered        DeliveryStatus = "delivered"
	DeliveryStatusConfirmedByBuyer DeliveryStatus = "confirmed_by_buyer"
)

var orderStatusNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true, OrderStatusDisputed: true},
	OrderStatusConfirmed: {OrderStatusShipped: true, OrderStatusCancelled: true, OrderStatusDisputed: true},
	OrderStatusShipped:   {OrderStatusDelivered: true, OrderStatusCancelled: true, OrderStatusDisputed: true},
	OrderStatusDelivered: {OrderStatusCompleted: true, OrderStatusCancelled: true, OrderStatusDisputed: true},
	OrderStatusDisputed:  {OrderStatusCompleted: true, OrderStatusCancelled: true},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

func CanTransitionOrderStatus(from, to OrderStatus) bool {
	return orderStatusNext[from][to]
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// deliveryChain is the forward-only path. Cancellation is a separate
// branch handled on the order status, never by walking this backward.
var deliveryChain = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusPreparing,
	DeliveryStatusReadyForPickup,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
	DeliveryStatusConfirmedByBuyer,
}

func deliveryIndex(s DeliveryStatus) int {
	for i, d := range deliveryChain {
		if d == s {
			return i
		}
	}
	return -1
}

// CanAdvanceDelivery reports whether to is exactly one step after from.
func CanAdvanceDelivery(from, to DeliveryStatus) bool {
	fi, ti := deliveryIndex(from), deliveryIndex(to)
	if fi < 0 || ti < 0 {
		return false
	}
	return ti == fi+1
}

// OrderStatusForDelivery maps a delivery milestone to the order status it implies.
func OrderStatusForDelivery(d DeliveryStatus) OrderStatus {
	switch d {
	case DeliveryStatusPreparing, DeliveryStatusReadyForPickup:
		return OrderStatusConfirmed
	case DeliveryStatusInTransit:
		return OrderStatusShipped
	case DeliveryStatusDelivered:
		return OrderStatusDelivered
	case DeliveryStatusConfirmedByBuyer:
		return OrderStatusCompleted
	default:
		return OrderStatusPending
	}
}

type Order struct {
	ID                  uint64         `gorm:"primaryKey;autoIncrement"`
	OrderNumber         string         `gorm:"column:order_number;size:64;uniqueIndex;not null"`
	BuyerUID            string         `gorm:"column:buyer_uid;size:128;index;not null"`
	SellerUID           string         `gorm:"column:seller_uid;size:128;index;not null"`
	Campus              string         `gorm:"size:64;index;not null"`
	Subtotal            int64          `gorm:"not null"`
	PlatformFee         int64          `gorm:"column:platform_fee;not null"`
	TotalAmount         int64          `gorm:"column:total_amount;not null"`
	Status              OrderStatus    `gorm:"column:status;size:32;not null"`
	DeliveryStatus      DeliveryStatus `gorm:"column:delivery_status;size:32;not null"`
	DeliveryMethod      string         `gorm:"column:delivery_method;size:64"`
	Notes               string         `gorm:"type:text"`
	CancelReason        string         `gorm:"column:cancel_reason;type:text"`
	EscrowReleased      bool           `gorm:"column:escrow_released;not null;default:false"`
	EscrowReleasedAt    *time.Time     `gorm:"column:escrow_released_at"`
	BuyerConfirmedAt    *time.Time     `gorm:"column:buyer_confirmed_at"`
	DeliveryConfirmedAt *time.Time     `gorm:"column:delivery_confirmed_at"`
	Items               []OrderItem    `gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

const ProductSnapshotSchemaVersion = 1

// ProductSnapshot freezes the sellable attributes of a listing at order
// time. The live product may be edited or deleted afterwards; the order
// stays self-describing. SchemaVersion guards future shape changes.
type ProductSnapshot struct {
	SchemaVersion int    `json:"schemaVersion"`
	ProductID     uint64 `json:"productId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	Campus        string `json:"campus"`
	SellerUID     string `json:"sellerUid"`
}

func SnapshotProduct(p *Product) ProductSnapshot {
	return ProductSnapshot{
		SchemaVersion: ProductSnapshotSchemaVersion,
		ProductID:     p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		Campus:        p.Campus,
		SellerUID:     p.SellerUID,
	}
}

type OrderItem struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID         uint64          `gorm:"column:order_id;index;not null"`
	ProductID       uint64          `gorm:"column:product_id;index;not null"`
	Quantity        uint            `gorm:"not null"`
	Price           int64           `gorm:"not null"`
	ProductSnapshot ProductSnapshot `gorm:"column:product_snapshot;type:json;serializer:json"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
