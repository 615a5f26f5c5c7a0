package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyOrderStatus = "order_status:%d"
	statusTTL      = 5 * time.Minute
)

// StatusEntry carries the order parties alongside the statuses so a
// cache hit can still be authorized against the requesting user.
type StatusEntry struct {
	Status         string    `json:"status"`
	DeliveryStatus string    `json:"delivery_status"`
	BuyerUID       string    `json:"buyer_uid"`
	SellerUID      string    `json:"seller_uid"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrderStatusCache fronts the hot status-polling path. A nil cache is a
// valid no-op; reads fall through to the database.
type OrderStatusCache struct {
	rdb *redis.Client
}

func NewOrderStatusCache(addr string) *OrderStatusCache {
	if addr == "" {
		return nil
	}
	return &OrderStatusCache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *OrderStatusCache) Get(ctx context.Context, orderID uint64) (*StatusEntry, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Bytes()
	if err != nil {
		return nil, false
	}
	var e StatusEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func (c *OrderStatusCache) Set(ctx context.Context, orderID uint64, e StatusEntry) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, orderID), raw, statusTTL).Err()
}

func (c *OrderStatusCache) Invalidate(ctx context.Context, orderID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Err()
}
