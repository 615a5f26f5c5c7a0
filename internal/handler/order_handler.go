package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orders   service.OrderService
	checkout service.CheckoutService
}

func NewOrderHandler(orders service.OrderService, checkout service.CheckoutService) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: checkout}
}

type OrderItemResponse struct {
	ProductID uint64                `json:"productId"`
	Quantity  uint                  `json:"quantity"`
	Price     int64                 `json:"price"`
	Snapshot  model.ProductSnapshot `json:"snapshot"`
}

type OrderResponse struct {
	ID               uint64              `json:"id"`
	OrderNumber      string              `json:"orderNumber"`
	BuyerUID         string              `json:"buyerUid"`
	SellerUID        string              `json:"sellerUid"`
	Campus           string              `json:"campus"`
	Subtotal         int64               `json:"subtotal"`
	PlatformFee      int64               `json:"platformFee"`
	TotalAmount      int64               `json:"totalAmount"`
	Status           string              `json:"status"`
	DeliveryStatus   string              `json:"deliveryStatus"`
	DeliveryMethod   string              `json:"deliveryMethod,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	CancelReason     string              `json:"cancelReason,omitempty"`
	EscrowReleased   bool                `json:"escrowReleased"`
	EscrowReleasedAt *string             `json:"escrowReleasedAt,omitempty"`
	BuyerConfirmedAt *string             `json:"buyerConfirmedAt,omitempty"`
	Items            []OrderItemResponse `json:"items,omitempty"`
	CreatedAt        string              `json:"createdAt"`
	UpdatedAt        string              `json:"updatedAt"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	val := t.Format(time.RFC3339)
	return &val
}

func toOrderResponse(o *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		BuyerUID:         o.BuyerUID,
		SellerUID:        o.SellerUID,
		Campus:           o.Campus,
		Subtotal:         o.Subtotal,
		PlatformFee:      o.PlatformFee,
		TotalAmount:      o.TotalAmount,
		Status:           string(o.Status),
		DeliveryStatus:   string(o.DeliveryStatus),
		DeliveryMethod:   o.DeliveryMethod,
		Notes:            o.Notes,
		CancelReason:     o.CancelReason,
		EscrowReleased:   o.EscrowReleased,
		EscrowReleasedAt: formatTimePtr(o.EscrowReleasedAt),
		BuyerConfirmedAt: formatTimePtr(o.BuyerConfirmedAt),
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        o.UpdatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Snapshot:  it.ProductSnapshot,
		})
	}
	return resp
}

func (h *OrderHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		DeliveryMethod string `json:"deliveryMethod"`
		Notes          string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	orders, err := h.checkout.Checkout(c.Request().Context(), uid, body.DeliveryMethod, body.Notes)
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"orders": resp})
}

func (h *OrderHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	o, err := h.orders.Get(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) GetStatus(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	entry, err := h.orders.Status(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	// The cached entry carries the order parties for authorization; only
	// the statuses go out on the wire.
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         entry.Status,
		"deliveryStatus": entry.DeliveryStatus,
		"updatedAt":      entry.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	list, err := h.orders.ListByBuyer(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch orders"))
	}
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ListSales(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	list, err := h.orders.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch sales"))
	}
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateDeliveryStatus(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	var body struct {
		DeliveryStatus string `json:"deliveryStatus"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	o, err := h.orders.UpdateDeliveryStatus(c.Request().Context(), id, uid, model.DeliveryStatus(body.DeliveryStatus))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) ConfirmDelivery(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	o, err := h.orders.ConfirmDelivery(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	o, err := h.orders.Cancel(c.Request().Context(), id, uid, body.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Dispute(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	o, err := h.orders.Dispute(c.Request().Context(), id, uid, body.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) AdminRelease(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	o, err := h.orders.AdminRelease(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}
