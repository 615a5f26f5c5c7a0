package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	carts    service.CartService
	checkout service.CheckoutService
}

func NewCartHandler(carts service.CartService, checkout service.CheckoutService) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout}
}

type CartItemResponse struct {
	ProductID  uint64 `json:"productId"`
	Quantity   uint   `json:"quantity"`
	PriceAtAdd int64  `json:"priceAtAdd"`
	AddedAt    string `json:"addedAt"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
}

func toCartResponse(items []model.CartItem) CartResponse {
	resp := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceAtAdd: it.PriceAtAdd,
			AddedAt:    it.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func (h *CartHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	_, items, err := h.carts.Get(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(items))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		ProductID uint64 `json:"productId"`
		Quantity  uint   `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	item, err := h.carts.AddItem(c.Request().Context(), uid, body.ProductID, body.Quantity)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, CartItemResponse{
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		PriceAtAdd: item.PriceAtAdd,
		AddedAt:    item.CreatedAt.Format(time.RFC3339),
	})
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	var body struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.carts.UpdateItem(c.Request().Context(), uid, productID, body.Quantity); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	if err := h.carts.RemoveItem(c.Request().Context(), uid, productID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type PreviewGroupResponse struct {
	SellerUID   string             `json:"sellerUid"`
	Campus      string             `json:"campus"`
	Items       []CartItemResponse `json:"items"`
	Subtotal    int64              `json:"subtotal"`
	PlatformFee int64              `json:"platformFee"`
	Total       int64              `json:"total"`
}

func (h *CartHandler) CheckoutPreview(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	previews, err := h.checkout.Preview(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := make([]PreviewGroupResponse, 0, len(previews))
	for _, p := range previews {
		g := PreviewGroupResponse{
			SellerUID:   p.Group.SellerUID,
			Campus:      p.Group.Campus,
			Subtotal:    p.Group.Subtotal,
			PlatformFee: p.PlatformFee,
			Total:       p.Total,
		}
		for _, it := range p.Group.Items {
			g.Items = append(g.Items, CartItemResponse{
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				PriceAtAdd: it.Price,
			})
		}
		resp = append(resp, g)
	}
	return c.JSON(http.StatusOK, resp)
}
