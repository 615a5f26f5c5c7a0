package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/campusmart/campusmart-backend/internal/repository"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ProductHandler exposes read access to listings; listing management
// itself lives outside this service.
type ProductHandler struct {
	products repository.ProductRepository
}

func NewProductHandler(products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

type ProductResponse struct {
	ID          uint64 `json:"id"`
	SellerUID   string `json:"sellerUid"`
	Campus      string `json:"campus"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Disabled    bool   `json:"disabled"`
	CreatedAt   string `json:"createdAt"`
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		SellerUID:   p.SellerUID,
		Campus:      p.Campus,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Disabled:    p.Disabled,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, total, err := h.products.List(c.Request().Context(), c.QueryParam("campus"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch products"))
	}
	resp := make([]ProductResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toProductResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"products": resp, "total": total})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	p, err := h.products.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch product"))
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}
