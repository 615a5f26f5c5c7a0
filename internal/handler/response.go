package handler

import (
	"errors"
	"net/http"

	"github.com/campusmart/campusmart-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type errorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func NewErrorResponseWithDetails(code, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// writeServiceError maps service sentinels to HTTP responses. Messages
// stay actionable for the caller; internal ledger identifiers are never
// exposed.
func writeServiceError(c echo.Context, err error) error {
	var stale *service.StaleCartItemError
	if errors.As(err, &stale) {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithDetails(
			"stale_cart_item",
			"some cart items are no longer available; remove them and retry",
			map[string]interface{}{"productIds": stale.ProductIDs},
		))
	}
	var recon *service.ReconciliationError
	if errors.As(err, &recon) {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("reconciliation_error", "wallet is under audit"))
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "resource not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("empty_cart", "cart is empty"))
	case errors.Is(err, service.ErrInsufficientFunds):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("insufficient_funds", "insufficient balance, deposit required"))
	case errors.Is(err, service.ErrOutOfOrderTransition):
		return c.JSON(http.StatusConflict, NewErrorResponse("out_of_order_transition", "transition not allowed from current state"))
	case errors.Is(err, service.ErrAlreadySettled):
		return c.JSON(http.StatusConflict, NewErrorResponse("already_settled", "escrow already settled"))
	case errors.Is(err, service.ErrWalletFrozen):
		return c.JSON(http.StatusConflict, NewErrorResponse("wallet_frozen", "wallet is frozen pending audit"))
	case errors.Is(err, service.ErrDuplicateReference):
		return c.JSON(http.StatusConflict, NewErrorResponse("duplicate_reference", "payment reference already used"))
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
}
